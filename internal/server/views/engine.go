// Package views renders the server-side pages with html/template.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const layoutFile = "templates/layout.html"

// Static returns the embedded assets rooted at the static directory.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Engine implements fiber.Views. Every page is parsed together with the
// shared layout and partials, so the layouts argument of Render is unused.
type Engine struct {
	mu    sync.RWMutex
	pages map[string]*template.Template
}

func New() *Engine {
	return &Engine{}
}

var funcs = template.FuncMap{
	"brl": func(v float64) string {
		s := fmt.Sprintf("%.2f", v)
		return "R$ " + strings.Replace(s, ".", ",", 1)
	},
	"date": func(v string) string {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t.Format("02/01/2006 15:04")
		}
		if t, err := time.Parse("2006-01-02", v); err == nil {
			return t.Format("02/01/2006")
		}
		return v
	},
	"isAgent": func(role string) bool { return role == "agent" },
}

func (e *Engine) Load() error {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return err
	}

	// Files starting with "_" are partials shared by every page.
	shared := []string{layoutFile}
	var pageFiles []string
	for _, f := range files {
		switch {
		case f == layoutFile:
		case strings.HasPrefix(path.Base(f), "_"):
			shared = append(shared, f)
		default:
			pageFiles = append(pageFiles, f)
		}
	}

	pages := make(map[string]*template.Template, len(pageFiles))
	for _, f := range pageFiles {
		name := strings.TrimSuffix(path.Base(f), ".html")
		patterns := append(append([]string{}, shared...), f)
		t, err := template.New(path.Base(layoutFile)).Funcs(funcs).ParseFS(templateFS, patterns...)
		if err != nil {
			return fmt.Errorf("parse %s: %w", f, err)
		}
		pages[name] = t
	}

	e.mu.Lock()
	e.pages = pages
	e.mu.Unlock()
	return nil
}

func (e *Engine) Render(w io.Writer, name string, binding interface{}, _ ...string) error {
	e.mu.RLock()
	t, ok := e.pages[name]
	e.mu.RUnlock()
	if !ok {
		return fmt.Errorf("views: unknown page %q", name)
	}
	return t.ExecuteTemplate(w, path.Base(layoutFile), binding)
}
