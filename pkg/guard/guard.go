// Package guard decides whether a navigation target may be rendered for the
// current session.
package guard

import (
	"strings"

	"central-ai-web/pkg/session"
)

type Decision int

const (
	Render Decision = iota
	RedirectLogin
	RedirectHome
	ShowLoading
)

func (d Decision) String() string {
	switch d {
	case Render:
		return "render"
	case RedirectLogin:
		return "redirect-login"
	case RedirectHome:
		return "redirect-home"
	case ShowLoading:
		return "loading"
	}
	return "unknown"
}

const LoginPath = "/login"

type Access int

const (
	Public Access = iota
	GuestOnly
	Protected
)

// Rule describes one route prefix. Role is empty when any authenticated role
// may enter.
type Rule struct {
	Prefix string
	Access Access
	Role   string
}

// State is what the guard knows about the session. Loading is true while the
// session cannot be read yet.
type State struct {
	Loading bool
	Session session.Session
}

// Outcome is a decision plus the redirect target when there is one.
type Outcome struct {
	Decision Decision
	Location string
}

type Guard struct {
	rules    []Rule
	landings map[string]string
}

// DefaultRules is the route table of the web app. Paths matching no rule are
// protected.
func DefaultRules() []Rule {
	return []Rule{
		{Prefix: "/static", Access: Public},
		{Prefix: "/healthz", Access: Public},
		{Prefix: "/home", Access: Public},
		{Prefix: "/support", Access: Public},
		{Prefix: "/widget", Access: Public},
		{Prefix: "/app/public", Access: Public},
		{Prefix: "/login", Access: GuestOnly},
		{Prefix: "/signup", Access: GuestOnly},
		{Prefix: "/dashboard", Access: Protected, Role: session.RoleAdmin},
		{Prefix: "/tickets", Access: Protected, Role: session.RoleAdmin},
		{Prefix: "/clients", Access: Protected, Role: session.RoleAdmin},
		{Prefix: "/agent", Access: Protected, Role: session.RoleAdmin},
		{Prefix: "/settings", Access: Protected, Role: session.RoleAdmin},
		{Prefix: "/app/admin", Access: Protected, Role: session.RoleAdmin},
		{Prefix: "/chat", Access: Protected, Role: session.RoleClient},
		{Prefix: "/me", Access: Protected, Role: session.RoleClient},
		{Prefix: "/app/client", Access: Protected, Role: session.RoleClient},
	}
}

// DefaultLandings maps a role to the page it lands on after login.
func DefaultLandings() map[string]string {
	return map[string]string{
		session.RoleAdmin:  "/dashboard",
		session.RoleClient: "/chat",
	}
}

func New(rules []Rule, landings map[string]string) *Guard {
	return &Guard{rules: rules, landings: landings}
}

// Landing returns the authenticated landing page for role. A role without
// pages lands on the login page.
func (g *Guard) Landing(role string) string {
	if p, ok := g.landings[role]; ok {
		return p
	}
	return LoginPath
}

func (g *Guard) match(target string) Rule {
	best := Rule{Prefix: "", Access: Protected}
	for _, r := range g.rules {
		if !hasPathPrefix(target, r.Prefix) {
			continue
		}
		if len(r.Prefix) > len(best.Prefix) {
			best = r
		}
	}
	return best
}

func hasPathPrefix(target, prefix string) bool {
	if !strings.HasPrefix(target, prefix) {
		return false
	}
	return len(target) == len(prefix) || target[len(prefix)] == '/' || target[len(prefix)] == '?'
}

// Decide applies the route table. There is no return-to: an anonymous visitor
// is always sent to the login page itself. Targets are matched without regard
// to case, like the router. A session whose role has no landing page is
// treated as anonymous.
func (g *Guard) Decide(target string, state State) Outcome {
	rule := g.match(strings.ToLower(target))

	if rule.Access == Public {
		return Outcome{Decision: Render}
	}
	if state.Loading {
		return Outcome{Decision: ShowLoading}
	}

	sess := state.Session
	if _, ok := g.landings[sess.Role]; !ok {
		sess = session.Session{}
	}
	switch rule.Access {
	case GuestOnly:
		if sess.Authenticated() {
			return Outcome{Decision: RedirectHome, Location: g.Landing(sess.Role)}
		}
		return Outcome{Decision: Render}
	default:
		if !sess.Authenticated() {
			return Outcome{Decision: RedirectLogin, Location: LoginPath}
		}
		if rule.Role != "" && rule.Role != sess.Role {
			return Outcome{Decision: RedirectHome, Location: g.Landing(sess.Role)}
		}
		return Outcome{Decision: Render}
	}
}
