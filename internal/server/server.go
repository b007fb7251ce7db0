package server

import (
	"log"
	"net/http"

	"central-ai-web/internal/bootstrap"
	"central-ai-web/internal/config"
	"central-ai-web/internal/pkg/serverutils"
	"central-ai-web/internal/server/views"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		AppName:   "central-ai-web",
		BodyLimit: 1 * 1024 * 1024,
		Views:     views.New(),
	})

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowMethods:     "GET, POST, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type, Retry-After",
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	// Static assets need neither a session nor the guard.
	app.Use("/static", filesystem.New(filesystem.Config{
		Root:   http.FS(views.Static()),
		MaxAge: 3600,
	}))

	app.Use(serverutils.ErrorHandlerMiddleware())
	app.Use(serverutils.SessionCookieMiddleware(cfg.Session.CookieSecure, cfg.Session.TTL))
	app.Use(serverutils.GuardMiddleware(container.Guard, container.SessionStore, container.Logger))

	// Routes
	registerRoutes(app, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Printf("✅ Server is running on http://localhost:%s", s.cfg.App.Port)
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func registerRoutes(app *fiber.App, c *bootstrap.Container) {
	c.HomeController.RegisterRoutes(app)
	c.AuthController.RegisterRoutes(app)

	c.SupportController.RegisterRoutes(app)
	c.ConversationController.RegisterRoutes(app)

	c.DashboardController.RegisterRoutes(app)
	c.AdminController.RegisterRoutes(app)

	c.RefreshHandler.RegisterRoutes(app)
}
