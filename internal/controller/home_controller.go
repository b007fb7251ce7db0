package controller

import (
	"central-ai-web/internal/pkg/serverutils"
	"central-ai-web/pkg/guard"

	"github.com/gofiber/fiber/v2"
)

type IHomeController interface {
	RegisterRoutes(r fiber.Router)
	Root(ctx *fiber.Ctx) error
	Home(ctx *fiber.Ctx) error
	Health(ctx *fiber.Ctx) error
}

type homeController struct {
	guard *guard.Guard
}

func NewHomeController(g *guard.Guard) IHomeController {
	return &homeController{guard: g}
}

func (c *homeController) RegisterRoutes(r fiber.Router) {
	r.Get("/", c.Root)
	r.Get("/home", c.Home)
	r.Get("/healthz", c.Health)
}

// Root sends an authenticated user to the landing page of their role.
func (c *homeController) Root(ctx *fiber.Ctx) error {
	return ctx.Redirect(c.guard.Landing(serverutils.CurrentSession(ctx).Role), fiber.StatusSeeOther)
}

func (c *homeController) Home(ctx *fiber.Ctx) error {
	return ctx.Render("home", page(ctx, "Central AI", nil))
}

func (c *homeController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{"status": "ok"})
}
