package controller

import (
	"central-ai-web/internal/pkg/serverutils"
	"central-ai-web/pkg/dashboard"

	"github.com/gofiber/fiber/v2"
)

type IDashboardController interface {
	RegisterRoutes(r fiber.Router)
	Admin(ctx *fiber.Ctx) error
	Client(ctx *fiber.Ctx) error
}

type dashboardController struct {
	aggregator *dashboard.Aggregator
	reset      SessionReset
}

func NewDashboardController(aggregator *dashboard.Aggregator, reset SessionReset) IDashboardController {
	return &dashboardController{aggregator: aggregator, reset: reset}
}

func (c *dashboardController) RegisterRoutes(r fiber.Router) {
	r.Get("/dashboard", c.Admin)
	r.Get("/me", c.Client)
	r.Get("/app/admin/dashboard", c.Admin)
	r.Get("/app/client/dashboard", c.Client)
}

func (c *dashboardController) Admin(ctx *fiber.Ctx) error {
	sum, err := c.aggregator.Admin(ctx.UserContext(), serverutils.CurrentSession(ctx).Token)
	if isExpired(err) {
		return c.reset.Expire(ctx)
	}
	if err != nil {
		return err
	}

	if serverutils.IsAPIRequest(ctx) {
		return ctx.JSON(serverutils.SuccessResponse("Dashboard", sum))
	}
	return ctx.Render("dashboard", page(ctx, "Dashboard", fiber.Map{
		"Summary": sum,
		"Live":    true,
	}))
}

func (c *dashboardController) Client(ctx *fiber.Ctx) error {
	sum, err := c.aggregator.Client(ctx.UserContext(), serverutils.CurrentSession(ctx).Token)
	if isExpired(err) {
		return c.reset.Expire(ctx)
	}
	if err != nil {
		return err
	}

	if serverutils.IsAPIRequest(ctx) {
		return ctx.JSON(serverutils.SuccessResponse("Minha conta", sum))
	}
	return ctx.Render("me", page(ctx, "Minha conta", fiber.Map{
		"Summary": sum,
		"Live":    true,
	}))
}
