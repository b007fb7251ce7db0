package controller

import (
	"errors"

	"central-ai-web/internal/dto"
	"central-ai-web/internal/pkg/logger"
	"central-ai-web/internal/pkg/serverutils"
	"central-ai-web/pkg/wizard"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

const supportPath = "/support"

type ISupportController interface {
	RegisterRoutes(r fiber.Router)
	Page(ctx *fiber.Ctx) error
	ChooseMode(ctx *fiber.Ctx) error
	SubmitEmail(ctx *fiber.Ctx) error
	StartTicket(ctx *fiber.Ctx) error
	SubmitTicket(ctx *fiber.Ctx) error
	Back(ctx *fiber.Ctx) error
	Reset(ctx *fiber.Ctx) error
}

type supportController struct {
	backend  wizard.Backend
	wizards  *wizard.Registry
	validate *validator.Validate
	logger   logger.ILogger
}

func NewSupportController(b wizard.Backend, wizards *wizard.Registry, validate *validator.Validate, log logger.ILogger) ISupportController {
	return &supportController{backend: b, wizards: wizards, validate: validate, logger: log}
}

// RegisterRoutes mounts the form flow under /support and the same actions as
// JSON under /app/public/wizard.
func (c *supportController) RegisterRoutes(r fiber.Router) {
	for _, g := range []fiber.Router{r.Group(supportPath), r.Group("/app/public/wizard")} {
		g.Get("/", c.Page)
		g.Post("/mode", c.ChooseMode)
		g.Post("/email", c.SubmitEmail)
		g.Post("/ticket/start", c.StartTicket)
		g.Post("/ticket", c.SubmitTicket)
		g.Post("/back", c.Back)
		g.Post("/reset", c.Reset)
	}
}

func (c *supportController) wizard(ctx *fiber.Ctx) *wizard.Wizard {
	return c.wizards.Get(serverutils.SID(ctx), func() *wizard.Wizard {
		return wizard.New(c.backend, c.validate)
	})
}

// respond answers a step with the new state: JSON for scripts, a redirect
// back to the page for forms.
func (c *supportController) respond(ctx *fiber.Ctx, state wizard.State) error {
	if serverutils.IsAPIRequest(ctx) {
		return ctx.JSON(serverutils.SuccessResponse("Wizard state", state))
	}
	return ctx.Redirect(supportPath, fiber.StatusSeeOther)
}

func (c *supportController) Page(ctx *fiber.Ctx) error {
	w := c.wizard(ctx)
	state, err := w.View()
	if err != nil {
		c.logger.Warn("Support", "Wizard state inconsistent, starting over", map[string]interface{}{"error": err.Error()})
		state = w.Reset()
	}
	if serverutils.IsAPIRequest(ctx) {
		return ctx.JSON(serverutils.SuccessResponse("Wizard state", state))
	}

	outcome, handoff := state.TicketOutcome()
	return ctx.Render("support", page(ctx, "Suporte", fiber.Map{
		"State":   state,
		"Outcome": string(outcome),
		"Handoff": handoff,
	}))
}

func (c *supportController) ChooseMode(ctx *fiber.Ctx) error {
	var req dto.WizardModeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := c.validate.Struct(&req); err != nil {
		return err
	}

	state, err := c.wizard(ctx).ChooseMode(wizard.Mode(req.Mode))
	if err != nil {
		return err
	}
	return c.respond(ctx, state)
}

// SubmitEmail keeps backend faults inline in the state; only misuse of the
// flow is an error response.
func (c *supportController) SubmitEmail(ctx *fiber.Ctx) error {
	var req dto.WizardEmailRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	state, err := c.wizard(ctx).SubmitEmail(ctx.UserContext(), req.Email)
	if err != nil {
		if flowError(err) {
			return err
		}
		c.logger.Warn("Support", "Email lookup failed", map[string]interface{}{"mode": state.Mode, "error": err.Error()})
	}
	return c.respond(ctx, state)
}

func (c *supportController) StartTicket(ctx *fiber.Ctx) error {
	state, err := c.wizard(ctx).StartTicket()
	if err != nil {
		return err
	}
	return c.respond(ctx, state)
}

func (c *supportController) SubmitTicket(ctx *fiber.Ctx) error {
	var req dto.WizardTicketRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	state, err := c.wizard(ctx).SubmitTicket(ctx.UserContext(), req.Message)
	if err != nil {
		if flowError(err) {
			return err
		}
		c.logger.Warn("Support", "Ticket creation failed", map[string]interface{}{"error": err.Error()})
		return c.respond(ctx, state)
	}
	if state.Ticket != nil {
		c.logger.Info("Support", "Public ticket opened", map[string]interface{}{
			"chamado_id": state.Ticket.ChamadoID,
			"escalated":  state.Ticket.EncaminhadoParaHumano,
		})
	}
	return c.respond(ctx, state)
}

func (c *supportController) Back(ctx *fiber.Ctx) error {
	state, err := c.wizard(ctx).Back()
	if err != nil {
		return err
	}
	return c.respond(ctx, state)
}

func (c *supportController) Reset(ctx *fiber.Ctx) error {
	return c.respond(ctx, c.wizard(ctx).Reset())
}

func flowError(err error) bool {
	return errors.Is(err, wizard.ErrBusy) ||
		errors.Is(err, wizard.ErrInvalidTransition) ||
		errors.Is(err, wizard.ErrPreconditionViolated)
}
