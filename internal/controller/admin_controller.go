package controller

import (
	"central-ai-web/internal/dto"
	"central-ai-web/internal/pkg/logger"
	"central-ai-web/internal/pkg/serverutils"
	"central-ai-web/internal/service"
	"central-ai-web/pkg/backend"
	"central-ai-web/pkg/dashboard"
	"central-ai-web/pkg/session"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

const (
	defaultLogLimit = 50

	msgInvalidTicket = "Informe o cliente, o canal e a mensagem."
	msgInvalidClient = "Informe nome, email válido, senha (mín. 6) e canal."
)

var (
	channels  = []string{"site", "whatsapp", "email", "telefone"}
	logLevels = []string{"DEBUG", "INFO", "WARN", "ERROR"}
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
	GetTickets(ctx *fiber.Ctx) error
	CreateTicket(ctx *fiber.Ctx) error
	GetClients(ctx *fiber.Ctx) error
	CreateClient(ctx *fiber.Ctx) error
	GetLogs(ctx *fiber.Ctx) error
	GetLogDetail(ctx *fiber.Ctx) error
}

type adminController struct {
	aggregator *dashboard.Aggregator
	refresh    service.IPublisherService
	reset      SessionReset
	validate   *validator.Validate
	logger     logger.ILogger
}

func NewAdminController(
	aggregator *dashboard.Aggregator,
	refresh service.IPublisherService,
	reset SessionReset,
	validate *validator.Validate,
	log logger.ILogger,
) IAdminController {
	return &adminController{
		aggregator: aggregator,
		refresh:    refresh,
		reset:      reset,
		validate:   validate,
		logger:     log,
	}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	r.Get("/tickets", c.GetTickets)
	r.Post("/tickets", c.CreateTicket)
	r.Get("/clients", c.GetClients)
	r.Post("/clients", c.CreateClient)
	r.Get("/settings", c.GetLogs)

	h := r.Group("/app/admin")
	h.Get("/tickets", c.GetTickets)
	h.Post("/tickets", c.CreateTicket)
	h.Get("/clients", c.GetClients)
	h.Post("/clients", c.CreateClient)
	h.Get("/logs", c.GetLogs)
	h.Get("/logs/:id", c.GetLogDetail)
}

func (c *adminController) requestRefresh(ctx *fiber.Ctx, reason string) {
	sid := serverutils.SID(ctx)
	if err := c.refresh.RequestRefresh(ctx.UserContext(), sid, reason); err != nil {
		c.logger.Warn("Admin", "Failed to request dashboard refresh", map[string]interface{}{"sid": session.Fingerprint(sid), "error": err.Error()})
	}
}

// ticketsPage lists tickets, optionally with the error of a failed create.
func (c *adminController) ticketsPage(ctx *fiber.Ctx, status int, errMsg string) error {
	tickets, err := c.aggregator.Tickets(ctx.UserContext(), serverutils.CurrentSession(ctx).Token)
	if isExpired(err) {
		return c.reset.Expire(ctx)
	}
	if err != nil {
		return err
	}
	return ctx.Status(status).Render("tickets", page(ctx, "Chamados", fiber.Map{
		"Tickets":  tickets,
		"Channels": channels,
		"Error":    errMsg,
	}))
}

func (c *adminController) GetTickets(ctx *fiber.Ctx) error {
	if !serverutils.IsAPIRequest(ctx) {
		return c.ticketsPage(ctx, fiber.StatusOK, "")
	}
	tickets, err := c.aggregator.Tickets(ctx.UserContext(), serverutils.CurrentSession(ctx).Token)
	if isExpired(err) {
		return c.reset.Expire(ctx)
	}
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Tickets", tickets))
}

func (c *adminController) CreateTicket(ctx *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := c.validate.Struct(&req); err != nil {
		if serverutils.IsAPIRequest(ctx) {
			return err
		}
		return c.ticketsPage(ctx, fiber.StatusBadRequest, msgInvalidTicket)
	}

	ticket, err := c.aggregator.CreateTicket(ctx.UserContext(), serverutils.CurrentSession(ctx).Token, backend.CreateTicketRequest{
		ClienteID: req.ClienteID,
		Canal:     req.Canal,
		Mensagem:  req.Mensagem,
	})
	if isExpired(err) {
		return c.reset.Expire(ctx)
	}
	if err != nil {
		if serverutils.IsAPIRequest(ctx) {
			return err
		}
		code, message := serverutils.Classify(err)
		return c.ticketsPage(ctx, code, message)
	}

	c.requestRefresh(ctx, "ticket")
	if serverutils.IsAPIRequest(ctx) {
		return ctx.JSON(serverutils.SuccessResponse("Ticket created", ticket))
	}
	return ctx.Redirect("/tickets", fiber.StatusSeeOther)
}

func (c *adminController) clientsPage(ctx *fiber.Ctx, status int, errMsg string) error {
	clients, err := c.aggregator.Clients(ctx.UserContext(), serverutils.CurrentSession(ctx).Token)
	if isExpired(err) {
		return c.reset.Expire(ctx)
	}
	if err != nil {
		return err
	}
	return ctx.Status(status).Render("clients", page(ctx, "Clientes", fiber.Map{
		"Clients":  clients,
		"Channels": channels,
		"Error":    errMsg,
	}))
}

func (c *adminController) GetClients(ctx *fiber.Ctx) error {
	if !serverutils.IsAPIRequest(ctx) {
		return c.clientsPage(ctx, fiber.StatusOK, "")
	}
	clients, err := c.aggregator.Clients(ctx.UserContext(), serverutils.CurrentSession(ctx).Token)
	if isExpired(err) {
		return c.reset.Expire(ctx)
	}
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Clients", clients))
}

func (c *adminController) CreateClient(ctx *fiber.Ctx) error {
	var req dto.CreateClientRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := c.validate.Struct(&req); err != nil {
		if serverutils.IsAPIRequest(ctx) {
			return err
		}
		return c.clientsPage(ctx, fiber.StatusBadRequest, msgInvalidClient)
	}

	in := backend.CreateCustomerRequest{
		Nome:           req.Nome,
		Email:          req.Email,
		Password:       req.Password,
		CanalPreferido: req.CanalPreferido,
	}
	if req.Telefone != "" {
		in.Telefone = &req.Telefone
	}

	customer, err := c.aggregator.CreateClient(ctx.UserContext(), serverutils.CurrentSession(ctx).Token, in)
	if isExpired(err) {
		return c.reset.Expire(ctx)
	}
	if err != nil {
		if serverutils.IsAPIRequest(ctx) {
			return err
		}
		code, message := serverutils.Classify(err)
		return c.clientsPage(ctx, code, message)
	}

	c.requestRefresh(ctx, "client")
	if serverutils.IsAPIRequest(ctx) {
		return ctx.JSON(serverutils.SuccessResponse("Client created", customer))
	}
	return ctx.Redirect("/clients", fiber.StatusSeeOther)
}

// GetLogs reads back the application log for the settings page.
func (c *adminController) GetLogs(ctx *fiber.Ctx) error {
	var q dto.LogQuery
	if err := ctx.QueryParser(&q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := c.validate.Struct(&q); err != nil {
		return err
	}
	if q.Limit == 0 {
		q.Limit = defaultLogLimit
	}

	logs, err := c.logger.GetLogs(q.Level, q.Limit, q.Offset)
	errMsg := ""
	if err != nil {
		if serverutils.IsAPIRequest(ctx) {
			return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(fiber.StatusInternalServerError, err.Error()))
		}
		errMsg = "Não foi possível ler os registros."
		logs = []logger.LogEntry{}
	}

	if serverutils.IsAPIRequest(ctx) {
		return ctx.JSON(serverutils.SuccessResponse("System logs", logs))
	}

	next := 0
	if len(logs) == q.Limit {
		next = q.Offset + q.Limit
	}
	return ctx.Render("settings", page(ctx, "Configurações", fiber.Map{
		"Logs":   logs,
		"Levels": logLevels,
		"Level":  q.Level,
		"Next":   next,
		"Error":  errMsg,
	}))
}

func (c *adminController) GetLogDetail(ctx *fiber.Ctx) error {
	entry, err := c.logger.GetLogById(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(fiber.StatusNotFound, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Log detail", entry))
}
