package controller

import (
	"context"
	"errors"
	"time"

	"central-ai-web/internal/dto"
	"central-ai-web/internal/pkg/logger"
	"central-ai-web/internal/pkg/serverutils"
	"central-ai-web/internal/service"
	"central-ai-web/pkg/backend"
	"central-ai-web/pkg/conversation"
	"central-ai-web/pkg/session"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

const (
	msgInvalidScore = "Escolha uma nota de 0 a 10."
	refreshTimeout  = 5 * time.Second
)

// ConversationBackend is what the three chat surfaces call.
type ConversationBackend interface {
	conversation.TicketStatusLookup
	conversation.ChatBackend
}

type IConversationController interface {
	RegisterRoutes(r fiber.Router)
	WidgetPage(ctx *fiber.Ctx) error
	WidgetSend(ctx *fiber.Ctx) error
	WidgetReset(ctx *fiber.Ctx) error
	ChatPage(ctx *fiber.Ctx) error
	ChatSend(ctx *fiber.Ctx) error
	ChatFinish(ctx *fiber.Ctx) error
	AgentPage(ctx *fiber.Ctx) error
	AgentSend(ctx *fiber.Ctx) error
}

type conversationController struct {
	backend       ConversationBackend
	conversations *conversation.Registry
	store         *session.Store
	refresh       service.IPublisherService
	reset         SessionReset
	validate      *validator.Validate
	logger        logger.ILogger
}

func NewConversationController(
	b ConversationBackend,
	conversations *conversation.Registry,
	store *session.Store,
	refresh service.IPublisherService,
	reset SessionReset,
	validate *validator.Validate,
	log logger.ILogger,
) IConversationController {
	return &conversationController{
		backend:       b,
		conversations: conversations,
		store:         store,
		refresh:       refresh,
		reset:         reset,
		validate:      validate,
		logger:        log,
	}
}

func (c *conversationController) RegisterRoutes(r fiber.Router) {
	r.Get("/widget", c.WidgetPage)
	r.Post("/widget", c.WidgetSend)
	r.Post("/widget/reset", c.WidgetReset)
	r.Get("/chat", c.ChatPage)
	r.Post("/chat", c.ChatSend)
	r.Post("/chat/finish", c.ChatFinish)
	r.Get("/agent", c.AgentPage)
	r.Post("/agent", c.AgentSend)

	api := r.Group("/app")
	api.Get("/public/widget/messages", c.WidgetPage)
	api.Post("/public/widget/messages", c.WidgetSend)
	api.Post("/public/widget/reset", c.WidgetReset)
	api.Get("/client/chat/messages", c.ChatPage)
	api.Post("/client/chat/messages", c.ChatSend)
	api.Post("/client/chat/finish", c.ChatFinish)
	api.Get("/admin/agent/messages", c.AgentPage)
	api.Post("/admin/agent/messages", c.AgentSend)
}

// surface describes how one chat page is built and rendered.
type surface struct {
	kind     conversation.Surface
	view     string
	title    string
	action   string
	endpoint string
}

var (
	widgetSurface = surface{conversation.SurfaceWidget, "widget", "Consultar chamado", "/widget", "/app/public/widget/messages"}
	chatSurface   = surface{conversation.SurfaceSupport, "chat", "Atendimento", "/chat", "/app/client/chat/messages"}
	agentSurface  = surface{conversation.SurfaceAgent, "agent", "Agente Admin", "/agent", "/app/admin/agent/messages"}
)

// token reads the stored session at send time, so a logout between turns
// leaves the next turn without a bearer.
func (c *conversationController) token(sid string) conversation.TokenSource {
	return func(ctx context.Context) string {
		sess, err := c.store.Current(ctx, sid)
		if err != nil {
			return ""
		}
		return sess.Token
	}
}

func (c *conversationController) engine(ctx *fiber.Ctx, s surface) *conversation.Engine {
	sid := serverutils.SID(ctx)
	return c.conversations.Get(sid, s.kind, func() *conversation.Engine {
		switch s.kind {
		case conversation.SurfaceSupport:
			sess := serverutils.CurrentSession(ctx)
			name := sess.DisplayName
			if name == "" {
				name = sess.Username
			}
			return conversation.New(
				conversation.SupportReplier{Backend: c.backend, Token: c.token(sid)},
				conversation.Options{
					Greeting: conversation.SupportGreeting(name),
					Fallback: conversation.SupportFallback,
					OnReply:  c.onSupportReply(sid),
				},
			)
		case conversation.SurfaceAgent:
			return conversation.New(
				conversation.AgentReplier{Backend: c.backend, Token: c.token(sid)},
				conversation.Options{Greeting: conversation.AgentGreeting, Fallback: conversation.AgentFallback},
			)
		default:
			return conversation.New(
				conversation.WidgetReplier{Lookup: c.backend},
				conversation.Options{Greeting: conversation.WidgetGreeting, Fallback: conversation.WidgetFallback},
			)
		}
	})
}

// onSupportReply asks the customer's open dashboards to reload when the
// assistant changed something on their account.
func (c *conversationController) onSupportReply(sid string) func(conversation.Settled) {
	return func(s conversation.Settled) {
		if s.Err != nil || !conversation.RefreshRequested(s.Reply) {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		if err := c.refresh.RequestRefresh(ctx, sid, "chat"); err != nil {
			c.logger.Warn("Conversation", "Failed to request dashboard refresh", map[string]interface{}{"sid": session.Fingerprint(sid), "error": err.Error()})
		}
	}
}

func (c *conversationController) render(ctx *fiber.Ctx, s surface, e *conversation.Engine, status int, errMsg string, extra fiber.Map) error {
	snap := e.Snapshot()
	if serverutils.IsAPIRequest(ctx) {
		if errMsg != "" {
			body := serverutils.ErrorResponse(status, errMsg)
			body["data"] = snap
			return ctx.Status(status).JSON(body)
		}
		return ctx.Status(status).JSON(serverutils.SuccessResponse("Conversation", snap))
	}

	data := fiber.Map{
		"Chat":     snap,
		"Error":    errMsg,
		"Action":   s.action,
		"Endpoint": s.endpoint,
	}
	for k, v := range extra {
		data[k] = v
	}
	return ctx.Status(status).Render(s.view, page(ctx, s.title, data))
}

func (c *conversationController) show(ctx *fiber.Ctx, s surface, extra fiber.Map) error {
	return c.render(ctx, s, c.engine(ctx, s), fiber.StatusOK, "", extra)
}

// send runs one turn. Rejected input re-renders with the reason; a failed
// backend call already left the fallback in the log; a rejected token ends
// the session.
func (c *conversationController) send(ctx *fiber.Ctx, s surface, extra fiber.Map) error {
	var req dto.ChatMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	e := c.engine(ctx, s)
	_, err := e.Send(ctx.UserContext(), req.Message)
	switch {
	case err == nil:
	case errors.Is(err, conversation.ErrEmptyMessage),
		errors.Is(err, conversation.ErrAwaitingReply),
		errors.Is(err, conversation.ErrClosed):
		code, message := serverutils.Classify(err)
		return c.render(ctx, s, e, code, message, extra)
	case s.kind != conversation.SurfaceWidget && backend.IsUnauthorized(err):
		return c.reset.Expire(ctx)
	default:
		c.logger.Warn("Conversation", "Reply failed, fallback shown", map[string]interface{}{
			"surface":        string(s.kind),
			"correlation_id": e.CorrelationID(),
			"error":          err.Error(),
		})
	}

	if !serverutils.IsAPIRequest(ctx) {
		return ctx.Redirect(s.action, fiber.StatusSeeOther)
	}
	return c.render(ctx, s, e, fiber.StatusOK, "", extra)
}

func (c *conversationController) WidgetPage(ctx *fiber.Ctx) error {
	return c.show(ctx, widgetSurface, nil)
}

func (c *conversationController) WidgetSend(ctx *fiber.Ctx) error {
	return c.send(ctx, widgetSurface, nil)
}

// WidgetReset starts a new lookup with a fresh greeting.
func (c *conversationController) WidgetReset(ctx *fiber.Ctx) error {
	c.conversations.Reset(serverutils.SID(ctx), conversation.SurfaceWidget)
	if !serverutils.IsAPIRequest(ctx) {
		return ctx.Redirect(widgetSurface.action, fiber.StatusSeeOther)
	}
	return c.show(ctx, widgetSurface, nil)
}

func chatExtra() fiber.Map {
	scores := make([]int, 11)
	for i := range scores {
		scores[i] = i
	}
	return fiber.Map{"Scores": scores}
}

func (c *conversationController) ChatPage(ctx *fiber.Ctx) error {
	return c.show(ctx, chatSurface, chatExtra())
}

func (c *conversationController) ChatSend(ctx *fiber.Ctx) error {
	return c.send(ctx, chatSurface, chatExtra())
}

// ChatFinish records the NPS score and closes the exchange with a notice.
func (c *conversationController) ChatFinish(ctx *fiber.Ctx) error {
	var req dto.FinishChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	e := c.engine(ctx, chatSurface)
	if err := c.validate.Struct(&req); err != nil {
		return c.render(ctx, chatSurface, e, fiber.StatusBadRequest, msgInvalidScore, chatExtra())
	}
	if err := e.Note(conversation.FinishedNotice); err != nil {
		code, message := serverutils.Classify(err)
		return c.render(ctx, chatSurface, e, code, message, chatExtra())
	}

	sess := serverutils.CurrentSession(ctx)
	c.logger.Info("Conversation", "Support chat finished", map[string]interface{}{
		"username":       sess.Username,
		"correlation_id": e.CorrelationID(),
		"score":          *req.Score,
	})

	if !serverutils.IsAPIRequest(ctx) {
		return ctx.Redirect(chatSurface.action, fiber.StatusSeeOther)
	}
	return c.render(ctx, chatSurface, e, fiber.StatusOK, "", nil)
}

func agentExtra() fiber.Map {
	return fiber.Map{"Examples": conversation.AgentExamples}
}

func (c *conversationController) AgentPage(ctx *fiber.Ctx) error {
	return c.show(ctx, agentSurface, agentExtra())
}

func (c *conversationController) AgentSend(ctx *fiber.Ctx) error {
	return c.send(ctx, agentSurface, agentExtra())
}
