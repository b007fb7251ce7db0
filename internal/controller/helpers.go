package controller

import (
	"errors"

	"central-ai-web/internal/pkg/logger"
	"central-ai-web/internal/pkg/serverutils"
	"central-ai-web/pkg/conversation"
	"central-ai-web/pkg/dashboard"
	"central-ai-web/pkg/guard"
	"central-ai-web/pkg/session"
	"central-ai-web/pkg/wizard"

	"github.com/gofiber/fiber/v2"
)

const msgSessionExpired = "Sua sessão expirou. Faça login novamente."

// page builds the binding every template expects: the title, the resolved
// session for the nav and whatever the page adds.
func page(ctx *fiber.Ctx, title string, data fiber.Map) fiber.Map {
	if data == nil {
		data = fiber.Map{}
	}
	data["Title"] = title
	data["Session"] = serverutils.CurrentSession(ctx)
	return data
}

// SessionReset forgets everything the server keeps for one browser.
type SessionReset struct {
	Store         *session.Store
	Conversations *conversation.Registry
	Wizards       *wizard.Registry
	Logger        logger.ILogger
}

// Forget closes the browser's chats and wizard without touching the stored
// session.
func (r SessionReset) Forget(sid string) {
	r.Conversations.Drop(sid)
	r.Wizards.Drop(sid)
}

// Expire handles a token the backend no longer accepts: the session is
// cleared and the browser sent to login.
func (r SessionReset) Expire(ctx *fiber.Ctx) error {
	sid := serverutils.SID(ctx)
	if err := r.Store.Invalidate(ctx.UserContext(), sid); err != nil {
		r.Logger.Warn("Session", "Failed to clear expired session", map[string]interface{}{"sid": session.Fingerprint(sid), "error": err.Error()})
	}
	r.Forget(sid)

	if serverutils.IsAPIRequest(ctx) {
		body := serverutils.ErrorResponse(fiber.StatusUnauthorized, msgSessionExpired)
		body["redirect"] = guard.LoginPath
		return ctx.Status(fiber.StatusUnauthorized).JSON(body)
	}
	return ctx.Redirect(guard.LoginPath, fiber.StatusSeeOther)
}

func isExpired(err error) bool {
	return errors.Is(err, dashboard.ErrSessionExpired)
}
