package serverutils

import (
	"context"

	"central-ai-web/internal/pkg/logger"
	"central-ai-web/pkg/guard"
	"central-ai-web/pkg/session"

	"github.com/gofiber/fiber/v2"
)

// SessionReader resolves the browser's session.
type SessionReader interface {
	Current(ctx context.Context, sid string) (session.Session, error)
}

// GuardMiddleware runs before every handler. Protected handlers are never
// reached unless the guard says Render.
func GuardMiddleware(g *guard.Guard, sessions SessionReader, log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		sid := SID(ctx)
		sess, err := sessions.Current(ctx.UserContext(), sid)

		state := guard.State{Session: sess}
		if err != nil {
			log.Warn("Guard", "Session storage unavailable", map[string]interface{}{"sid": session.Fingerprint(sid), "error": err.Error()})
			state = guard.State{Loading: true}
		}

		out := g.Decide(ctx.Path(), state)
		switch out.Decision {
		case guard.Render:
			setSession(ctx, state.Session)
			return ctx.Next()

		case guard.ShowLoading:
			ctx.Set(fiber.HeaderRetryAfter, "2")
			if IsAPIRequest(ctx) {
				return ctx.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse(fiber.StatusServiceUnavailable, "Carregando sessão, tente novamente."))
			}
			return ctx.Status(fiber.StatusServiceUnavailable).Render("loading", fiber.Map{"Title": "Carregando"})

		default:
			if IsAPIRequest(ctx) {
				code := fiber.StatusForbidden
				if out.Decision == guard.RedirectLogin {
					code = fiber.StatusUnauthorized
				}
				body := ErrorResponse(code, out.Decision.String())
				body["redirect"] = out.Location
				return ctx.Status(code).JSON(body)
			}
			return ctx.Redirect(out.Location, fiber.StatusSeeOther)
		}
	}
}
