package serverutils

import (
	"strings"
	"time"

	"central-ai-web/pkg/session"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	SessionCookieName = "central_sid"

	localSID     = "sid"
	localSession = "session"
)

// SessionCookieMiddleware gives every browser a stable opaque id. Anything
// that is not a UUID is replaced.
func SessionCookieMiddleware(secure bool, ttl time.Duration) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		sid := ctx.Cookies(SessionCookieName)
		if _, err := uuid.Parse(sid); err != nil {
			sid = uuid.NewString()
			ctx.Cookie(&fiber.Cookie{
				Name:     SessionCookieName,
				Value:    sid,
				Path:     "/",
				MaxAge:   int(ttl.Seconds()),
				Secure:   secure,
				HTTPOnly: true,
				SameSite: fiber.CookieSameSiteLaxMode,
			})
		}
		ctx.Locals(localSID, sid)
		return ctx.Next()
	}
}

func SID(ctx *fiber.Ctx) string {
	sid, _ := ctx.Locals(localSID).(string)
	return sid
}

// CurrentSession is the session the guard resolved for this request.
func CurrentSession(ctx *fiber.Ctx) session.Session {
	sess, _ := ctx.Locals(localSession).(session.Session)
	return sess
}

func setSession(ctx *fiber.Ctx, sess session.Session) {
	ctx.Locals(localSession, sess)
}

// IsAPIRequest tells JSON endpoints and sockets apart from page navigations.
func IsAPIRequest(ctx *fiber.Ctx) bool {
	p := strings.ToLower(ctx.Path())
	return strings.HasPrefix(p, "/app/") || p == "/ws"
}
