package serverutils

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"central-ai-web/internal/pkg/logger"
	"central-ai-web/pkg/backend"
	"central-ai-web/pkg/conversation"
	"central-ai-web/pkg/dashboard"
	"central-ai-web/pkg/guard"
	"central-ai-web/pkg/session"
	"central-ai-web/pkg/wizard"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"fiber error", fiber.NewError(fiber.StatusTeapot, "short and stout"), fiber.StatusTeapot, "short and stout"},
		{"expired", fmt.Errorf("load: %w", dashboard.ErrSessionExpired), fiber.StatusUnauthorized, "Sessão expirada."},
		{"unknown role", session.ErrUnknownRole, fiber.StatusForbidden, session.LoginFailureMessage(session.ErrUnknownRole)},
		{"empty message", conversation.ErrEmptyMessage, fiber.StatusBadRequest, "Mensagem vazia."},
		{"awaiting reply", conversation.ErrAwaitingReply, fiber.StatusConflict, "Aguarde a resposta anterior."},
		{"wizard busy", wizard.ErrBusy, fiber.StatusConflict, "Aguarde a resposta anterior."},
		{"bad transition", wizard.ErrInvalidTransition, fiber.StatusConflict, wizard.ErrInvalidTransition.Error()},
		{"rejection keeps detail", &backend.APIError{Status: 400, Detail: "Email já cadastrado"}, fiber.StatusBadRequest, "Email já cadastrado"},
		{"server fault is generic", &backend.APIError{Status: 500, Detail: "Traceback"}, fiber.StatusBadGateway, MsgUnavailable},
		{"transport fault", fmt.Errorf("%w: dial tcp", backend.ErrUnavailable), fiber.StatusBadGateway, MsgUnavailable},
		{"anything else", errors.New("boom"), fiber.StatusInternalServerError, MsgInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, message := Classify(tt.err)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.message, message)
		})
	}
}

type stubSessions struct {
	sess session.Session
	err  error
}

func (s stubSessions) Current(context.Context, string) (session.Session, error) {
	return s.sess, s.err
}

func newApp(sessions SessionReader) *fiber.App {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Use(SessionCookieMiddleware(false, time.Hour))
	app.Use(GuardMiddleware(guard.New(guard.DefaultRules(), guard.DefaultLandings()), sessions, logger.NewNopLogger()))
	app.Get("/app/admin/ping", func(ctx *fiber.Ctx) error {
		return ctx.JSON(SuccessResponse("pong", CurrentSession(ctx).Username))
	})
	return app
}

func TestGuardMiddlewareLoadingState(t *testing.T) {
	app := newApp(stubSessions{err: errors.New("redis down")})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/app/admin/ping", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "2", resp.Header.Get(fiber.HeaderRetryAfter))
}

func TestGuardMiddlewarePassesSession(t *testing.T) {
	app := newApp(stubSessions{sess: session.Session{Token: "t", Username: "admin", Role: session.RoleAdmin}})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/app/admin/ping", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGuardMiddlewareWrongRole(t *testing.T) {
	app := newApp(stubSessions{sess: session.Session{Token: "t", Role: session.RoleClient}})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/app/admin/ping", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestSessionCookieKeepsValidID(t *testing.T) {
	app := newApp(stubSessions{sess: session.Session{Token: "t", Role: session.RoleAdmin}})
	sid := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/app/admin/ping", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sid})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Empty(t, resp.Header.Get("Set-Cookie"))

	req = httptest.NewRequest(http.MethodGet, "/app/admin/ping", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "forged"})
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Contains(t, resp.Header.Get("Set-Cookie"), SessionCookieName+"=")
	assert.NotContains(t, resp.Header.Get("Set-Cookie"), "forged")
}

func TestIsAPIRequest(t *testing.T) {
	app := fiber.New()
	app.Get("/*", func(ctx *fiber.Ctx) error {
		return ctx.SendString(fmt.Sprint(IsAPIRequest(ctx)))
	})

	for path, want := range map[string]string{"/app/public/wizard": "true", "/APP/Admin/logs": "true", "/ws": "true", "/WS": "true", "/apps": "false", "/dashboard": "false"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
		require.NoError(t, err)
		buf := make([]byte, 5)
		n, _ := resp.Body.Read(buf)
		assert.Equal(t, want, string(buf[:n]), path)
	}
}
