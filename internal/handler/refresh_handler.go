package handler

import (
	"central-ai-web/internal/pkg/logger"
	"central-ai-web/internal/pkg/serverutils"
	internalWS "central-ai-web/internal/websocket"
	"central-ai-web/pkg/session"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RefreshHandler upgrades /ws so open dashboards hear about changes made from
// any other page of the same browser.
type RefreshHandler struct {
	hub    *internalWS.Hub
	logger logger.ILogger
}

func NewRefreshHandler(hub *internalWS.Hub, log logger.ILogger) *RefreshHandler {
	return &RefreshHandler{hub: hub, logger: log}
}

func (h *RefreshHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/ws", h.ServeWs)
}

// ServeWs relies on the session cookie; the guard has already rejected
// anonymous browsers.
func (h *RefreshHandler) ServeWs(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	sid := serverutils.SID(c)
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Debug("RefreshHandler", "Starting WebSocket session", map[string]interface{}{"sid": session.Fingerprint(sid)})
		internalWS.ServeWs(h.hub, conn, sid)
		h.logger.Debug("RefreshHandler", "WebSocket session ended", map[string]interface{}{"sid": session.Fingerprint(sid)})
	})(c)
}
