package websocket

import (
	"github.com/gofiber/websocket/v2"
)

// ServeWs registers the connection and blocks until it closes.
func ServeWs(hub *Hub, c *websocket.Conn, sid string) {
	client := &Client{Hub: hub, Conn: c, SID: sid, Send: make(chan []byte, 16)}
	client.Hub.register <- client

	go client.writePump()
	client.readPump()
}
