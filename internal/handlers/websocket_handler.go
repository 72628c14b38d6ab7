package handlers

import (
	"log"

	"github.com/eventzx/messaging/internal/handlers/ws"
	"github.com/eventzx/messaging/internal/realtime"
	"github.com/gofiber/websocket/v2"
)

type WebSocketHandler struct {
	hub *ws.Hub
}

func NewWebSocketHandler(broker realtime.Broker) *WebSocketHandler {
	return &WebSocketHandler{
		hub: ws.NewHub(broker),
	}
}

// GetHub returns the hub instance.
func (h *WebSocketHandler) GetHub() *ws.Hub {
	return h.hub
}

// HandleWebSocket attaches a connected client to its event feed. The socket
// is push-only: clients send messages over the HTTP API, and the read loop
// here exists to service pings and detect disconnects.
func (h *WebSocketHandler) HandleWebSocket(c *websocket.Conn) {
	userID := c.Locals("userID").(uint)

	supportsGzip := c.Query("gzip") == "1" || c.Headers("X-Supports-Gzip") == "1"

	if err := h.hub.Register(userID, c, supportsGzip); err != nil {
		log.Printf("Failed to register user %d: %v", userID, err)
		return
	}

	defer h.hub.Unregister(userID)

	log.Printf("User %d connected via WebSocket", userID)

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}

	log.Printf("User %d disconnected from WebSocket", userID)
}
