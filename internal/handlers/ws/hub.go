package ws

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/eventzx/messaging/internal/realtime"
	"github.com/gofiber/websocket/v2"
)

// ClientConnection wraps a WebSocket connection with metadata and the broker
// subscription that feeds it.
type ClientConnection struct {
	Conn         *websocket.Conn
	UserID       uint
	LastPong     time.Time
	SupportsGzip bool
	PingTicker   *time.Ticker
	CloseChan    chan struct{}
	Sub          *realtime.Subscription

	writeMu sync.Mutex
}

// Hub manages active WebSocket connections and relays realtime events to
// them. One connection per user; a newer connection replaces the old one.
type Hub struct {
	clients      map[uint]*ClientConnection
	clientsMux   sync.RWMutex
	broker       realtime.Broker
	pingInterval time.Duration
	pongTimeout  time.Duration
}

func NewHub(broker realtime.Broker) *Hub {
	hub := &Hub{
		clients:      make(map[uint]*ClientConnection),
		broker:       broker,
		pingInterval: 30 * time.Second,
		pongTimeout:  90 * time.Second,
	}

	go hub.connectionHealthChecker()

	return hub
}

// Register adds a client connection, subscribes it to the user's event topic
// and starts health monitoring.
func (h *Hub) Register(userID uint, conn *websocket.Conn, supportsGzip bool) error {
	clientConn := &ClientConnection{
		Conn:         conn,
		UserID:       userID,
		LastPong:     time.Now(),
		SupportsGzip: supportsGzip,
		PingTicker:   time.NewTicker(h.pingInterval),
		CloseChan:    make(chan struct{}),
	}

	sub, err := h.broker.Subscribe(realtime.UserTopic(userID), func(ev realtime.Event) {
		if err := h.writeEvent(clientConn, ev); err != nil {
			log.Printf("Error sending event to user %d: %v", userID, err)
			h.dropConnection(clientConn)
		}
	})
	if err != nil {
		clientConn.PingTicker.Stop()
		return err
	}
	clientConn.Sub = sub

	conn.SetPongHandler(func(appData string) error {
		h.clientsMux.Lock()
		if client, exists := h.clients[userID]; exists {
			client.LastPong = time.Now()
		}
		h.clientsMux.Unlock()
		conn.SetReadDeadline(time.Now().Add(h.pongTimeout))
		return nil
	})

	conn.SetReadDeadline(time.Now().Add(h.pongTimeout))

	h.clientsMux.Lock()
	if old, exists := h.clients[userID]; exists {
		h.teardown(old)
	}
	h.clients[userID] = clientConn
	total := len(h.clients)
	h.clientsMux.Unlock()

	go h.pingRoutine(clientConn)

	log.Printf("User %d connected to hub (total: %d, gzip: %v)", userID, total, supportsGzip)
	return nil
}

// Unregister removes a client connection and releases its subscription. Safe
// to call more than once.
func (h *Hub) Unregister(userID uint) {
	h.clientsMux.Lock()
	client, exists := h.clients[userID]
	if exists {
		h.teardown(client)
		delete(h.clients, userID)
	}
	count := len(h.clients)
	h.clientsMux.Unlock()

	if exists {
		log.Printf("User %d disconnected from hub (total: %d)", userID, count)
	}
}

// dropConnection removes a specific connection. A write failure on a stale
// connection that Register already replaced must not tear down the current
// one, so the map entry is only deleted when it still points at this client.
func (h *Hub) dropConnection(client *ClientConnection) {
	h.clientsMux.Lock()
	current, exists := h.clients[client.UserID]
	if exists && current == client {
		h.teardown(client)
		delete(h.clients, client.UserID)
	}
	h.clientsMux.Unlock()
}

// teardown is called with clientsMux held.
func (h *Hub) teardown(client *ClientConnection) {
	if client.Sub != nil {
		client.Sub.Unsubscribe()
	}
	if client.PingTicker != nil {
		client.PingTicker.Stop()
	}
	select {
	case <-client.CloseChan:
	default:
		close(client.CloseChan)
	}
}

// IsOnline checks if a user is connected.
func (h *Hub) IsOnline(userID uint) bool {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	_, exists := h.clients[userID]
	return exists
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	return len(h.clients)
}

// writeEvent serializes an event and writes it to the client, gzip-compressing
// large frames when the client advertised support.
func (h *Hub) writeEvent(client *ClientConnection, ev realtime.Event) error {
	jsonData, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	finalData := jsonData
	frameType := websocket.TextMessage
	if client.SupportsGzip && len(jsonData) > 512 {
		if compressed, err := compressData(jsonData); err == nil && len(compressed) < len(jsonData) {
			finalData = compressed
			frameType = websocket.BinaryMessage
		}
	}

	client.writeMu.Lock()
	defer client.writeMu.Unlock()
	return client.Conn.WriteMessage(frameType, finalData)
}

// pingRoutine sends periodic ping messages to keep the connection alive.
func (h *Hub) pingRoutine(client *ClientConnection) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Ping routine recovered from panic for user %d: %v", client.UserID, r)
		}
	}()

	for {
		select {
		case <-client.CloseChan:
			return
		case <-client.PingTicker.C:
			h.clientsMux.RLock()
			current, exists := h.clients[client.UserID]
			h.clientsMux.RUnlock()

			if !exists || current != client {
				return
			}

			if err := client.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
				log.Printf("Ping failed for user %d: %v", client.UserID, err)
				h.dropConnection(client)
				return
			}
		}
	}
}

// connectionHealthChecker removes connections that stopped answering pings.
func (h *Hub) connectionHealthChecker() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		h.clientsMux.RLock()
		deadConnections := make([]uint, 0)
		now := time.Now()

		for userID, client := range h.clients {
			if now.Sub(client.LastPong) > h.pongTimeout {
				deadConnections = append(deadConnections, userID)
			}
		}
		h.clientsMux.RUnlock()

		for _, userID := range deadConnections {
			log.Printf("Removing dead connection for user %d (no pong received)", userID)
			h.Unregister(userID)
		}
	}
}

func compressData(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)

	if _, err := gzipWriter.Write(data); err != nil {
		return nil, err
	}

	if err := gzipWriter.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
