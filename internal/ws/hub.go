package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	sendBuffer   = 256
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	maxMessage   = 4096
)

// Client represents a connected WebSocket client
type Client struct {
	conn      *websocket.Conn
	playerID  string
	sessionID string
	send      chan []byte

	mu     sync.Mutex
	closed bool
}

func newClient(conn *websocket.Conn, playerID, sessionID string) *Client {
	return &Client{
		conn:      conn,
		playerID:  playerID,
		sessionID: sessionID,
		send:      make(chan []byte, sendBuffer),
	}
}

// enqueue queues data without blocking. It reports false when the client is
// closed or its buffer is full.
func (c *Client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		log.Warn().Str("component", "ws").Str("player", c.playerID).Msg("send buffer full, dropping message")
		return false
	}
}

func (c *Client) sendJSON(message interface{}) bool {
	data, err := json.Marshal(message)
	if err != nil {
		log.Error().Err(err).Str("component", "ws").Msg("marshal message")
		return false
	}
	return c.enqueue(data)
}

// sendError sends an error message to the client
func (c *Client) sendError(message string) {
	c.sendJSON(map[string]interface{}{
		"type":    "error",
		"message": message,
	})
}

// close stops writePump. Safe to call more than once.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				// Best-effort close frame; the conn may already be gone.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Debug().Err(err).Str("component", "ws").Str("player", c.playerID).Msg("write failed")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("component", "ws").Str("player", c.playerID).Msg("ping failed")
				return
			}
		}
	}
}

// Hub maintains the set of active clients, one per player.
type Hub struct {
	clients map[string]*Client // playerID -> Client
	mu      sync.RWMutex
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

// Register adds c, closing any older connection of the same player.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	old := h.clients[c.playerID]
	h.clients[c.playerID] = c
	h.mu.Unlock()
	if old != nil && old != c {
		log.Info().Str("component", "ws").Str("player", c.playerID).Msg("replacing existing connection")
		old.close()
	}
}

// Unregister removes c if it is still the player's current client.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if h.clients[c.playerID] == c {
		delete(h.clients, c.playerID)
	}
	h.mu.Unlock()
	c.close()
}

// ClientCount is the number of connected players.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SendToPlayer sends a message to a specific player
func (h *Hub) SendToPlayer(playerID string, message interface{}) bool {
	h.mu.RLock()
	client, ok := h.clients[playerID]
	h.mu.RUnlock()
	if !ok {
		log.Debug().Str("component", "ws").Str("player", playerID).Msg("no client for player")
		return false
	}
	return client.sendJSON(message)
}

// Broadcast sends a pre-encoded message to every client.
func (h *Hub) Broadcast(data []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	sent := 0
	for _, c := range h.clients {
		if c.enqueue(data) {
			sent++
		}
	}
	return sent
}
