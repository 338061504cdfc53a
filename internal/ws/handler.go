package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/pokestack/backend/internal/auth"
	"github.com/pokestack/backend/internal/game"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origins are checked by middleware.WebSocketCORSCheck
	},
}

// Sessions opens game sessions for players.
type Sessions interface {
	Open(playerID string) (*game.Runner, error)
}

// SessionHandler upgrades a player's request and connects it to their session.
type SessionHandler struct {
	hub      *Hub
	sessions Sessions
}

func NewSessionHandler(hub *Hub, sessions Sessions) *SessionHandler {
	return &SessionHandler{hub: hub, sessions: sessions}
}

// Serve expects auth.Middleware to have run.
func (h *SessionHandler) Serve(c *gin.Context) {
	playerID := auth.PlayerID(c)
	if playerID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	runner, err := h.sessions.Open(playerID)
	if errors.Is(err, game.ErrTooManySessions) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "server is full, try again later"})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("component", "ws").Str("player", playerID).Msg("open session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not open session"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("component", "ws").Str("player", playerID).Msg("upgrade failed")
		return
	}

	client := newClient(conn, playerID, runner.ID)
	h.hub.Register(client)
	events, unsubscribe := runner.Subscribe(sendBuffer)
	log.Info().Str("component", "ws").Str("player", playerID).Str("session", runner.ID).Msg("client connected")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	snap, err := runner.Snapshot(ctx)
	cancel()
	if err == nil {
		client.sendJSON(gin.H{"type": "session", "session_id": runner.ID, "snapshot": snap})
	}

	go client.writePump()
	go forwardEvents(client, events)

	readPump(client, runner)

	unsubscribe()
	h.hub.Unregister(client)
	log.Info().Str("component", "ws").Str("player", playerID).Str("session", runner.ID).Msg("client disconnected")
}

// forwardEvents relays session events until the subscription closes, then
// closes the client so readPump returns.
func forwardEvents(c *Client, events <-chan game.Event) {
	for e := range events {
		c.sendJSON(e)
	}
	c.sendJSON(gin.H{"type": "session_closed"})
	c.close()
}

// readPump feeds client messages into the session until the connection drops.
func readPump(c *Client, runner *game.Runner) {
	c.conn.SetReadLimit(maxMessage)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("component", "ws").Str("player", c.playerID).Msg("read failed")
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		in, err := decodeInput(raw)
		if err != nil {
			log.Debug().Err(err).Str("component", "ws").Str("player", c.playerID).Msg("ignoring message")
			c.sendError(err.Error())
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		err = runner.Send(ctx, in)
		cancel()
		if errors.Is(err, game.ErrRunnerStopped) {
			c.sendError("session ended")
			return
		}
	}
}
