package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pokestack/backend/internal/auth"
	"github.com/pokestack/backend/internal/game"
)

// SnapshotReader finds live or persisted session snapshots.
type SnapshotReader interface {
	Snapshot(ctx context.Context, sessionID string) (game.StoredSnapshot, error)
}

// GetSessionSnapshot returns the caller's session state.
func GetSessionSnapshot(sessions SnapshotReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := sessions.Snapshot(c.Request.Context(), c.Param("id"))
		if errors.Is(err, game.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session storage unavailable"})
			return
		}
		// Other players' sessions are reported as missing.
		if snap.PlayerID != auth.PlayerID(c) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}
