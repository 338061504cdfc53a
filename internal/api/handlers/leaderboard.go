package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/pokestack/backend/internal/auth"
	"github.com/pokestack/backend/internal/leaderboard"
	"github.com/pokestack/backend/internal/profile"
)

// GetLeaderboard returns the top entries.
func GetLeaderboard(board *leaderboard.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

		entries, err := board.Top(c.Request.Context(), limit)
		if err != nil {
			log.Warn().Err(err).Str("component", "leaderboard").Msg("fetch top")
			c.JSON(http.StatusServiceUnavailable, gin.H{"available": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"available": true, "entries": entries})
	}
}

// GetRank returns where the caller's highscore sits in the top list.
func GetRank(profiles *profile.Service, board *leaderboard.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		p, err := profiles.Load(ctx, auth.PlayerID(c))
		if errors.Is(err, profile.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"onboarding": true})
			return
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "profile storage unavailable"})
			return
		}

		rank, err := board.Rank(ctx, p.Username, p.Highscore)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"available": false, "highscore": p.Highscore})
			return
		}
		c.JSON(http.StatusOK, gin.H{"available": true, "rank": rank, "highscore": p.Highscore})
	}
}
