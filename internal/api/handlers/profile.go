package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/pokestack/backend/internal/auth"
	"github.com/pokestack/backend/internal/profile"
)

type usernameRequest struct {
	Username string `json:"username" binding:"required"`
}

// CreateProfile onboards a player and issues their token.
func CreateProfile(profiles *profile.Service, tokens *auth.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req usernameRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username required"})
			return
		}

		p, err := profiles.Create(c.Request.Context(), req.Username)
		if errors.Is(err, profile.ErrInvalidUsername) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			log.Error().Err(err).Str("component", "profile").Msg("create profile")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "profile storage unavailable"})
			return
		}

		token, exp, err := tokens.Issue(p.PlayerID)
		if err != nil {
			log.Error().Err(err).Str("component", "auth").Msg("issue token")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"token": token, "expires_at": exp, "profile": p})
	}
}

// GetProfile returns the caller's profile, or onboarding when there is none.
func GetProfile(profiles *profile.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := profiles.Load(c.Request.Context(), auth.PlayerID(c))
		if errors.Is(err, profile.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"onboarding": true})
			return
		}
		if err != nil {
			log.Error().Err(err).Str("component", "profile").Msg("load profile")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "profile storage unavailable"})
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// UpdateUsername renames the caller.
func UpdateUsername(profiles *profile.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req usernameRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username required"})
			return
		}

		p, err := profiles.SetUsername(c.Request.Context(), auth.PlayerID(c), req.Username)
		switch {
		case errors.Is(err, profile.ErrInvalidUsername):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, profile.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"onboarding": true})
		case err != nil:
			log.Error().Err(err).Str("component", "profile").Msg("rename")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "profile storage unavailable"})
		default:
			c.JSON(http.StatusOK, p)
		}
	}
}
