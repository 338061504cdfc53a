package api

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/pokestack/backend/internal/admin"
	"github.com/pokestack/backend/internal/api/handlers"
	"github.com/pokestack/backend/internal/auth"
	"github.com/pokestack/backend/internal/config"
	"github.com/pokestack/backend/internal/game"
	"github.com/pokestack/backend/internal/leaderboard"
	"github.com/pokestack/backend/internal/middleware"
	"github.com/pokestack/backend/internal/profile"
	"github.com/pokestack/backend/internal/ws"
)

// Deps are the services the routes are built on.
type Deps struct {
	Profiles    *profile.Service
	Leaderboard *leaderboard.Service
	Tokens      *auth.Tokens
	Sessions    *game.Manager
	Hub         *ws.Hub
	Admins      *admin.Service
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, d Deps, cfg *config.Config) {
	router.Use(middleware.CORSMiddleware(cfg))

	if !cfg.IsProduction() {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Debug().Str("component", "api").Msg("no-cache headers enabled")
	}

	requirePlayer := auth.Middleware(d.Tokens)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck(d.Sessions.ActiveCount))

		v1.POST("/profile", handlers.CreateProfile(d.Profiles, d.Tokens))
		me := v1.Group("/profile", requirePlayer)
		{
			me.GET("", handlers.GetProfile(d.Profiles))
			me.PUT("/username", handlers.UpdateUsername(d.Profiles))
		}

		v1.GET("/leaderboard", handlers.GetLeaderboard(d.Leaderboard))
		v1.GET("/leaderboard/rank", requirePlayer, handlers.GetRank(d.Profiles, d.Leaderboard))

		session := v1.Group("/session")
		{
			session.GET("/ws", middleware.WebSocketCORSCheck(cfg), requirePlayer,
				ws.NewSessionHandler(d.Hub, d.Sessions).Serve)
			session.GET("/:id", requirePlayer, handlers.GetSessionSnapshot(d.Sessions))
		}

		adm := v1.Group("/admin", middleware.AdminAuth(d.Admins, admin.RoleModerator))
		{
			adm.DELETE("/leaderboard/:id", handlers.RemoveLeaderboardEntry(d.Leaderboard, d.Admins))
			adm.GET("/audit", handlers.GetAdminAuditLogs(d.Admins))
		}
	}
}
