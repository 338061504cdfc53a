package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pokestack/backend/internal/admin"
	"github.com/pokestack/backend/internal/leaderboard"
	"github.com/pokestack/backend/internal/middleware"
)

// RemoveLeaderboardEntry deletes a leaderboard entry and audits the action.
func RemoveLeaderboardEntry(board *leaderboard.Service, admins *admin.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		acc := middleware.AdminAccount(c)
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
			return
		}

		err = board.Remove(c.Request.Context(), id)
		admins.Audit(c.Request.Context(), acc.Phone, c.ClientIP(), c.FullPath(), "remove_leaderboard_entry",
			map[string]any{"entry_id": id}, err == nil)

		switch {
		case errors.Is(err, leaderboard.ErrEntryNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
		case err != nil:
			c.JSON(http.StatusServiceUnavailable, gin.H{"available": false})
		default:
			c.JSON(http.StatusOK, gin.H{"removed": id})
		}
	}
}

// GetAdminAuditLogs returns paginated audit log entries
func GetAdminAuditLogs(admins *admin.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

		logs, err := admins.AuditLogs(c.Request.Context(), limit, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch audit logs"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"logs": logs, "limit": limit, "offset": offset})
	}
}
