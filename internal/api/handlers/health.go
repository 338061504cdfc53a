package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

const version = "1.0.0"

// HealthCheck returns server health status. active may be nil.
func HealthCheck(active func() int) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{
			"status":  "ok",
			"service": "pokestack-api",
			"version": version,
			"uptime":  time.Since(startTime).String(),
		}
		if active != nil {
			body["active_sessions"] = active()
		}
		c.JSON(http.StatusOK, body)
	}
}
