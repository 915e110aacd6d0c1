package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/ecocal/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Health returns a handler for GET /api/v1/health. Status is "busy" while
// a gather holds the browser, "idle" otherwise.
func Health(g interface{ Busy() bool }, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "idle"
		if g.Busy() {
			status = "busy"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Version: Version,
		})
	}
}
