package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/jobscout/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Health returns a handler for GET /api/v1/health.
func Health(sc Scraper) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:       "healthy",
			Uptime:       sc.Uptime().Round(time.Second).String(),
			ScraperState: string(sc.State()),
			Running:      sc.Running(),
			Version:      Version,
		})
	}
}
