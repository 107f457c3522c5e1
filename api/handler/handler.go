// Package handler implements the HTTP endpoints.
package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/jobscout/engine"
	"github.com/use-agent/jobscout/models"
	"github.com/use-agent/jobscout/scraper"
)

// Scraper is the part of *scraper.Scraper the handlers use.
type Scraper interface {
	Search(ctx context.Context, queries []models.Query, overrides *models.QueryOptions, sink engine.Sink) error
	State() scraper.State
	Running() bool
	Uptime() time.Duration
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, models.ErrorResponse{
		Success: false,
		Error:   &models.ErrorDetail{Code: code, Message: message},
	})
}
