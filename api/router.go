// Package api wires the HTTP surface.
package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/jobscout/api/handler"
	"github.com/use-agent/jobscout/api/middleware"
	"github.com/use-agent/jobscout/config"
	"github.com/use-agent/jobscout/store"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health stays outside auth so monitoring probes always work. The jobs
// routes exist only when st is non-nil. ctx bounds the rate limiter's
// background sweep.
func NewRouter(ctx context.Context, sc handler.Scraper, st store.Store, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")
	v1.GET("/health", handler.Health(sc))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(ctx, cfg.RateLimit))

	protected.POST("/search", handler.Search(sc))

	if st != nil {
		protected.GET("/jobs", handler.ListJobs(st))
		protected.GET("/jobs/:id", handler.GetJob(st))
	}

	return r
}
