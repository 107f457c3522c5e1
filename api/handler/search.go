package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/jobscout/engine"
	"github.com/use-agent/jobscout/models"
	"github.com/use-agent/jobscout/query"
	"github.com/use-agent/jobscout/webhook"
)

const streamBuffer = 64

// Search returns a handler for POST /api/v1/search.
//
// The request is validated up front so malformed queries get a 400. After
// that the run's events are streamed as Server-Sent Events until the run
// returns; the event name is the event type and the data is the same JSON
// payload the webhook forwarder sends.
func Search(sc Scraper) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, models.ErrCodeInvalidInput, err.Error())
			return
		}
		if _, err := query.Plan(req.Queries, req.Options); err != nil {
			respondError(c, http.StatusBadRequest, models.ErrorCode(err), err.Error())
			return
		}

		ctx := c.Request.Context()
		events := make(chan engine.Event, streamBuffer)
		sink := engine.SinkFunc(func(e engine.Event) {
			select {
			case events <- e:
			case <-ctx.Done():
			}
		})

		go func() {
			defer close(events)
			if err := sc.Search(ctx, req.Queries, req.Options, sink); err != nil && !errors.Is(err, context.Canceled) {
				slog.Warn("search run failed", "error", err)
			}
		}()

		// Same value c.SSEvent writes, so a stream with no events still
		// carries it.
		c.Header("Content-Type", "text/event-stream;charset=utf-8")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")
		c.Status(http.StatusOK)
		c.Writer.Flush()

		for {
			select {
			case e, ok := <-events:
				if !ok {
					return
				}
				c.SSEvent(string(e.Type), webhook.FromEngine(e))
				c.Writer.Flush()
			case <-ctx.Done():
				// Drain so the run goroutine is never left blocked.
				for range events {
				}
				return
			}
		}
	}
}
