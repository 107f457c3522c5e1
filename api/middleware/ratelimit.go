package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/jobscout/config"
	"github.com/use-agent/jobscout/models"
	"golang.org/x/time/rate"
)

const (
	limiterIdle  = time.Hour
	limiterSweep = 5 * time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiters is a per-identity token bucket set.
type limiters struct {
	cfg     config.RateLimitConfig
	mu      sync.Mutex
	entries map[string]*limiterEntry
}

func (l *limiters) get(identity string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[identity]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(l.cfg.RequestsPerSecond), l.cfg.Burst)}
		l.entries[identity] = e
	}
	e.lastSeen = now
	return e.limiter
}

// sweep drops identities idle since before cutoff.
func (l *limiters) sweep(cutoff time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, e := range l.entries {
		if e.lastSeen.Before(cutoff) {
			delete(l.entries, id)
		}
	}
}

// RateLimit returns per-identity token-bucket rate limiting middleware.
// The identity is the API key set by Auth, or the client IP. Idle
// identities are swept until ctx is done.
func RateLimit(ctx context.Context, cfg config.RateLimitConfig) gin.HandlerFunc {
	l := &limiters{cfg: cfg, entries: make(map[string]*limiterEntry)}

	go func() {
		ticker := time.NewTicker(limiterSweep)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				l.sweep(now.Add(-limiterIdle))
			}
		}
	}()

	return func(c *gin.Context) {
		identity := c.GetString(IdentityKey)
		if identity == "" {
			identity = c.ClientIP()
		}

		limiter := l.get(identity, time.Now())
		if !limiter.Allow() {
			if cfg.RequestsPerSecond > 0 {
				wait := math.Ceil(1 / cfg.RequestsPerSecond)
				c.Header("Retry-After", strconv.Itoa(int(wait)))
			}
			abort(c, http.StatusTooManyRequests, models.ErrCodeRateLimited, "rate limit exceeded, please slow down")
			return
		}
		c.Next()
	}
}
