package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/use-agent/jobscout/models"
)

// ErrPollTimeout matches (errors.Is) every readiness poll timeout.
var ErrPollTimeout = models.NewScrapeError(models.ErrCodeTimeout, "", nil)

// PollConfig bounds a readiness poll.
type PollConfig struct {
	Interval time.Duration
	Timeout  time.Duration
}

// Named poll configurations.
var (
	// ItemGrowthPoll waits for more cards after an under-filled page.
	ItemGrowthPoll = PollConfig{Interval: 50 * time.Millisecond, Timeout: 2 * time.Second}

	// DetailPoll waits for the detail panel of a selected card.
	DetailPoll = PollConfig{Interval: 50 * time.Millisecond, Timeout: 2 * time.Second}

	// PaginationPoll waits for cards after navigating to a new offset.
	PaginationPoll = PollConfig{Interval: 100 * time.Millisecond, Timeout: 2 * time.Second}

	// ApplyLinkPoll waits for the external apply target to open.
	ApplyLinkPoll = PollConfig{Interval: 100 * time.Millisecond, Timeout: 4 * time.Second}
)

// Poll sleeps one interval, then evaluates check until it reports ready or
// the timeout elapses. Evaluation errors are treated as "not ready yet".
// On timeout the returned error matches ErrPollTimeout.
func Poll[T any](ctx context.Context, cfg PollConfig, what string, check func(ctx context.Context) (T, bool, error)) (T, error) {
	var zero T
	start := time.Now()

	if err := sleep(ctx, cfg.Interval); err != nil {
		return zero, err
	}

	for {
		value, ok, err := check(ctx)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return zero, ctx.Err()
			}
			slog.Debug("poll check failed, retrying", "poll", what, "error", err)
		case ok:
			return value, nil
		}

		if time.Since(start) >= cfg.Timeout {
			return zero, models.NewScrapeError(models.ErrCodeTimeout, "timeout on "+what, nil)
		}
		if err := sleep(ctx, cfg.Interval); err != nil {
			return zero, err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
