// Package store persists extracted jobs and answers whether a job was
// already seen. The scraping engine never writes; records are saved by an
// event listener (see Persist).
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/jobscout/config"
	"github.com/use-agent/jobscout/engine"
	"github.com/use-agent/jobscout/models"
)

// ErrNotFound is returned by Read for unknown ids.
var ErrNotFound = errors.New("job not found")

// Store is the dedup store boundary. Implementations are safe for
// concurrent use.
type Store interface {
	Contains(ctx context.Context, id string) (bool, error)
	Save(ctx context.Context, job *models.Job) error
	Read(ctx context.Context, id string) (*models.Job, error)
	List(ctx context.Context) ([]string, error)
	Close() error
}

// Open selects a Store by cfg.Driver. The "none" driver returns a nil
// Store and no error.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", "none":
		return nil, nil
	case "memory":
		return NewMemory(), nil
	case "badger":
		return OpenBadger(cfg.Path)
	case "redis":
		return OpenRedis(ctx, cfg.RedisURL, cfg.KeyPrefix)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// saveTimeout bounds a single Persist write.
const saveTimeout = 5 * time.Second

// Persist returns a data listener that saves every emitted job. Save
// failures are logged and never interrupt the run.
func Persist(st Store) func(engine.Event) {
	return func(e engine.Event) {
		if e.Type != engine.EventData || e.Job == nil {
			return
		}
		if e.Job.JobID == "" {
			slog.Debug("job without id not persisted", "query", e.Query, "location", e.Location)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if err := st.Save(ctx, e.Job); err != nil {
			slog.Warn("failed to persist job", "job_id", e.Job.JobID, "error", err)
		}
	}
}

func validateJob(job *models.Job) error {
	if job == nil || job.JobID == "" {
		return errors.New("job id is required")
	}
	return nil
}
