package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/timshannon/badgerhold/v4"
	"github.com/use-agent/jobscout/models"
)

// Badger is a file-backed Store.
type Badger struct {
	store *badgerhold.Store
}

// OpenBadger opens (or creates) the database at path.
func OpenBadger(path string) (*Badger, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil

	slog.Debug("opening badger database", "path", path)
	st, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	return &Badger{store: st}, nil
}

func (b *Badger) Contains(ctx context.Context, id string) (bool, error) {
	_, err := b.Read(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

func (b *Badger) Save(_ context.Context, job *models.Job) error {
	if err := validateJob(job); err != nil {
		return err
	}
	if err := b.store.Upsert(job.JobID, job); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	return nil
}

func (b *Badger) Read(_ context.Context, id string) (*models.Job, error) {
	var job models.Job
	if err := b.store.Get(id, &job); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

func (b *Badger) List(context.Context) ([]string, error) {
	var jobs []models.Job
	if err := b.store.Find(&jobs, nil); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	ids := make([]string, 0, len(jobs))
	for _, j := range jobs {
		ids = append(ids, j.JobID)
	}
	sort.Strings(ids)
	return ids, nil
}

func (b *Badger) Close() error {
	if b.store != nil {
		return b.store.Close()
	}
	return nil
}
