package store

import (
	"context"
	"sort"
	"sync"

	"github.com/use-agent/jobscout/models"
)

// Memory is an in-process Store. Contents are lost on exit.
type Memory struct {
	mu   sync.RWMutex
	jobs map[string]models.Job
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{jobs: make(map[string]models.Job)}
}

func (m *Memory) Contains(_ context.Context, id string) (bool, error) {
	m.mu.RLock()
	_, ok := m.jobs[id]
	m.mu.RUnlock()
	return ok, nil
}

func (m *Memory) Save(_ context.Context, job *models.Job) error {
	if err := validateJob(job); err != nil {
		return err
	}
	m.mu.Lock()
	m.jobs[job.JobID] = *job
	m.mu.Unlock()
	return nil
}

func (m *Memory) Read(_ context.Context, id string) (*models.Job, error) {
	m.mu.RLock()
	job, ok := m.jobs[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return &job, nil
}

func (m *Memory) List(context.Context) ([]string, error) {
	m.mu.RLock()
	ids := make([]string, 0, len(m.jobs))
	for id := range m.jobs {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	sort.Strings(ids)
	return ids, nil
}

func (m *Memory) Close() error { return nil }
