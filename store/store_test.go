package store

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/jobscout/config"
	"github.com/use-agent/jobscout/engine"
	"github.com/use-agent/jobscout/models"
)

func sampleJob(id string) *models.Job {
	return &models.Job{
		Query:    "engineer",
		Location: "Berlin",
		JobID:    id,
		Title:    "Backend Engineer",
		Company:  "Acme",
		Date:     "2026-10-17",
		Insights: []string{"Full-time"},
	}
}

// exerciseStore runs the behaviour every driver shares.
func exerciseStore(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()

	ok, err := st.Contains(ctx, "1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = st.Read(ctx, "1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.Save(ctx, sampleJob("2")))
	require.NoError(t, st.Save(ctx, sampleJob("1")))

	ok, err = st.Contains(ctx, "1")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := st.Read(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Backend Engineer", got.Title)
	assert.Equal(t, []string{"Full-time"}, got.Insights)

	// Saving again replaces the record.
	updated := sampleJob("1")
	updated.Title = "Staff Engineer"
	require.NoError(t, st.Save(ctx, updated))
	got, err = st.Read(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Staff Engineer", got.Title)

	ids, err := st.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, ids)

	assert.Error(t, st.Save(ctx, &models.Job{}))
	assert.Error(t, st.Save(ctx, nil))
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestBadger(t *testing.T) {
	st, err := OpenBadger(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	exerciseStore(t, st)
}

func TestBadger_Reopen(t *testing.T) {
	dir := t.TempDir()
	st, err := OpenBadger(dir)
	require.NoError(t, err)
	require.NoError(t, st.Save(context.Background(), sampleJob("42")))
	require.NoError(t, st.Close())

	st, err = OpenBadger(dir)
	require.NoError(t, err)
	defer st.Close()
	ok, err := st.Contains(context.Background(), "42")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedis(t *testing.T) {
	url := os.Getenv("JOBSCOUT_TEST_REDIS_URL")
	if url == "" {
		t.Skip("JOBSCOUT_TEST_REDIS_URL not set")
	}
	st, err := OpenRedis(context.Background(), url, "jobscout-test-"+t.Name())
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx := context.Background()
		ids, _ := st.List(ctx)
		for _, id := range ids {
			st.client.Del(ctx, st.jobKey(id))
		}
		st.client.Del(ctx, st.indexKey())
		_ = st.Close()
	})
	exerciseStore(t, st)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	st, err := Open(ctx, config.StoreConfig{Driver: "none"})
	require.NoError(t, err)
	assert.Nil(t, st)

	st, err = Open(ctx, config.StoreConfig{Driver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, st)

	st, err = Open(ctx, config.StoreConfig{Driver: "badger", Path: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &Badger{}, st)
	require.NoError(t, st.Close())

	_, err = Open(ctx, config.StoreConfig{Driver: "sqlite"})
	assert.Error(t, err)

	_, err = Open(ctx, config.StoreConfig{Driver: "redis", RedisURL: "not a url"})
	assert.Error(t, err)
}

func TestPersist(t *testing.T) {
	st := NewMemory()
	persist := Persist(st)

	persist(engine.Event{Type: engine.EventData, Job: sampleJob("7")})
	persist(engine.Event{Type: engine.EventData, Job: &models.Job{Title: "no id"}})
	persist(engine.Event{Type: engine.EventMetrics, Metrics: &models.Metrics{Processed: 1}})

	ids, err := st.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"7"}, ids)
}

func TestStoreSatisfiesDedup(t *testing.T) {
	var _ engine.Dedup = NewMemory()
	var _ engine.Dedup = (*Badger)(nil)
	var _ engine.Dedup = (*Redis)(nil)
}
