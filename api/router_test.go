package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/jobscout/config"
	"github.com/use-agent/jobscout/engine"
	"github.com/use-agent/jobscout/models"
	"github.com/use-agent/jobscout/scraper"
	"github.com/use-agent/jobscout/store"
)

type fakeScraper struct {
	events  []engine.Event
	err     error
	queries []models.Query
}

func (f *fakeScraper) Search(_ context.Context, queries []models.Query, _ *models.QueryOptions, sink engine.Sink) error {
	f.queries = queries
	for _, e := range f.events {
		sink.Emit(e)
	}
	return f.err
}

func (f *fakeScraper) State() scraper.State { return scraper.StateReady }
func (f *fakeScraper) Running() bool { return false }
func (f *fakeScraper) Uptime() time.Duration { return 90 * time.Second }

func testConfig(keys ...string) *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Mode: gin.TestMode},
		Auth:      config.AuthConfig{Enabled: len(keys) > 0, APIKeys: keys},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 100, Burst: 100},
	}
}

func do(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type sseFrame struct {
	event string
	data  string
}

func parseSSE(t *testing.T, body string) []sseFrame {
	t.Helper()
	var frames []sseFrame
	var cur sseFrame
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			cur.event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			cur.data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		case line == "" && cur.event != "":
			frames = append(frames, cur)
			cur = sseFrame{}
		}
	}
	if cur.event != "" {
		frames = append(frames, cur)
	}
	return frames
}

func TestHealth_NoAuth(t *testing.T) {
	r := NewRouter(t.Context(), &fakeScraper{}, nil, testConfig("k"))
	w := do(r, http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "ready", resp.ScraperState)
	assert.Equal(t, "1m30s", resp.Uptime)
}

func TestSearch_StreamsEvents(t *testing.T) {
	sc := &fakeScraper{events: []engine.Event{
		{Type: engine.EventData, RunID: "r", Query: "go", Location: "Paris", Job: &models.Job{JobID: "1", Title: "Gopher"}},
		{Type: engine.EventMetrics, RunID: "r", Metrics: &models.Metrics{Processed: 1}},
		{Type: engine.EventEnd, RunID: "r"},
	}}
	r := NewRouter(t.Context(), sc, nil, testConfig())

	w := do(r, http.MethodPost, "/api/v1/search", `{"queries":[{"query":"go","options":{"locations":["Paris"]}}]}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/event-stream"), w.Header().Get("Content-Type"))
	require.Len(t, sc.queries, 1)
	assert.Equal(t, "go", sc.queries[0].Text)

	frames := parseSSE(t, w.Body.String())
	require.Len(t, frames, 3)
	assert.Equal(t, "data", frames[0].event)
	assert.Equal(t, "metrics", frames[1].event)
	assert.Equal(t, "end", frames[2].event)

	var payload struct {
		Type string     `json:"type"`
		Data models.Job `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(frames[0].data), &payload))
	assert.Equal(t, "Gopher", payload.Data.Title)
}

func TestSearch_ErrorEvent(t *testing.T) {
	err := models.NewScrapeError(models.ErrCodeBrowserCrash, "gone", nil)
	sc := &fakeScraper{events: []engine.Event{{Type: engine.EventError, Err: err}}, err: err}
	r := NewRouter(t.Context(), sc, nil, testConfig())

	w := do(r, http.MethodPost, "/api/v1/search", `{"queries":[{"query":"go"}]}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	frames := parseSSE(t, w.Body.String())
	require.Len(t, frames, 1)
	assert.Equal(t, "error", frames[0].event)
	assert.Contains(t, frames[0].data, models.ErrCodeBrowserCrash)
}

func TestSearch_BadRequest(t *testing.T) {
	r := NewRouter(t.Context(), &fakeScraper{}, nil, testConfig())

	tests := []struct {
		name string
		body string
		code string
	}{
		{"malformed json", `{`, models.ErrCodeInvalidInput},
		{"no queries", `{"queries":[]}`, models.ErrCodeInvalidInput},
		{"negative limit", `{"queries":[{"query":"go","options":{"limit":-1}}]}`, models.ErrCodeValidation},
		{"bad filter", `{"queries":[{"query":"go","options":{"filters":{"time":"yesterday"}}}]}`, models.ErrCodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/api/v1/search", tt.body, nil)
			require.Equal(t, http.StatusBadRequest, w.Code)
			var resp models.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestAuth(t *testing.T) {
	r := NewRouter(t.Context(), &fakeScraper{}, store.NewMemory(), testConfig("secret"))

	w := do(r, http.MethodGet, "/api/v1/jobs", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodGet, "/api/v1/jobs", "", map[string]string{"X-API-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodGet, "/api/v1/jobs", "", map[string]string{"X-API-Key": "secret"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/api/v1/jobs", "", map[string]string{"Authorization": "Bearer secret"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig("k")
	cfg.RateLimit = config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1}
	r := NewRouter(t.Context(), &fakeScraper{}, store.NewMemory(), cfg)
	h := map[string]string{"X-API-Key": "k"}

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/v1/jobs", "", h).Code)
	w := do(r, http.MethodGet, "/api/v1/jobs", "", h)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestJobs(t *testing.T) {
	st := store.NewMemory()
	require.NoError(t, st.Save(context.Background(), &models.Job{JobID: "b", Title: "B"}))
	require.NoError(t, st.Save(context.Background(), &models.Job{JobID: "a", Title: "A"}))
	r := NewRouter(t.Context(), &fakeScraper{}, st, testConfig())

	w := do(r, http.MethodGet, "/api/v1/jobs", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list models.JobListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, []string{"a", "b"}, list.IDs)
	assert.Equal(t, 2, list.Total)

	w = do(r, http.MethodGet, "/api/v1/jobs/a", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var one models.JobResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &one))
	assert.Equal(t, "A", one.Job.Title)

	w = do(r, http.MethodGet, "/api/v1/jobs/zzz", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestJobs_NoStore(t *testing.T) {
	r := NewRouter(t.Context(), &fakeScraper{}, nil, testConfig())
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/v1/jobs", "", nil).Code)
}
