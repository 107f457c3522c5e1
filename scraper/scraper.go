// Package scraper owns the browser and runs planned queries through the
// engine, one (query, location) tab at a time.
package scraper

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/use-agent/jobscout/config"
	"github.com/use-agent/jobscout/engine"
	"github.com/use-agent/jobscout/models"
	"github.com/use-agent/jobscout/query"
)

// State is the browser lifecycle state.
type State string

const (
	StateIdle         State = "idle"
	StateInitializing State = "initializing"
	StateReady        State = "ready"
)

// DefaultInitTimeout bounds the wait for an initialisation started by
// another caller.
const DefaultInitTimeout = 10 * time.Second

// Options carries the dependencies of a Scraper.
type Options struct {
	// Launch starts the browser. Defaults to LaunchRod.
	Launch LaunchFunc

	// Dedup skips listings already stored. May be nil.
	Dedup engine.Dedup

	// Engine overrides controller timings; zero fields keep defaults.
	Engine engine.Options
}

// Scraper manages the browser lifecycle and serialises runs.
// It is safe for concurrent use.
type Scraper struct {
	browserCfg config.BrowserConfig
	scraperCfg config.ScraperConfig
	launch     LaunchFunc
	strategy   engine.Strategy
	emitter    *engine.Emitter

	mu      sync.Mutex
	state   State
	browser Browser
	ready   chan struct{}
	initErr error
	queued  int // runs waiting on runMu

	runMu   sync.Mutex
	runSink engine.Sink // guarded by runMu

	running   atomic.Bool
	exit      atomic.Bool
	startTime time.Time
}

// New creates a Scraper. The browser is started lazily by the first Run.
func New(browserCfg config.BrowserConfig, scraperCfg config.ScraperConfig, session config.SessionConfig, opts Options) (*Scraper, error) {
	s := &Scraper{
		browserCfg: browserCfg,
		scraperCfg: scraperCfg,
		launch:     opts.Launch,
		emitter:    engine.NewEmitter(),
		state:      StateIdle,
		startTime:  time.Now(),
	}
	if s.launch == nil {
		s.launch = LaunchRod
	}
	if s.scraperCfg.SearchURL == "" {
		s.scraperCfg.SearchURL = query.DefaultSearchURL
	}
	if s.scraperCfg.InitTimeout <= 0 {
		s.scraperCfg.InitTimeout = DefaultInitTimeout
	}

	eopts := opts.Engine
	eopts.HomeURL = scraperCfg.HomeURL
	eopts.PageSize = scraperCfg.PageSize
	eopts.CollectionTimeout = scraperCfg.CollectionTimeout
	eopts.SessionCookieName = session.CookieName
	if session.Cookie != "" {
		eopts.SessionCookie = &http.Cookie{
			Name:     session.CookieName,
			Value:    session.Cookie,
			Domain:   session.Domain,
			Path:     "/",
			Secure:   true,
			HttpOnly: true,
		}
	}
	eopts.ShouldExit = s.exit.Load

	strategy, err := engine.NewStrategy(engine.StrategyKind(scraperCfg.Strategy), eopts, engine.SinkFunc(s.dispatch), opts.Dedup)
	if err != nil {
		return nil, err
	}
	s.strategy = strategy
	return s, nil
}

// On registers fn for events of type t and returns a function removing it.
// Listeners run synchronously on the scraping goroutine.
func (s *Scraper) On(t engine.EventType, fn func(engine.Event)) (off func()) {
	return s.emitter.On(t, fn)
}

// RunOption configures a single Run.
type RunOption func(*runOptions)

type runOptions struct {
	runID string
	sink  engine.Sink
}

// WithSink adds a sink receiving only this run's events.
func WithSink(sink engine.Sink) RunOption {
	return func(o *runOptions) { o.sink = sink }
}

// WithRunID sets the run identifier carried by every event.
func WithRunID(id string) RunOption {
	return func(o *runOptions) { o.runID = id }
}

// Run plans queries, starts the browser if needed and scrapes every
// (query, location) in order. Runs are serialised. Per-item failures are
// reported as error events; a returned error means the whole run failed,
// after which the browser has been closed.
func (s *Scraper) Run(ctx context.Context, queries []models.Query, overrides *models.QueryOptions, opts ...RunOption) error {
	ro := runOptions{runID: uuid.NewString()}
	for _, o := range opts {
		o(&ro)
	}
	emit := func(e engine.Event) {
		e.RunID = ro.runID
		s.emitter.Emit(e)
		if ro.sink != nil {
			ro.sink.Emit(e)
		}
	}

	planned, err := query.Plan(queries, overrides)
	if err != nil {
		return s.fail(emit, err)
	}
	if err := s.init(ctx); err != nil {
		return s.fail(emit, err)
	}

	s.mu.Lock()
	s.queued++
	s.mu.Unlock()

	s.runMu.Lock()
	defer s.runMu.Unlock()
	s.mu.Lock()
	s.queued--
	s.running.Store(true)
	s.mu.Unlock()
	defer s.finishRun()
	s.runSink = ro.sink
	defer func() { s.runSink = nil }()

	log := slog.With("run", ro.runID)
	if s.exit.Load() {
		log.Warn("forced termination before start")
		return nil
	}
	log.Info("run started", "queries", len(planned))

	for _, q := range planned {
		if q.Optimize {
			log.Warn("query option optimize=true: this could cause issues in jobs loading or pagination", "query", q.Text)
		}
		for _, location := range q.Locations {
			if s.exit.Load() {
				log.Warn("forced termination", "query", q.Text, "location", location)
				return nil
			}
			exit, err := s.runOne(ctx, ro.runID, q, location)
			if err != nil {
				return s.fail(emit, err)
			}
			if exit {
				log.Warn("forced termination", "query", q.Text, "location", location)
				return nil
			}
		}
	}

	emit(engine.Event{Type: engine.EventEnd})
	log.Info("run finished")
	return nil
}

// finishRun clears the exit flag once no run is left waiting, so an Abort
// also stops the runs that were queued when it was issued.
func (s *Scraper) finishRun() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running.Store(false)
	if s.queued == 0 {
		s.exit.Store(false)
	}
}

// runOne opens a tab for (q, location), runs the strategy and closes the tab.
func (s *Scraper) runOne(ctx context.Context, runID string, q models.ResolvedQuery, location string) (exit bool, err error) {
	log := slog.With("run", runID, "query", q.Text, "location", location)
	log.Info("starting new query", "limit", q.Limit, "page_offset", q.PageOffset)

	locator, err := query.BuildSearchURL(s.scraperCfg.SearchURL, q.Text, location, q.Filters)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	browser := s.browser
	s.mu.Unlock()
	if browser == nil {
		return false, models.NewScrapeError(models.ErrCodeBrowserCrash, "browser is not running", nil)
	}

	tab, err := browser.NewTab(ctx, TabOptions{Optimize: q.Optimize, Query: q.Text, Location: location})
	if err != nil {
		return false, err
	}
	defer func() {
		if cerr := tab.Close(); cerr != nil {
			log.Debug("failed to close tab", "error", cerr)
		}
	}()

	res, err := s.strategy.Run(ctx, tab, tab, engine.RunSpec{
		RunID:    runID,
		Query:    q,
		Location: location,
		Locator:  locator,
	})
	if err != nil {
		return false, err
	}

	log.Info("query finished",
		"processed", res.Metrics.Processed,
		"failed", res.Metrics.Failed,
		"missed", res.Metrics.Missed,
		"skipped", res.Metrics.Skipped,
		"pages", res.Pages,
		"aborted", res.Aborted,
	)
	return res.Exit, nil
}

// dispatch delivers strategy events to the registered listeners and the
// current run's sink.
func (s *Scraper) dispatch(e engine.Event) {
	s.emitter.Emit(e)
	if s.runSink != nil {
		s.runSink.Emit(e)
	}
}

// fail reports a run-level failure and tears the browser down.
func (s *Scraper) fail(emit func(engine.Event), err error) error {
	var se *models.ScrapeError
	var ve *models.ValidationError
	if !errors.As(err, &se) && !errors.As(err, &ve) {
		err = models.NewScrapeError(models.ErrCodeFatal, "run failed", err)
	}
	slog.Error("run failed", "error", err)
	emit(engine.Event{Type: engine.EventError, Err: err})
	if cerr := s.Close(); cerr != nil {
		slog.Warn("failed to close browser", "error", cerr)
	}
	return err
}

// init starts the browser once. A caller arriving while another
// initialisation is in flight waits up to InitTimeout.
func (s *Scraper) init(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateReady:
		s.mu.Unlock()
		return nil
	case StateInitializing:
		ready := s.ready
		s.mu.Unlock()
		return s.waitInit(ctx, ready)
	}
	s.state = StateInitializing
	s.ready = make(chan struct{})
	ready := s.ready
	s.mu.Unlock()

	slog.Info("initializing browser", "headless", s.browserCfg.Headless, "remote", s.browserCfg.RemoteURL != "")
	browser, err := s.launch(ctx, s.browserCfg, s.scraperCfg)

	s.mu.Lock()
	defer s.mu.Unlock()
	defer close(ready)

	if err != nil {
		s.state = StateIdle
		s.initErr = err
		return err
	}
	if s.state != StateInitializing {
		// Closed while launching.
		_ = browser.Close()
		s.initErr = models.NewScrapeError(models.ErrCodeBrowserCrash, "scraper closed during initialization", nil)
		return s.initErr
	}
	s.browser = browser
	s.state = StateReady
	s.initErr = nil
	return nil
}

func (s *Scraper) waitInit(ctx context.Context, ready <-chan struct{}) error {
	timer := time.NewTimer(s.scraperCfg.InitTimeout)
	defer timer.Stop()

	select {
	case <-ready:
	case <-timer.C:
		return models.NewScrapeError(models.ErrCodeInitTimeout,
			"initialize timeout exceeded: "+s.scraperCfg.InitTimeout.String(), nil)
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateReady {
		return nil
	}
	if s.initErr != nil {
		return s.initErr
	}
	return models.NewScrapeError(models.ErrCodeBrowserCrash, "browser initialization failed", nil)
}

// Close releases the browser. It is idempotent; the next Run starts a new
// browser.
func (s *Scraper) Close() error {
	s.mu.Lock()
	browser := s.browser
	s.browser = nil
	s.state = StateIdle
	s.mu.Unlock()

	if browser == nil {
		return nil
	}
	slog.Info("scraper shutting down: closing browser")
	if err := browser.Close(); err != nil {
		return err
	}
	slog.Info("scraper shutdown complete")
	return nil
}

// Abort asks the run in progress to stop before its next page or item.
// No further (query, location) runs are started and no end event is sent.
// Runs queued behind it return without starting. Abort is a no-op when
// nothing is running or queued.
func (s *Scraper) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running.Load() || s.queued > 0 {
		s.exit.Store(true)
	}
}

// State returns the browser lifecycle state.
func (s *Scraper) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Running reports whether a run is in progress.
func (s *Scraper) Running() bool {
	return s.running.Load()
}

// Uptime returns the time since the Scraper was created.
func (s *Scraper) Uptime() time.Duration {
	return time.Since(s.startTime)
}

// Search runs queries with sink receiving this run's events.
func (s *Scraper) Search(ctx context.Context, queries []models.Query, overrides *models.QueryOptions, sink engine.Sink) error {
	return s.Run(ctx, queries, overrides, WithSink(sink))
}
