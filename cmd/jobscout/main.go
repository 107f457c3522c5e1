package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/use-agent/jobscout/api"
	"github.com/use-agent/jobscout/config"
	"github.com/use-agent/jobscout/engine"
	"github.com/use-agent/jobscout/scraper"
	"github.com/use-agent/jobscout/store"
	"github.com/use-agent/jobscout/webhook"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	mode := flag.String("mode", "run", "run (once), schedule (cron) or serve (HTTP API)")
	queriesPath := flag.String("queries", "", "YAML query file (default $JOBSCOUT_QUERIES_FILE)")
	outputPath := flag.String("output", "", "append extracted jobs as JSON lines to this file")
	flag.Parse()

	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()
	if *queriesPath != "" {
		cfg.Schedule.QueriesFile = *queriesPath
	}

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("jobscout starting",
		"mode", *mode,
		"strategy", cfg.Scraper.Strategy,
		"store", cfg.Store.Driver,
		"headless", cfg.Browser.Headless,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *mode, *outputPath); err != nil {
		slog.Error("jobscout failed", "error", err)
		os.Exit(1)
	}
	slog.Info("jobscout stopped")
}

func run(ctx context.Context, cfg *config.Config, mode, outputPath string) error {
	// ── 3. Open the dedup store ─────────────────────────────────────
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	if st != nil {
		defer st.Close()
	}
	var dedup engine.Dedup
	if st != nil && cfg.Store.Dedup {
		dedup = st
	}

	// ── 4. Initialise scraper (browser starts on first run) ─────────
	sc, err := scraper.New(cfg.Browser, cfg.Scraper, cfg.Session, scraper.Options{Dedup: dedup})
	if err != nil {
		return fmt.Errorf("create scraper: %w", err)
	}
	defer sc.Close()

	// ── 5. Wire event listeners ─────────────────────────────────────
	if st != nil {
		sc.On(engine.EventData, store.Persist(st))
	}
	if cfg.Webhook.URL != "" {
		fw := webhook.NewForwarder(cfg.Webhook)
		defer fw.Close()
		for _, t := range allEvents {
			sc.On(t, fw.Emit)
		}
		slog.Info("webhook forwarding enabled", "url", cfg.Webhook.URL)
	}
	if outputPath != "" {
		out, err := openOutput(outputPath)
		if err != nil {
			return err
		}
		defer out.Close()
		sc.On(engine.EventData, out.write)
	}
	sc.On(engine.EventInvalidSession, func(e engine.Event) {
		slog.Warn("invalid session: refresh the session cookie", "query", e.Query, "location", e.Location)
	})

	switch mode {
	case "run":
		return runOnce(ctx, sc, cfg.Schedule.QueriesFile)
	case "schedule":
		return runScheduled(ctx, sc, cfg.Schedule)
	case "serve":
		return serve(ctx, sc, st, cfg)
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
}

var allEvents = []engine.EventType{
	engine.EventData,
	engine.EventMetrics,
	engine.EventInvalidSession,
	engine.EventError,
	engine.EventEnd,
}

func runOnce(ctx context.Context, sc *scraper.Scraper, path string) error {
	qf, err := loadQueryFile(path)
	if err != nil {
		return err
	}
	err = sc.Run(ctx, qf.Queries, qf.Options)
	if errors.Is(err, context.Canceled) {
		slog.Info("run interrupted")
		return nil
	}
	return err
}

func serve(ctx context.Context, sc *scraper.Scraper, st store.Store, cfg *config.Config) error {
	router := api.NewRouter(ctx, sc, st, cfg)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	// Stop the run in progress at the next item, then give in-flight
	// requests 5 seconds to complete.
	sc.Abort()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}
	return nil
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
