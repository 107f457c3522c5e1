package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
	"github.com/use-agent/jobscout/config"
	"github.com/use-agent/jobscout/scraper"
)

// cronLogger routes cron's logging through slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

// runScheduled re-reads the query file and runs it on every tick of
// cfg.Cron until ctx is done. Ticks arriving while a run is in progress
// are skipped. The first run starts immediately.
func runScheduled(ctx context.Context, sc *scraper.Scraper, cfg config.ScheduleConfig) error {
	if cfg.Cron == "" {
		return errors.New("schedule mode needs JOBSCOUT_SCHEDULE")
	}

	logger := cronLogger{}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	job := cron.FuncJob(func() {
		if err := runOnce(ctx, sc, cfg.QueriesFile); err != nil {
			// The scraper has already reported and closed; the next tick
			// starts a fresh browser.
			slog.Error("scheduled run failed", "error", err)
		}
	})
	if _, err := c.AddJob(cfg.Cron, job); err != nil {
		return fmt.Errorf("cron.AddJob: %w", err)
	}

	c.Start()
	slog.Info("scheduler started", "spec", cfg.Cron, "queries", cfg.QueriesFile)
	go job.Run()

	<-ctx.Done()
	sc.Abort()
	<-c.Stop().Done()
	slog.Info("scheduler stopped")
	return nil
}
