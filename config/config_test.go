package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Browser.Headless)
	assert.True(t, cfg.Browser.Stealth)
	assert.Equal(t, "authenticated", cfg.Scraper.Strategy)
	assert.Equal(t, 25, cfg.Scraper.PageSize)
	assert.Equal(t, 10*time.Second, cfg.Scraper.InitTimeout)
	assert.Equal(t, "li_at", cfg.Session.CookieName)
	assert.Equal(t, ".www.linkedin.com", cfg.Session.Domain)
	assert.Equal(t, "badger", cfg.Store.Driver)
	assert.Equal(t, []string{"Image", "Stylesheet", "Font", "Media"}, cfg.Scraper.BlockedResourceTypes)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JOBSCOUT_PORT", "9090")
	t.Setenv("JOBSCOUT_HEADLESS", "false")
	t.Setenv("LI_AT_COOKIE", "secret")
	t.Setenv("JOBSCOUT_API_KEYS", " a , b ,,")
	t.Setenv("JOBSCOUT_INIT_TIMEOUT", "3s")
	t.Setenv("JOBSCOUT_RATE_RPS", "2.5")
	t.Setenv("JOBSCOUT_SCHEDULE", "@hourly")

	cfg := Load()

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, "secret", cfg.Session.Cookie)
	assert.Equal(t, []string{"a", "b"}, cfg.Auth.APIKeys)
	assert.Equal(t, 3*time.Second, cfg.Scraper.InitTimeout)
	assert.Equal(t, 2.5, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, "@hourly", cfg.Schedule.Cron)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("JOBSCOUT_PORT", "not-a-number")
	t.Setenv("JOBSCOUT_HEADLESS", "maybe")
	t.Setenv("JOBSCOUT_NAV_TIMEOUT", "soon")

	cfg := Load()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 30*time.Second, cfg.Scraper.NavigationTimeout)
}
