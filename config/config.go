package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Session   SessionConfig
	Store     StoreConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
	Webhook   WebhookConfig
	Schedule  ScheduleConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// DefaultProxy is the proxy URL for all browser traffic.
	DefaultProxy string

	// RemoteURL connects to an already running browser instead of
	// launching one. Remote browsers are never killed on close.
	RemoteURL string

	// Stealth injects the anti-detection script into every tab.
	Stealth bool // default: true

	// SlowMotion delays every browser input action.
	SlowMotion time.Duration

	// AcceptLanguage is sent with every request. Overlay dismissal and
	// promoted detection match English UI labels.
	AcceptLanguage string // default: "en-US,en;q=0.9"
}

// ScraperConfig controls scraping behavior.
type ScraperConfig struct {
	// Strategy selects the run strategy; only "authenticated" is supported.
	Strategy string // default: "authenticated"

	// SearchURL is the listing search endpoint.
	SearchURL string // default: https://www.linkedin.com/jobs/search

	// HomeURL is opened first to install the session cookie.
	HomeURL string // default: https://www.linkedin.com

	// PageSize is the nominal number of cards per result page.
	PageSize int // default: 25

	// InitTimeout bounds the wait for a concurrent browser initialisation.
	InitTimeout time.Duration // default: 10s

	// CollectionTimeout bounds the wait for the results container.
	CollectionTimeout time.Duration // default: 5s

	// NavigationTimeout is the max time for a single navigation.
	NavigationTimeout time.Duration // default: 30s

	// BlockedResourceTypes lists resource types blocked when a query
	// enables optimize.
	// default: ["Image", "Stylesheet", "Font", "Media"]
	BlockedResourceTypes []string
}

// SessionConfig describes the authenticated session cookie.
type SessionConfig struct {
	// CookieName is the cookie that proves an authenticated session.
	CookieName string // default: "li_at"

	// Cookie is the session cookie value. Empty means the browser is
	// expected to carry a session already (remote browsers).
	Cookie string

	// Domain is the cookie domain used when installing Cookie.
	Domain string // default: ".www.linkedin.com"
}

// StoreConfig selects the dedup store.
type StoreConfig struct {
	// Driver is "badger", "redis", "memory" or "none".
	Driver string // default: "badger"

	// Path is the badger data directory.
	Path string // default: "./data/jobs"

	// RedisURL is a redis:// connection URL.
	RedisURL string // default: "redis://localhost:6379/0"

	// KeyPrefix namespaces redis keys.
	KeyPrefix string // default: "jobscout"

	// Dedup skips listings already present in the store.
	Dedup bool // default: true
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 1

	// Burst is the maximum burst size per API key.
	Burst int // default: 2
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// WebhookConfig controls event forwarding.
type WebhookConfig struct {
	// URL receives every run event. Empty disables forwarding.
	URL string

	// Secret signs payloads with HMAC-SHA256.
	Secret string

	// Timeout is the per-delivery HTTP timeout.
	Timeout time.Duration // default: 10s
}

// ScheduleConfig controls the CLI.
type ScheduleConfig struct {
	// Cron re-runs the query file on a cron schedule. Empty runs once.
	Cron string

	// QueriesFile is the YAML query file.
	QueriesFile string // default: "queries.yaml"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("JOBSCOUT_HOST", "0.0.0.0"),
			Port: envIntOr("JOBSCOUT_PORT", 8080),
			Mode: envOr("JOBSCOUT_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:       envBoolOr("JOBSCOUT_HEADLESS", true),
			NoSandbox:      envBoolOr("JOBSCOUT_NO_SANDBOX", false),
			BrowserBin:     os.Getenv("JOBSCOUT_BROWSER_BIN"),
			DefaultProxy:   os.Getenv("JOBSCOUT_PROXY"),
			RemoteURL:      os.Getenv("JOBSCOUT_BROWSER_URL"),
			Stealth:        envBoolOr("JOBSCOUT_STEALTH", true),
			SlowMotion:     envDurationOr("JOBSCOUT_SLOW_MOTION", 0),
			AcceptLanguage: envOr("JOBSCOUT_ACCEPT_LANGUAGE", "en-US,en;q=0.9"),
		},
		Scraper: ScraperConfig{
			Strategy:          envOr("JOBSCOUT_STRATEGY", "authenticated"),
			SearchURL:         envOr("JOBSCOUT_SEARCH_URL", "https://www.linkedin.com/jobs/search"),
			HomeURL:           envOr("JOBSCOUT_HOME_URL", "https://www.linkedin.com"),
			PageSize:          envIntOr("JOBSCOUT_PAGE_SIZE", 25),
			InitTimeout:       envDurationOr("JOBSCOUT_INIT_TIMEOUT", 10*time.Second),
			CollectionTimeout: envDurationOr("JOBSCOUT_COLLECTION_TIMEOUT", 5*time.Second),
			NavigationTimeout: envDurationOr("JOBSCOUT_NAV_TIMEOUT", 30*time.Second),
			BlockedResourceTypes: envSliceOr("JOBSCOUT_BLOCKED_RESOURCES", []string{
				"Image", "Stylesheet", "Font", "Media",
			}),
		},
		Session: SessionConfig{
			CookieName: envOr("JOBSCOUT_SESSION_COOKIE_NAME", "li_at"),
			Cookie:     os.Getenv("LI_AT_COOKIE"),
			Domain:     envOr("JOBSCOUT_SESSION_COOKIE_DOMAIN", ".www.linkedin.com"),
		},
		Store: StoreConfig{
			Driver:    envOr("JOBSCOUT_STORE", "badger"),
			Path:      envOr("JOBSCOUT_STORE_PATH", "./data/jobs"),
			RedisURL:  envOr("JOBSCOUT_REDIS_URL", "redis://localhost:6379/0"),
			KeyPrefix: envOr("JOBSCOUT_REDIS_PREFIX", "jobscout"),
			Dedup:     envBoolOr("JOBSCOUT_DEDUP", true),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("JOBSCOUT_AUTH_ENABLED", true),
			APIKeys: envSliceOr("JOBSCOUT_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("JOBSCOUT_RATE_RPS", 1.0),
			Burst:             envIntOr("JOBSCOUT_RATE_BURST", 2),
		},
		Log: LogConfig{
			Level:  envOr("JOBSCOUT_LOG_LEVEL", "info"),
			Format: envOr("JOBSCOUT_LOG_FORMAT", "json"),
		},
		Webhook: WebhookConfig{
			URL:     os.Getenv("JOBSCOUT_WEBHOOK_URL"),
			Secret:  os.Getenv("JOBSCOUT_WEBHOOK_SECRET"),
			Timeout: envDurationOr("JOBSCOUT_WEBHOOK_TIMEOUT", 10*time.Second),
		},
		Schedule: ScheduleConfig{
			Cron:        os.Getenv("JOBSCOUT_SCHEDULE"),
			QueriesFile: envOr("JOBSCOUT_QUERIES_FILE", "queries.yaml"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
