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
	Extract   ExtractConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
	Webhook   WebhookConfig
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

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int // default: 10

	// DefaultProxy is the default proxy URL for all requests.
	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string
}

// ExtractConfig controls extraction behavior.
type ExtractConfig struct {
	// DefaultTimeout is the per-extraction timeout.
	DefaultTimeout time.Duration // default: 300s

	// MaxTimeout is the maximum allowed timeout from the client.
	MaxTimeout time.Duration // default: 500s

	// SettleDelay is the fixed wait after DOM stability before scrolling.
	SettleDelay time.Duration // default: 2s

	// MaxScroll bounds total scroll distance in CSS pixels.
	MaxScroll int // default: 20000

	// ScrollStep is the per-tick scroll increment in CSS pixels.
	ScrollStep int // default: 300

	// ScrollTick is the interval between scroll increments.
	ScrollTick time.Duration // default: 100ms

	// ScrollIdle is how long scroll position must hold before the
	// stabilizer declares the page settled.
	ScrollIdle time.Duration // default: 1s

	// BatchSize bounds concurrent candidate fetches per batch.
	BatchSize int // default: 100

	// ItemTimeout is the per-candidate fetch deadline.
	ItemTimeout time.Duration // default: 180s

	// BlockAds drops requests to known ad/tracking domains during page load.
	BlockAds bool // default: true
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per API key.
	Burst int // default: 10
}

// CacheConfig controls the extraction metadata cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached responses.
	MaxEntries int // default: 1000
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// WebhookConfig controls progress webhook delivery.
type WebhookConfig struct {
	// Timeout is the per-delivery HTTP deadline.
	Timeout time.Duration // default: 10s

	// MaxRetries is the number of retries after the initial delivery
	// attempt fails.
	MaxRetries int // default: 3
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("HARVEST_HOST", "0.0.0.0"),
			Port: envIntOr("HARVEST_PORT", 8080),
			Mode: envOr("HARVEST_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:     envBoolOr("HARVEST_HEADLESS", true),
			MaxPages:     envIntOr("HARVEST_MAX_PAGES", 10),
			DefaultProxy: os.Getenv("HARVEST_PROXY"),
			NoSandbox:    envBoolOr("HARVEST_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("HARVEST_BROWSER_BIN"),
		},
		Extract: ExtractConfig{
			DefaultTimeout: envDurationOr("HARVEST_DEFAULT_TIMEOUT", 300*time.Second),
			MaxTimeout:     envDurationOr("HARVEST_MAX_TIMEOUT", 500*time.Second),
			SettleDelay:    envDurationOr("HARVEST_SETTLE_DELAY", 2*time.Second),
			MaxScroll:      envIntOr("HARVEST_MAX_SCROLL", 20000),
			ScrollStep:     envIntOr("HARVEST_SCROLL_STEP", 300),
			ScrollTick:     envDurationOr("HARVEST_SCROLL_TICK", 100*time.Millisecond),
			ScrollIdle:     envDurationOr("HARVEST_SCROLL_IDLE", time.Second),
			BatchSize:      envIntOr("HARVEST_BATCH_SIZE", 100),
			ItemTimeout:    envDurationOr("HARVEST_ITEM_TIMEOUT", 180*time.Second),
			BlockAds:       envBoolOr("HARVEST_BLOCK_ADS", true),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("HARVEST_AUTH_ENABLED", false),
			APIKeys: envSliceOr("HARVEST_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("HARVEST_RATE_RPS", 5.0),
			Burst:             envIntOr("HARVEST_RATE_BURST", 10),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("HARVEST_CACHE_MAX_ENTRIES", 1000),
		},
		Log: LogConfig{
			Level:  envOr("HARVEST_LOG_LEVEL", "info"),
			Format: envOr("HARVEST_LOG_FORMAT", "json"),
		},
		Webhook: WebhookConfig{
			Timeout:    envDurationOr("HARVEST_WEBHOOK_TIMEOUT", 10*time.Second),
			MaxRetries: envIntOr("HARVEST_WEBHOOK_RETRIES", 3),
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
