package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Browser   BrowserConfig   `yaml:"browser"`
	Calendar  CalendarConfig  `yaml:"calendar"`
	Sink      SinkConfig      `yaml:"sink"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Cache     CacheConfig     `yaml:"cache"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string `yaml:"host"` // default: "0.0.0.0"
	Port int    `yaml:"port"` // default: 8080
	Mode string `yaml:"mode"` // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool `yaml:"headless"` // default: true

	// DefaultProxy is the proxy URL for all browser traffic.
	DefaultProxy string `yaml:"proxy"`

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool `yaml:"no_sandbox"` // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string `yaml:"bin"`

	// Stealth masks navigator.webdriver and friends before navigation.
	Stealth bool `yaml:"stealth"` // default: true

	// BlockedResourceTypes lists resource types to block.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string `yaml:"blocked_resources"`

	// BlockAds drops requests to known ad and tracking domains.
	BlockAds bool `yaml:"block_ads"` // default: true
}

// CalendarConfig describes the target page and how patiently to drive it.
type CalendarConfig struct {
	URL string `yaml:"url"`

	Selectors SelectorConfig `yaml:"selectors"`

	// Bounded waits for elements to become clickable or visible.
	ConsentTimeout    time.Duration `yaml:"consent_timeout"`     // default: 5s
	DateFilterTimeout time.Duration `yaml:"date_filter_timeout"` // default: 5s
	TimezoneTimeout   time.Duration `yaml:"timezone_timeout"`    // default: 10s

	// Fixed settle delays where the page offers no readiness signal.
	LoadDelay     time.Duration `yaml:"load_delay"`     // default: 5s
	FilterDelay   time.Duration `yaml:"filter_delay"`   // default: 5s
	TimezoneDelay time.Duration `yaml:"timezone_delay"` // default: 2s
	ScrollDelay   time.Duration `yaml:"scroll_delay"`   // default: 3s

	// MaxScrolls caps the infinite-scroll loop; 0 means no cap.
	MaxScrolls int `yaml:"max_scrolls"` // default: 50
}

// SelectorConfig holds the CSS selectors of the calendar widgets.
type SelectorConfig struct {
	ConsentAccept  string `yaml:"consent_accept"`
	Body           string `yaml:"body"`
	DatePicker     string `yaml:"date_picker"`
	StartDate      string `yaml:"start_date"`
	EndDate        string `yaml:"end_date"`
	ApplyDates     string `yaml:"apply_dates"`
	TimezoneArrow  string `yaml:"timezone_arrow"`
	TimezonePopup  string `yaml:"timezone_popup"`
	TimezoneOption string `yaml:"timezone_option"`
	EventTable     string `yaml:"event_table"`
}

// SinkConfig selects where gathered records go.
type SinkConfig struct {
	// Kinds is the list of sinks to fan out to: csv, json, markdown, sqlite, webhook.
	Kinds []string `yaml:"kinds"` // default: ["csv"]

	// OutputDir is where file sinks write. "~/" is expanded.
	OutputDir string `yaml:"output_dir"` // default: "."

	// SQLitePath is the database file for the sqlite sink.
	SQLitePath string `yaml:"sqlite_path"` // default: "economic_calendar.db"

	WebhookURL    string `yaml:"webhook_url"`
	WebhookSecret string `yaml:"webhook_secret"`
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool `yaml:"enabled"` // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string `yaml:"api_keys"`
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 `yaml:"rps"` // default: 0.2

	// Burst is the maximum burst size per API key.
	Burst int `yaml:"burst"` // default: 2
}

// CacheConfig controls the gather response cache.
type CacheConfig struct {
	// TTL bounds how long a response can be reused regardless of max_age.
	TTL time.Duration `yaml:"ttl"` // default: 1h
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // default: "info"
	Format string `yaml:"format"` // "json" or "text"; default: "json"
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Mode: "release",
		},
		Browser: BrowserConfig{
			Headless:             true,
			Stealth:              true,
			BlockedResourceTypes: []string{"Image", "Font", "Media"},
			BlockAds:             true,
		},
		Calendar: CalendarConfig{
			URL: "https://www.investing.com/economic-calendar/",
			Selectors: SelectorConfig{
				ConsentAccept:  "#onetrust-accept-btn-handler",
				Body:           "body",
				DatePicker:     "#datePickerToggleBtn",
				StartDate:      "#startDate",
				EndDate:        "#endDate",
				ApplyDates:     "#applyBtn",
				TimezoneArrow:  "#economicCurrentTime .dropDownArrowGray",
				TimezonePopup:  "#economicCurrentTimePop",
				TimezoneOption: "#liTz19",
				EventTable:     "table#economicCalendarData",
			},
			ConsentTimeout:    5 * time.Second,
			DateFilterTimeout: 5 * time.Second,
			TimezoneTimeout:   10 * time.Second,
			LoadDelay:         5 * time.Second,
			FilterDelay:       5 * time.Second,
			TimezoneDelay:     2 * time.Second,
			ScrollDelay:       3 * time.Second,
			MaxScrolls:        50,
		},
		Sink: SinkConfig{
			Kinds:      []string{"csv"},
			OutputDir:  ".",
			SQLitePath: "economic_calendar.db",
		},
		Auth: AuthConfig{
			Enabled: true,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 0.2,
			Burst:             2,
		},
		Cache: CacheConfig{
			TTL: time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// ECOCAL_CONFIG (if any), then ECOCAL_* variables. A .env file is loaded
// into the environment first, so it may set ECOCAL_CONFIG too; variables
// already in the process environment win over .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded, relying on process environment", "error", err)
	}

	cfg := Default()

	if path := os.Getenv("ECOCAL_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// mergeFile decodes a YAML file over the current values. Keys missing from
// the file keep their defaults.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Host = envOr("ECOCAL_HOST", c.Server.Host)
	c.Server.Port = envIntOr("ECOCAL_PORT", c.Server.Port)
	c.Server.Mode = envOr("ECOCAL_MODE", c.Server.Mode)

	c.Browser.Headless = envBoolOr("ECOCAL_HEADLESS", c.Browser.Headless)
	c.Browser.DefaultProxy = envOr("ECOCAL_PROXY", c.Browser.DefaultProxy)
	c.Browser.NoSandbox = envBoolOr("ECOCAL_NO_SANDBOX", c.Browser.NoSandbox)
	c.Browser.BrowserBin = envOr("ECOCAL_BROWSER_BIN", c.Browser.BrowserBin)
	c.Browser.Stealth = envBoolOr("ECOCAL_STEALTH", c.Browser.Stealth)
	c.Browser.BlockedResourceTypes = envSliceOr("ECOCAL_BLOCKED_RESOURCES", c.Browser.BlockedResourceTypes)
	c.Browser.BlockAds = envBoolOr("ECOCAL_BLOCK_ADS", c.Browser.BlockAds)

	c.Calendar.URL = envOr("ECOCAL_URL", c.Calendar.URL)
	c.Calendar.Selectors.TimezoneOption = envOr("ECOCAL_TIMEZONE_OPTION", c.Calendar.Selectors.TimezoneOption)
	c.Calendar.ConsentTimeout = envDurationOr("ECOCAL_CONSENT_TIMEOUT", c.Calendar.ConsentTimeout)
	c.Calendar.DateFilterTimeout = envDurationOr("ECOCAL_DATE_FILTER_TIMEOUT", c.Calendar.DateFilterTimeout)
	c.Calendar.TimezoneTimeout = envDurationOr("ECOCAL_TIMEZONE_TIMEOUT", c.Calendar.TimezoneTimeout)
	c.Calendar.LoadDelay = envDurationOr("ECOCAL_LOAD_DELAY", c.Calendar.LoadDelay)
	c.Calendar.FilterDelay = envDurationOr("ECOCAL_FILTER_DELAY", c.Calendar.FilterDelay)
	c.Calendar.TimezoneDelay = envDurationOr("ECOCAL_TIMEZONE_DELAY", c.Calendar.TimezoneDelay)
	c.Calendar.ScrollDelay = envDurationOr("ECOCAL_SCROLL_DELAY", c.Calendar.ScrollDelay)
	c.Calendar.MaxScrolls = envIntOr("ECOCAL_MAX_SCROLLS", c.Calendar.MaxScrolls)

	c.Sink.Kinds = envSliceOr("ECOCAL_SINKS", c.Sink.Kinds)
	c.Sink.OutputDir = envOr("ECOCAL_OUTPUT_DIR", c.Sink.OutputDir)
	c.Sink.SQLitePath = envOr("ECOCAL_SQLITE_PATH", c.Sink.SQLitePath)
	c.Sink.WebhookURL = envOr("ECOCAL_WEBHOOK_URL", c.Sink.WebhookURL)
	c.Sink.WebhookSecret = envOr("ECOCAL_WEBHOOK_SECRET", c.Sink.WebhookSecret)

	c.Auth.Enabled = envBoolOr("ECOCAL_AUTH_ENABLED", c.Auth.Enabled)
	c.Auth.APIKeys = envSliceOr("ECOCAL_API_KEYS", c.Auth.APIKeys)

	c.RateLimit.RequestsPerSecond = envFloatOr("ECOCAL_RATE_RPS", c.RateLimit.RequestsPerSecond)
	c.RateLimit.Burst = envIntOr("ECOCAL_RATE_BURST", c.RateLimit.Burst)

	c.Cache.TTL = envDurationOr("ECOCAL_CACHE_TTL", c.Cache.TTL)

	c.Log.Level = envOr("ECOCAL_LOG_LEVEL", c.Log.Level)
	c.Log.Format = envOr("ECOCAL_LOG_FORMAT", c.Log.Format)
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
