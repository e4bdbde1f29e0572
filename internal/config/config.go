package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// EnvPrefix is the environment variable prefix, e.g. SEARCH_SERVICE_HTTP_PORT.
const EnvPrefix = "SEARCH_SERVICE"

// Config holds the configuration for the search service
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string      `envconfig:"LOG_LEVEL" default:"info"`

	// HTTP Configuration
	HTTPPort           int      `envconfig:"HTTP_PORT" default:"8000"`
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	// Upstream messages API
	UpstreamURL            string `envconfig:"UPSTREAM_URL" default:"https://november7-730026606190.europe-west1.run.app"`
	UpstreamTimeoutSeconds int    `envconfig:"UPSTREAM_TIMEOUT_SECONDS" default:"30"`
	UpstreamPageLimit      int    `envconfig:"UPSTREAM_PAGE_LIMIT" default:"100"`
	UpstreamMaxRetries     int    `envconfig:"UPSTREAM_MAX_RETRIES" default:"3"`

	// Refresh
	RefreshIntervalSeconds int  `envconfig:"REFRESH_INTERVAL_SECONDS" default:"60"`
	CacheTTLSeconds        int  `envconfig:"CACHE_TTL_SECONDS" default:"300"`
	EagerInitialFetch      bool `envconfig:"EAGER_INITIAL_FETCH" default:"true"`
	// WaitReadySeconds delays serving until the first snapshot lands; 0 serves immediately.
	WaitReadySeconds int `envconfig:"WAIT_READY_SECONDS" default:"0"`

	// Search
	DefaultPageSize int  `envconfig:"DEFAULT_PAGE_SIZE" default:"20"`
	MaxPageSize     int  `envconfig:"MAX_PAGE_SIZE" default:"100"`
	StrictPageSize  bool `envconfig:"STRICT_PAGE_SIZE" default:"false"`

	// Health
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"10"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"5"`
	// HealthMaxFailures marks the corpus unhealthy after this many failed refreshes in a row; 0 disables.
	HealthMaxFailures int `envconfig:"HEALTH_MAX_FAILURES" default:"0"`
}

// Validate rejects values the service cannot run with.
func (c *Config) Validate() error {
	switch c.Environment {
	case EnvDevelopment, EnvTesting, EnvProduction:
	default:
		return fmt.Errorf("unsupported ENVIRONMENT: %s", c.Environment)
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("HTTP_PORT out of range: %d", c.HTTPPort)
	}
	if c.UpstreamURL == "" {
		return fmt.Errorf("UPSTREAM_URL is required")
	}
	if c.UpstreamPageLimit <= 0 {
		return fmt.Errorf("UPSTREAM_PAGE_LIMIT must be positive, got %d", c.UpstreamPageLimit)
	}
	if c.UpstreamMaxRetries < 0 {
		return fmt.Errorf("UPSTREAM_MAX_RETRIES must not be negative, got %d", c.UpstreamMaxRetries)
	}
	if c.RefreshIntervalSeconds <= 0 {
		return fmt.Errorf("REFRESH_INTERVAL_SECONDS must be positive, got %d", c.RefreshIntervalSeconds)
	}
	if c.MaxPageSize <= 0 {
		return fmt.Errorf("MAX_PAGE_SIZE must be positive, got %d", c.MaxPageSize)
	}
	if c.DefaultPageSize <= 0 || c.DefaultPageSize > c.MaxPageSize {
		return fmt.Errorf("DEFAULT_PAGE_SIZE must be in [1, %d], got %d", c.MaxPageSize, c.DefaultPageSize)
	}
	if c.HealthIntervalSeconds <= 0 {
		return fmt.Errorf("HEALTH_INTERVAL_SECONDS must be positive, got %d", c.HealthIntervalSeconds)
	}
	return nil
}

// New creates a new Config by parsing environment variables
// Environment variables should be prefixed with SEARCH_SERVICE_
// Example: SEARCH_SERVICE_HTTP_PORT, SEARCH_SERVICE_UPSTREAM_URL
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Str("upstream_url", cfg.UpstreamURL).
		Int("refresh_interval_s", cfg.RefreshIntervalSeconds).
		Int("cache_ttl_s", cfg.CacheTTLSeconds).
		Bool("eager_initial_fetch", cfg.EagerInitialFetch).
		Int("max_page_size", cfg.MaxPageSize).
		Bool("strict_page_size", cfg.StrictPageSize).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing
func NewForTesting() *Config {
	return &Config{
		Environment:               EnvTesting,
		LogLevel:                  "debug",
		HTTPPort:                  8000,
		CORSAllowedOrigins:        []string{"*"},
		UpstreamURL:               "http://localhost:9999",
		UpstreamTimeoutSeconds:    2,
		UpstreamPageLimit:         100,
		UpstreamMaxRetries:        0,
		RefreshIntervalSeconds:    1,
		CacheTTLSeconds:           300,
		EagerInitialFetch:         true,
		DefaultPageSize:           20,
		MaxPageSize:               100,
		HealthIntervalSeconds:     1,
		HealthProbeTimeoutSeconds: 1,
	}
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// RefreshInterval returns the refresh tick interval.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalSeconds) * time.Second
}

// UpstreamTimeout returns the per-request upstream timeout.
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.UpstreamTimeoutSeconds) * time.Second
}

// CacheTTL returns how long a snapshot counts as fresh.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// FetchTimeout bounds one whole refresh. A fetch may page through several
// requests, so it gets the refresh interval, never less than one request timeout.
func (c *Config) FetchTimeout() time.Duration {
	if c.RefreshInterval() > c.UpstreamTimeout() {
		return c.RefreshInterval()
	}
	return c.UpstreamTimeout()
}
