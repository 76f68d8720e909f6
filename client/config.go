package client

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// TTLConfig holds the per-operation cache durations.
type TTLConfig struct {
	Stores   time.Duration `yaml:"stores"`
	Products time.Duration `yaml:"products"`
	Featured time.Duration `yaml:"featured"`
	Orders   time.Duration `yaml:"orders"`
	Identity time.Duration `yaml:"identity"`
}

// RetryConfig bounds the opt-in retry utility: linear backoff, base delay
// multiplied by the attempt number, up to MaxAttempts total attempts.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
}

// Config configures the storefront client.
type Config struct {
	// BaseURL is the backend endpoint, e.g. "https://api.example.com/api".
	BaseURL string `yaml:"base_url"`
	// Timeout applies to every transport call except authentication.
	Timeout time.Duration `yaml:"timeout"`
	// AuthTimeout applies to authentication calls.
	AuthTimeout time.Duration `yaml:"auth_timeout"`
	// AuthThrottle is the minimum interval between fresh network
	// authentications.
	AuthThrottle time.Duration `yaml:"auth_throttle"`
	// PageSize and MaxPageSize bound pagination parameters.
	PageSize    int `yaml:"page_size"`
	MaxPageSize int `yaml:"max_page_size"`

	TTL   TTLConfig   `yaml:"ttl"`
	Retry RetryConfig `yaml:"retry"`

	// TokenPath overrides where the credential is persisted. Empty selects
	// the default user config location.
	TokenPath string `yaml:"token_path"`
	// DisableTokenPersistence keeps the credential in memory only.
	DisableTokenPersistence bool `yaml:"disable_token_persistence"`

	// HTTPClient, Logger, and Registerer are injection points; nil selects
	// a default client, a no-op logger, and a private registry.
	HTTPClient *http.Client          `yaml:"-"`
	Logger     *zerolog.Logger       `yaml:"-"`
	Registerer prometheus.Registerer `yaml:"-"`
}

// DefaultConfig returns the deployed client defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:      "/api",
		Timeout:      30 * time.Second,
		AuthTimeout:  15 * time.Second,
		AuthThrottle: 5 * time.Second,
		PageSize:     20,
		MaxPageSize:  100,
		TTL: TTLConfig{
			Stores:   10 * time.Minute,
			Products: 2 * time.Minute,
			Featured: 5 * time.Minute,
			Orders:   30 * time.Second,
			Identity: 5 * time.Minute,
		},
		Retry: RetryConfig{MaxAttempts: 3, BaseDelay: time.Second},
	}
}

// LoadConfig reads configuration from a YAML file. Fields absent from the
// file keep their defaults; STOREFRONT_API_URL and STOREFRONT_TIMEOUT
// environment variables override the file.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read client config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse client config: %w", err)
	}
	return cfg.withEnv().normalized(), nil
}

// LoadConfigOrDefault loads configuration from path, or returns defaults
// (with environment overrides) when the file cannot be read.
func LoadConfigOrDefault(path string) Config {
	cfg, err := LoadConfig(path)
	if err != nil {
		return DefaultConfig().withEnv().normalized()
	}
	return cfg
}

func (c Config) withEnv() Config {
	if v := os.Getenv("STOREFRONT_API_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("STOREFRONT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Timeout = d
		}
	}
	return c
}

// normalized fills gaps with defaults so the client never runs with zero
// timeouts or TTLs.
func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.BaseURL == "" {
		c.BaseURL = d.BaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.AuthTimeout <= 0 {
		c.AuthTimeout = d.AuthTimeout
	}
	if c.AuthThrottle < 0 {
		c.AuthThrottle = d.AuthThrottle
	}
	if c.PageSize <= 0 {
		c.PageSize = d.PageSize
	}
	if c.MaxPageSize < c.PageSize {
		c.MaxPageSize = d.MaxPageSize
	}
	if c.TTL.Stores <= 0 {
		c.TTL.Stores = d.TTL.Stores
	}
	if c.TTL.Products <= 0 {
		c.TTL.Products = d.TTL.Products
	}
	if c.TTL.Featured <= 0 {
		c.TTL.Featured = d.TTL.Featured
	}
	if c.TTL.Orders <= 0 {
		c.TTL.Orders = d.TTL.Orders
	}
	if c.TTL.Identity <= 0 {
		c.TTL.Identity = d.TTL.Identity
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = d.Retry.MaxAttempts
	}
	if c.Retry.BaseDelay <= 0 {
		c.Retry.BaseDelay = d.Retry.BaseDelay
	}
	return c
}
