package internal

import (
	"fmt"
	"log/slog"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notekeeper/internal/store"
)

var pathPattern = regexp.MustCompile(`^/[A-Za-z0-9/_.\-]*$`)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Database  DatabaseConfig    `yaml:"database"`
	Events    EventsConfig      `yaml:"events"`
	Metrics   MetricsConfig     `yaml:"metrics"`
	RateLimit RateLimitConfig   `yaml:"rate_limit"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Events.Validate(); err != nil {
		return fmt.Errorf("events: %w", err)
	}
	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	if err := c.RateLimit.Validate(); err != nil {
		return fmt.Errorf("rate_limit: %w", err)
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.ShutdownTimeout, validation.Required, validation.Min(time.Second)),
	)
}

// DatabaseConfig selects the relational backend and tunes its pool.
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"`
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// Validate validates the database configuration.
func (c *DatabaseConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required, validation.In(store.DriverSQLite, store.DriverMySQL)),
		validation.Field(&c.DSN, validation.Required),
		validation.Field(&c.MaxOpenConns, validation.Min(0)),
		validation.Field(&c.MaxIdleConns, validation.Min(0)),
		validation.Field(&c.ConnMaxLifetime, validation.Min(time.Duration(0))),
	)
}

// StoreConfig converts to the store's own config type.
func (c *DatabaseConfig) StoreConfig() store.Config {
	return store.Config{
		Driver:          c.Driver,
		DSN:             c.DSN,
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
	}
}

// EventsConfig controls the server-sent events stream.
type EventsConfig struct {
	Enabled   bool          `yaml:"enabled"`
	KeepAlive time.Duration `yaml:"keep_alive"`
}

// Validate validates the events configuration.
func (c *EventsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.KeepAlive, validation.When(c.Enabled, validation.Required, validation.Min(time.Second))),
	)
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Path         string        `yaml:"path"`
	PoolInterval time.Duration `yaml:"pool_interval"`
}

// Validate validates the metrics configuration.
func (c *MetricsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.When(c.Enabled,
			validation.Required, validation.Match(pathPattern))),
		validation.Field(&c.PoolInterval, validation.When(c.Enabled, validation.Required, validation.Min(time.Second))),
	)
}

// RateLimitConfig holds the per-client token bucket settings.
type RateLimitConfig struct {
	Enabled bool          `yaml:"enabled"`
	RPS     float64       `yaml:"rps"`
	Burst   int           `yaml:"burst"`
	IdleTTL time.Duration `yaml:"idle_ttl"`
}

// Validate validates the rate limit configuration.
func (c *RateLimitConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.RPS, validation.When(c.Enabled, validation.Required, validation.Min(0.001))),
		validation.Field(&c.Burst, validation.When(c.Enabled, validation.Required, validation.Min(1))),
		validation.Field(&c.IdleTTL, validation.When(c.Enabled, validation.Required, validation.Min(time.Second))),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port:            8080,
				ShutdownTimeout: 10 * time.Second,
			},
		},
		Database: DatabaseConfig{
			Driver:       store.DriverSQLite,
			DSN:          "./notes.db",
			MaxOpenConns: 10,
			MaxIdleConns: 5,
		},
		Events: EventsConfig{
			Enabled:   true,
			KeepAlive: 30 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled:      true,
			Path:         "/metrics",
			PoolInterval: 15 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled: false,
			RPS:     10,
			Burst:   20,
			IdleTTL: 10 * time.Minute,
		},
	}
}
