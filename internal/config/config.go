package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Backend struct {
		Mode            string  `yaml:"mode"` // memory | http
		BaseURL         string  `yaml:"base_url"`
		APIKey          string  `yaml:"api_key"`
		CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
		RateLimit       float64 `yaml:"rate_limit"`
		RateBurst       int     `yaml:"rate_burst"`
		TimeoutSeconds  int     `yaml:"timeout_seconds"`
	} `yaml:"backend"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Booking struct {
		SubmissionStrategy    string `yaml:"submission_strategy"`
		MinAdvanceMinutes     int    `yaml:"min_advance_minutes"`
		MaxAdvanceDays        int    `yaml:"max_advance_days"`
		TickMinutes           int    `yaml:"tick_minutes"`
		ProbeBatchSize        int    `yaml:"probe_batch_size"`
		CapacityWeighting     string `yaml:"capacity_weighting"`
		SessionTimeoutMinutes int    `yaml:"session_timeout_minutes"`
		Timezone              string `yaml:"timezone"`
	} `yaml:"booking"`

	Catalog struct {
		Path               string `yaml:"path"`
		ReloadIntervalSecs  int    `yaml:"reload_interval_seconds"`
	} `yaml:"catalog"`
}

const (
	BackendMemory = "memory"
	BackendHTTP   = "http"
)

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Monitoring.HealthCheckPort == 0 {
		c.Monitoring.HealthCheckPort = 8090
	}
	if c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Backend.Mode == "" {
		c.Backend.Mode = BackendMemory
	}
	if c.Backend.TimeoutSeconds <= 0 {
		c.Backend.TimeoutSeconds = 10
	}
	if c.Booking.SubmissionStrategy == "" {
		c.Booking.SubmissionStrategy = "combined"
	}
	if c.Booking.CapacityWeighting == "" {
		c.Booking.CapacityWeighting = "count"
	}
	if c.Booking.Timezone == "" {
		c.Booking.Timezone = "UTC"
	}
	if c.Catalog.Path == "" {
		c.Catalog.Path = "configs/salon.yaml"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Backend.Mode {
	case BackendMemory:
	case BackendHTTP:
		if c.Backend.BaseURL == "" {
			return fmt.Errorf("backend.base_url is required in http mode")
		}
	default:
		return fmt.Errorf("backend.mode: unknown mode '%s', expected memory or http", c.Backend.Mode)
	}
	if c.Backend.RateLimit < 0 {
		return fmt.Errorf("backend.rate_limit cannot be negative")
	}

	switch c.Booking.SubmissionStrategy {
	case "combined", "chained":
	default:
		return fmt.Errorf("booking.submission_strategy: unknown strategy '%s'", c.Booking.SubmissionStrategy)
	}
	switch c.Booking.CapacityWeighting {
	case "count", "minutes":
	default:
		return fmt.Errorf("booking.capacity_weighting: unknown mode '%s', expected count or minutes", c.Booking.CapacityWeighting)
	}
	if c.Booking.MinAdvanceMinutes < 0 {
		return fmt.Errorf("booking.min_advance_minutes cannot be negative")
	}
	if c.Booking.TickMinutes < 0 || (c.Booking.TickMinutes > 0 && 60%c.Booking.TickMinutes != 0 && c.Booking.TickMinutes%60 != 0) {
		return fmt.Errorf("booking.tick_minutes: invalid value %d", c.Booking.TickMinutes)
	}
	if _, err := time.LoadLocation(c.Booking.Timezone); err != nil {
		return fmt.Errorf("booking.timezone: %w", err)
	}
	return nil
}

// Location returns the booking timezone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Booking.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// BookingMinAdvance is the same-day buffer after now before the first bookable start.
func (c *Config) BookingMinAdvance() time.Duration {
	if c.Booking.MinAdvanceMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Booking.MinAdvanceMinutes) * time.Minute
}

func (c *Config) BookingMaxAdvanceDays() int {
	if c.Booking.MaxAdvanceDays <= 0 {
		return 60
	}
	return c.Booking.MaxAdvanceDays
}

func (c *Config) SessionTimeout() time.Duration {
	if c.Booking.SessionTimeoutMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Booking.SessionTimeoutMinutes) * time.Minute
}

func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Backend.CacheTTLSeconds) * time.Second
}

func (c *Config) CatalogReloadInterval() time.Duration {
	if c.Catalog.ReloadIntervalSecs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Catalog.ReloadIntervalSecs) * time.Second
}
