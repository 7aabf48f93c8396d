// Package config defines the service configuration and its loader.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/okian/wastewise/internal/domain/model"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the record encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StorageBackend is memory or sqlite.
	StorageBackend string `koanf:"storage_backend"`
	SQLitePath     string `koanf:"sqlite_path"`
	// Namespace prefixes every persisted key.
	Namespace string `koanf:"namespace"`

	// Repository is local (views served by this process) or remote
	// (reads and writes proxied to BackendURL).
	Repository       string `koanf:"repository"`
	BackendURL       string `koanf:"backend_url"`
	BackendTimeoutMS int    `koanf:"backend_timeout_ms"`
	BackendRetryMax  int    `koanf:"backend_retry_max"`

	// MirrorURL, when set, receives a copy of every accepted local submission.
	MirrorURL   string `koanf:"mirror_url"`
	QueueSize   int    `koanf:"queue_size"`
	WorkerCount int    `koanf:"worker_count"`

	// DedupeSize bounds the idempotency key cache. 0 disables eviction.
	DedupeSize int `koanf:"dedupe_size"`

	DefaultEmployeeCount int `koanf:"default_employee_count"`
	// EmployeeCounts maps business ids to head counts. File only: keys are
	// decimal ids.
	EmployeeCounts map[string]int `koanf:"employee_counts"`

	// Timezone names the IANA zone used for bucket labels and log
	// timestamps. Empty or "Local" uses the host zone.
	Timezone string `koanf:"timezone"`

	// RateLimitRPS limits write requests per client IP. 0 disables it.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	// CORSOrigins lists allowed browser origins; "*" allows any.
	CORSOrigins []string `koanf:"cors_origins"`

	// MetricsEnabled switches Prometheus recording; /healthz still serves
	// the last values when it is off.
	MetricsEnabled   bool `koanf:"metrics_enabled"`
	MetricsRefreshMS int  `koanf:"metrics_refresh_ms"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":8080",
		StorageBackend:       "sqlite",
		SQLitePath:           "wastewise.db",
		Namespace:            "wastewise:",
		Repository:           "local",
		BackendTimeoutMS:     10_000,
		BackendRetryMax:      3,
		QueueSize:            1024,
		WorkerCount:          2,
		DedupeSize:           10_000,
		DefaultEmployeeCount: model.DefaultEmployeeCount,
		Timezone:             "Local",
		RateLimitRPS:         20,
		RateLimitBurst:       40,
		MetricsEnabled:       true,
		MetricsRefreshMS:     10_000,
	}
}

// BackendTimeout returns BackendTimeoutMS as a duration.
func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.BackendTimeoutMS) * time.Millisecond
}

// MetricsRefresh returns MetricsRefreshMS as a duration.
func (c *Config) MetricsRefresh() time.Duration {
	return time.Duration(c.MetricsRefreshMS) * time.Millisecond
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Timezone)
	if tz == "" || strings.EqualFold(tz, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfig, tz, err)
	}
	return loc, nil
}

// HeadCounts converts EmployeeCounts to business ids.
func (c *Config) HeadCounts() (model.EmployeeCounts, error) {
	out := make(model.EmployeeCounts, len(c.EmployeeCounts))
	for k, v := range c.EmployeeCounts {
		id, err := strconv.ParseInt(strings.TrimSpace(k), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%w: employee_counts key %q is not a business id", ErrInvalidConfig, k)
		}
		if v < 1 {
			return nil, fmt.Errorf("%w: employee_counts[%s] must be at least 1", ErrInvalidConfig, k)
		}
		out[id] = v
	}
	return out, nil
}

// Origins returns CORSOrigins with comma separated entries split, as they
// arrive from a single environment variable.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range c.CORSOrigins {
		for _, part := range strings.Split(o, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be at least 1", ErrInvalidConfig)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be at least 1", ErrInvalidConfig)
	case c.DedupeSize < 0:
		return fmt.Errorf("%w: dedupe_size must not be negative", ErrInvalidConfig)
	case c.DefaultEmployeeCount < 1:
		return fmt.Errorf("%w: default_employee_count must be at least 1", ErrInvalidConfig)
	case c.BackendTimeoutMS < 1:
		return fmt.Errorf("%w: backend_timeout_ms must be positive", ErrInvalidConfig)
	case c.BackendRetryMax < 0:
		return fmt.Errorf("%w: backend_retry_max must not be negative", ErrInvalidConfig)
	case c.RateLimitRPS < 0:
		return fmt.Errorf("%w: rate_limit_rps must not be negative", ErrInvalidConfig)
	case c.MetricsRefreshMS < 1:
		return fmt.Errorf("%w: metrics_refresh_ms must be positive", ErrInvalidConfig)
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}

	switch strings.ToLower(c.StorageBackend) {
	case "memory":
	case "sqlite":
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("%w: sqlite_path is required for the sqlite backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage_backend %q", ErrInvalidConfig, c.StorageBackend)
	}

	switch strings.ToLower(c.Repository) {
	case "local":
	case "remote":
		if strings.TrimSpace(c.BackendURL) == "" {
			return fmt.Errorf("%w: backend_url is required for the remote repository", ErrInvalidConfig)
		}
		if c.MirrorURL != "" {
			return fmt.Errorf("%w: mirror_url only applies to the local repository", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown repository %q", ErrInvalidConfig, c.Repository)
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.HeadCounts(); err != nil {
		return err
	}
	return nil
}
