// Package config defines analyzer configuration and its loader.
package config

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/okian/brevet/internal/domain/grading"
	"github.com/okian/brevet/internal/i18n"
)

// Config contains process configuration shared by the server and the CLI.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFile, when set, receives a copy of every log record.
	LogFile string `koanf:"log_file"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Policy is the default invalid-record policy: skip or abort.
	Policy string `koanf:"policy"`

	// Notation is the default display notation: letters or colors.
	Notation string `koanf:"notation"`

	// Language is the default report language: fr, en or es.
	Language string `koanf:"language"`

	// MaxBodyBytes caps POST /analyze request bodies.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// MaxEvaluations caps the number of evaluations per analysis.
	MaxEvaluations int `koanf:"max_evaluations"`

	// ServerURL is the analyzer base URL used by `brevet submit`.
	ServerURL string `koanf:"server_url"`

	// MetricsEnabled turns Prometheus recording on or off. /metrics is served either way.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsNamespace and MetricsSubsystem form the metric name prefix.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`

	// MetricsPrefix is an optional extra name segment after the subsystem.
	MetricsPrefix string `koanf:"metrics_prefix"`

	// MetricsRefreshInterval is the period of the runtime gauge updater.
	MetricsRefreshInterval time.Duration `koanf:"metrics_refresh_interval"`

	// MetricsBuckets overrides the latency histogram buckets, in milliseconds.
	MetricsBuckets []float64 `koanf:"metrics_buckets"`

	// MetricsLabels are constant labels added to every metric.
	MetricsLabels map[string]string `koanf:"metrics_labels"`
}

var metricName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		Addr:           ":9080",
		Policy:         grading.PolicySkip.String(),
		Notation:       grading.NotationLetters.String(),
		Language:       i18n.Default.String(),
		MaxBodyBytes:   1 << 20,
		MaxEvaluations: 10_000,
		ServerURL:      "http://localhost:9080",

		MetricsEnabled:         true,
		MetricsNamespace:       "brevet",
		MetricsSubsystem:       "analyzer",
		MetricsRefreshInterval: 10 * time.Second,
	}
}

// Validate checks field values. Errors wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	if _, err := grading.ParsePolicy(c.Policy); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := grading.ParseNotation(c.Notation); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := i18n.Parse(c.Language); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("%w: max_body_bytes must be positive", ErrInvalidConfig)
	}
	if c.MaxEvaluations <= 0 {
		return fmt.Errorf("%w: max_evaluations must be positive", ErrInvalidConfig)
	}
	return c.validateMetrics()
}

func (c *Config) validateMetrics() error {
	names := map[string]string{
		"metrics_namespace": c.MetricsNamespace,
		"metrics_subsystem": c.MetricsSubsystem,
		"metrics_prefix":    c.MetricsPrefix,
	}
	for key, v := range names {
		if v != "" && !metricName.MatchString(v) {
			return fmt.Errorf("%w: %s %q is not a valid metric name", ErrInvalidConfig, key, v)
		}
	}
	for name := range c.MetricsLabels {
		if !metricName.MatchString(name) || strings.HasPrefix(name, "__") {
			return fmt.Errorf("%w: metrics_labels key %q", ErrInvalidConfig, name)
		}
	}
	if c.MetricsRefreshInterval <= 0 {
		return fmt.Errorf("%w: metrics_refresh_interval must be positive", ErrInvalidConfig)
	}
	if !slices.IsSorted(c.MetricsBuckets) || len(slices.Compact(slices.Clone(c.MetricsBuckets))) != len(c.MetricsBuckets) {
		return fmt.Errorf("%w: metrics_buckets must be strictly increasing", ErrInvalidConfig)
	}
	return nil
}

// JSONLogs reports whether log_format selects JSON output.
func (c *Config) JSONLogs() bool {
	return strings.EqualFold(c.LogFormat, "json")
}
