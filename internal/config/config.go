// Package config defines process configuration and its loading.
//
// Conventions:
// - Defaults come from New; Load layers an optional YAML file and env vars on top.
// - All functions accept context.Context as the first parameter.
package config

import "context"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address of the local window.
	Addr string `koanf:"addr"`

	// DBPath is the SQLite database file.
	DBPath string `koanf:"db_path"`

	// DBLog enables SQL statement logging.
	DBLog bool `koanf:"db_log"`

	// WeightTolerance is the absolute slack allowed between the weight sum and 1.
	WeightTolerance float64 `koanf:"weight_tolerance"`

	// ChartWidthIn and ChartHeightIn size the averages chart in inches.
	ChartWidthIn  float64 `koanf:"chart_width_in"`
	ChartHeightIn float64 `koanf:"chart_height_in"`

	// MetricsNamespace and MetricsSubsystem prefix every exported metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`

	// HTTPBucketsMS and StoreBucketsMS override the latency histogram bounds.
	// Empty keeps the built-in bounds.
	HTTPBucketsMS  []float64 `koanf:"http_buckets_ms"`
	StoreBucketsMS []float64 `koanf:"store_buckets_ms"`
}

// New creates a Config with defaults. Context is accepted first to satisfy the
// project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            "127.0.0.1:9080",
		DBPath:          "grades.db",
		DBLog:           false,
		WeightTolerance: 1e-8,
		ChartWidthIn:    6,
		ChartHeightIn:   4,

		MetricsNamespace: "gradebook",
	}
}
