package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/gradebook/pkg/errs"
	"github.com/okian/gradebook/pkg/metrics"
)

var metricNamePart = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Environment variable names.
const (
	EnvPrefix = "GRADEBOOK_"
	EnvConfig = "GRADEBOOK_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if GRADEBOOK_CONFIG is set
//  3. env (prefix GRADEBOOK_)
func Load(ctx context.Context) (*Config, error) {
	const op = "config.load"

	base := New(ctx)
	k := koanf.New(".")

	if path := os.Getenv(EnvConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errs.WrapKind(op, ErrLoadConfig, err)
		}
	}

	// GRADEBOOK_DB_PATH -> db_path; underscores are kept to match koanf tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, errs.WrapKind(op, ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errs.WrapKind(op, ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errs.WrapKind(op, ErrInvalidConfig, err)
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return errors.New("addr must not be empty")
	case strings.TrimSpace(c.DBPath) == "":
		return errors.New("db_path must not be empty")
	case c.WeightTolerance <= 0:
		return fmt.Errorf("weight_tolerance must be positive, got %g", c.WeightTolerance)
	case c.ChartWidthIn <= 0 || c.ChartHeightIn <= 0:
		return fmt.Errorf("chart size must be positive, got %gx%g", c.ChartWidthIn, c.ChartHeightIn)
	case !metricNamePart.MatchString(c.MetricsNamespace):
		return fmt.Errorf("metrics_namespace %q is not a valid metric name prefix", c.MetricsNamespace)
	case c.MetricsSubsystem != "" && !metricNamePart.MatchString(c.MetricsSubsystem):
		return fmt.Errorf("metrics_subsystem %q is not a valid metric name part", c.MetricsSubsystem)
	case len(c.HTTPBucketsMS) > 0 && !metrics.ValidBuckets(c.HTTPBucketsMS):
		return fmt.Errorf("http_buckets_ms must be strictly increasing, got %v", c.HTTPBucketsMS)
	case len(c.StoreBucketsMS) > 0 && !metrics.ValidBuckets(c.StoreBucketsMS):
		return fmt.Errorf("store_buckets_ms must be strictly increasing, got %v", c.StoreBucketsMS)
	}
	return nil
}
