package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/gradebook/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, "127.0.0.1:9080")
				convey.So(cfg.DBPath, convey.ShouldEqual, "grades.db")
				convey.So(cfg.WeightTolerance, convey.ShouldEqual, 1e-8)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("GRADEBOOK_ADDR", "127.0.0.1:8080")
			_ = os.Setenv("GRADEBOOK_DB_PATH", "/tmp/other.db")
			_ = os.Setenv("GRADEBOOK_WEIGHT_TOLERANCE", "1e-6")
			_ = os.Setenv("GRADEBOOK_DB_LOG", "true")
			_ = os.Setenv("GRADEBOOK_LOG_LEVEL", "debug")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, "127.0.0.1:8080")
				convey.So(cfg.DBPath, convey.ShouldEqual, "/tmp/other.db")
				convey.So(cfg.WeightTolerance, convey.ShouldEqual, 1e-6)
				convey.So(cfg.DBLog, convey.ShouldBeTrue)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(`
addr: "127.0.0.1:9090"
db_path: "school.db"
chart_width_in: 8
chart_height_in: 5
log_format: json
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("GRADEBOOK_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, "127.0.0.1:9090")
				convey.So(cfg.DBPath, convey.ShouldEqual, "school.db")
				convey.So(cfg.ChartWidthIn, convey.ShouldEqual, 8.0)
				convey.So(cfg.ChartHeightIn, convey.ShouldEqual, 5.0)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.WeightTolerance, convey.ShouldEqual, 1e-8) // From defaults
			})
		})

		convey.Convey("When loading metrics settings from a YAML file", func() {
			tmpFile := createTempConfigFile(`
metrics_namespace: school
metrics_subsystem: web
http_buckets_ms: [5, 50, 500]
store_buckets_ms: [0.1, 1]
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("GRADEBOOK_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then the metric names and buckets are taken from the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.MetricsNamespace, convey.ShouldEqual, "school")
				convey.So(cfg.MetricsSubsystem, convey.ShouldEqual, "web")
				convey.So(cfg.HTTPBucketsMS, convey.ShouldResemble, []float64{5, 50, 500})
				convey.So(cfg.StoreBucketsMS, convey.ShouldResemble, []float64{0.1, 1})
			})
		})

		convey.Convey("When loading unsorted buckets from a YAML file", func() {
			tmpFile := createTempConfigFile(`
http_buckets_ms: [500, 5]
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("GRADEBOOK_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "http_buckets_ms")
			})
		})

		convey.Convey("When loading the metrics namespace from the environment", func() {
			_ = os.Setenv("GRADEBOOK_METRICS_NAMESPACE", "district")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then the env value is used", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.MetricsNamespace, convey.ShouldEqual, "district")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(`
addr: "127.0.0.1:9090"
db_path: "school.db"
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("GRADEBOOK_CONFIG", tmpFile)
			_ = os.Setenv("GRADEBOOK_DB_PATH", "env.db")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, "127.0.0.1:9090") // From file
				convey.So(cfg.DBPath, convey.ShouldEqual, "env.db")       // Overridden by env
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("GRADEBOOK_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("GRADEBOOK_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("GRADEBOOK_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
			})
		})

		convey.Convey("When loading config with a non-numeric tolerance", func() {
			_ = os.Setenv("GRADEBOOK_WEIGHT_TOLERANCE", "tiny")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with a negative tolerance", func() {
			_ = os.Setenv("GRADEBOOK_WEIGHT_TOLERANCE", "-0.1")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"GRADEBOOK_CONFIG",
		"GRADEBOOK_ADDR",
		"GRADEBOOK_DB_PATH",
		"GRADEBOOK_DB_LOG",
		"GRADEBOOK_LOG_LEVEL",
		"GRADEBOOK_LOG_FORMAT",
		"GRADEBOOK_WEIGHT_TOLERANCE",
		"GRADEBOOK_CHART_WIDTH_IN",
		"GRADEBOOK_CHART_HEIGHT_IN",
		"GRADEBOOK_METRICS_NAMESPACE",
		"GRADEBOOK_METRICS_SUBSYSTEM",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "gradebook-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
