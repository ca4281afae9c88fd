package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/gradebook/internal/adapters/chart"
	"github.com/okian/gradebook/internal/adapters/http/api"
	"github.com/okian/gradebook/internal/adapters/http/site"
	"github.com/okian/gradebook/internal/adapters/http/swagger"
	"github.com/okian/gradebook/internal/adapters/repository"
	app "github.com/okian/gradebook/internal/app"
	"github.com/okian/gradebook/internal/config"
	"github.com/okian/gradebook/pkg/logger"
	"github.com/okian/gradebook/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 30 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 10 * time.Second
	serviceMetricsInterval = 15 * time.Second
)

func main() {
	// Initialize logging with defaults until the configuration is known
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

// run serves the grade book until ctx is cancelled. The store is closed on
// every return path.
func run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.InitWith(os.Stdout, logger.Format(cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	metrics.Configure(
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithSubsystem(cfg.MetricsSubsystem),
		metrics.WithHTTPBuckets(cfg.HTTPBucketsMS),
		metrics.WithStoreBuckets(cfg.StoreBucketsMS),
	)

	store, err := repository.Open(ctx, cfg.DBPath, repository.WithSQLLogging(cfg.DBLog))
	if err != nil {
		return fmt.Errorf("failed to open grade store: %w", err)
	}

	svc := app.New(store,
		app.WithLogger(log.Named("service")),
		app.WithTolerance(cfg.WeightTolerance),
		app.WithChartRenderer(chart.NewRenderer(chart.WithSize(cfg.ChartWidthIn, cfg.ChartHeightIn))),
	)
	defer func() {
		if err := svc.Close(); err != nil {
			log.Error(context.Background(), "failed to close grade store", logger.Error(err))
		}
	}()

	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "grade book ready", logger.String("url", "http://"+cfg.Addr+"/"))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for shutdown signal or a failed listener
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// newHandler registers every route of the grade book over svc.
func newHandler(ctx context.Context, svc *app.Service) http.Handler {
	mux := http.NewServeMux()

	swagger.Register(ctx, mux)
	site.Register(ctx, mux)

	apiServer := api.NewServer(app.NewSession(svc), svc, svc)
	apiServer.Register(ctx, mux)

	return api.RequestID(mux)
}

// startServiceMetricsUpdater refreshes the stored-records gauge until ctx ends.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(ctx, svc)
		}
	}
}

// updateServiceMetrics reads the service stats; GetStats updates the gauges.
func updateServiceMetrics(ctx context.Context, svc *app.Service) {
	stats := svc.GetStats()
	if msg, ok := stats["storeError"].(string); ok {
		logger.Get().Warn(ctx, "stats unavailable", logger.String("error", msg))
	}
}
