package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/okian/gradebook/internal/domain/grading"
	"github.com/okian/gradebook/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// averageTolerance bounds the difference between server and local averages.
const averageTolerance = 1e-9

// Run generates students, computes and saves each through the API, then checks
// that the server stored exactly that many new records.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Named("seed")

	log.Info(ctx, "starting grade book seeding",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("students", cfg.Students),
		logger.Float64("weightedRatio", cfg.WeightedRatio),
		logger.Int64("seed", int64(cfg.Seed)),
	)

	c := newClient(cfg.BaseURL, cfg.Timeout)

	// Step 1: Check service health
	if err := c.health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate students
	students, err := Generate(cfg, grading.New())
	if err != nil {
		return stats, fmt.Errorf("student generation failed: %w", err)
	}
	stats.Generated = len(students)

	before, err := c.countRecords(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to read records: %w", err)
	}

	// Step 3: Compute and save, one student at a time
	for _, s := range students {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		res, err := c.compute(ctx, s)
		if err != nil {
			stats.Failed++
			log.Warn(ctx, "compute failed", logger.String("name", s.Name), logger.Error(err))
			continue
		}
		stats.Computed++
		if !scalar.EqualWithinAbs(res.Mean, s.ExpectedMean, averageTolerance) ||
			!scalar.EqualWithinAbs(res.Weighted, s.ExpectedWeighted, averageTolerance) {
			stats.Mismatched++
			log.Warn(ctx, "server averages differ from local computation",
				logger.String("name", s.Name),
				logger.Float64("mean", res.Mean),
				logger.Float64("expectedMean", s.ExpectedMean),
				logger.Float64("weighted", res.Weighted),
				logger.Float64("expectedWeighted", s.ExpectedWeighted),
			)
		}
		if err := c.save(ctx); err != nil {
			stats.Failed++
			log.Warn(ctx, "save failed", logger.String("name", s.Name), logger.Error(err))
			continue
		}
		stats.Saved++
	}

	// Step 4: Verify the stored count
	after, err := c.countRecords(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to read records: %w", err)
	}

	// Step 5: Save students to file
	if cfg.OutputFile != "" {
		if err := saveStudents(cfg.OutputFile, students); err != nil {
			log.Warn(ctx, "failed to save students to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	log.Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("computed", stats.Computed),
		logger.Int("saved", stats.Saved),
		logger.Int("failed", stats.Failed),
		logger.Int("mismatched", stats.Mismatched),
		logger.String("duration", stats.Duration.String()),
	)

	if got := after - before; got != stats.Saved {
		return stats, fmt.Errorf("expected %d new records, found %d", stats.Saved, got)
	}
	if stats.Failed > 0 || stats.Mismatched > 0 {
		return stats, fmt.Errorf("%d failed and %d mismatched of %d students", stats.Failed, stats.Mismatched, stats.Generated)
	}
	return stats, nil
}

// saveStudents writes students to filename as a JSON array.
func saveStudents(filename string, students []Student) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(students, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal students: %w", err)
	}
	return os.WriteFile(filename, data, filePermission)
}
