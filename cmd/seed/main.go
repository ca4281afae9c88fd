package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/gradebook/internal/seed"
	"github.com/okian/gradebook/pkg/logger"
)

// Default configuration constants.
const (
	defaultStudents      = 25
	defaultWeightedRatio = 0.5
	defaultTimeout       = 10 * time.Second
)

func main() {
	var (
		baseURL  = flag.String("url", "http://127.0.0.1:9080", "Base URL of the grade book")
		students = flag.Int("students", defaultStudents, "Number of students to generate and save")
		weighted = flag.Float64("weighted", defaultWeightedRatio, "Share of students given explicit weights (0-1)")
		seedVal  = flag.Uint64("seed", uint64(time.Now().UnixNano()), "Random seed")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		output   = flag.String("output", "", "Optional JSON file receiving the generated students")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	if *students < 1 || *weighted < 0 || *weighted > 1 {
		os.Stderr.WriteString("students must be positive and weighted within [0, 1]\n")
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := &seed.Config{
		BaseURL:       *baseURL,
		Students:      *students,
		WeightedRatio: *weighted,
		Seed:          *seedVal,
		Timeout:       *timeout,
		OutputFile:    *output,
	}
	if _, err := seed.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "seeding failed", logger.Error(err))
		stop()
		os.Exit(1)
	}
}
