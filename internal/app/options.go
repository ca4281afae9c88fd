package service

import (
	"github.com/okian/gradebook/internal/adapters/chart"
	"github.com/okian/gradebook/internal/domain/grading"
	"github.com/okian/gradebook/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTolerance sets the absolute tolerance for the weight sum check.
func WithTolerance(tol float64) Option {
	return func(s *Service) {
		if tol > 0 {
			s.calc = grading.New(grading.WithTolerance(tol))
		}
	}
}

// WithChartRenderer replaces the default chart renderer.
func WithChartRenderer(r *chart.Renderer) Option {
	return func(s *Service) {
		if r != nil {
			s.renderer = r
		}
	}
}
