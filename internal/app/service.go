// Package service maps every user action of the grade book onto one core
// operation: compute, save, reload, plot and export.
package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/okian/gradebook/internal/adapters/chart"
	"github.com/okian/gradebook/internal/adapters/export"
	"github.com/okian/gradebook/internal/adapters/repository"
	"github.com/okian/gradebook/internal/domain/grading"
	"github.com/okian/gradebook/internal/domain/model"
	"github.com/okian/gradebook/internal/domain/numlist"
	"github.com/okian/gradebook/pkg/errs"
	"github.com/okian/gradebook/pkg/logger"
	"github.com/okian/gradebook/pkg/metrics"
)

// Input is the raw text the user typed into the form.
type Input struct {
	Name    string `json:"name"`
	Grades  string `json:"grades"`
	Weights string `json:"weights"`
}

// Service runs user actions one at a time against a single store.
type Service struct {
	mu sync.Mutex

	store    repository.Store
	calc     *grading.Calculator
	renderer *chart.Renderer
	logger   logger.Logger

	computed int64
	rejected int64
	saved    int64

	closeOnce sync.Once
	closeErr  error
}

// New constructs a Service over store. The service owns store and closes it
// in Close.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		calc:     grading.New(),
		renderer: chart.NewRenderer(),
		logger:   logger.Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Compute parses the input and returns the averages. Weights are parsed
// only when the weights text is not blank.
func (s *Service) Compute(ctx context.Context, in Input) (grading.Result, error) {
	const op = "service.compute"

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.compute(in)
	if err != nil {
		s.rejected++
		metrics.RecordComputation(metrics.OutcomeRejected)
		metrics.RecordError(ErrorKind(err))
		s.logger.Debug(ctx, "computation rejected",
			logger.String("name", in.Name),
			logger.Error(err),
		)
		return grading.Result{}, errs.Wrap(op, err)
	}

	s.computed++
	metrics.RecordComputation(metrics.OutcomeOK)
	s.logger.Debug(ctx, "computed averages",
		logger.String("name", res.Name),
		logger.Int("grades", len(res.Grades)),
		logger.Bool("weighted", res.HasWeights()),
		logger.Float64("mean", res.Mean),
		logger.Float64("weightedMean", res.Weighted),
	)
	return res, nil
}

func (s *Service) compute(in Input) (grading.Result, error) {
	grades, err := numlist.Parse(in.Grades)
	if err != nil {
		return grading.Result{}, err
	}

	var weights []float64
	if strings.TrimSpace(in.Weights) != "" {
		weights, err = numlist.Parse(in.Weights)
		if err != nil {
			return grading.Result{}, err
		}
	}
	return s.calc.Compute(in.Name, grades, weights)
}

// Save recomputes res from its name, grades and weights and appends the
// outcome to the store. Nothing is written when validation fails.
func (s *Service) Save(ctx context.Context, res grading.Result) (model.GradeRecord, error) {
	const op = "service.save"

	s.mu.Lock()
	defer s.mu.Unlock()

	fresh, err := s.calc.Compute(res.Name, res.Grades, res.Weights)
	if err != nil {
		metrics.RecordError(ErrorKind(err))
		return model.GradeRecord{}, errs.Wrap(op, err)
	}

	rec := model.FromResult(fresh)
	id, err := s.store.Insert(ctx, rec)
	if err != nil {
		metrics.RecordError(ErrorKind(err))
		s.logger.Error(ctx, "failed to save record",
			logger.String("name", rec.Name),
			logger.Error(err),
		)
		return model.GradeRecord{}, errs.Wrap(op, err)
	}
	rec.ID = id

	s.saved++
	metrics.RecordRecordSaved()
	s.logger.Info(ctx, "record saved",
		logger.Int64("id", id),
		logger.String("name", rec.Name),
	)
	return rec, nil
}

// Records returns every stored record, most recent first.
func (s *Service) Records(ctx context.Context) ([]model.GradeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.store.FetchAllDescending(ctx)
	if err != nil {
		metrics.RecordError(ErrorKind(err))
		return nil, errs.Wrap("service.records", err)
	}
	return recs, nil
}

// Chart returns the chart points in insertion order.
func (s *Service) Chart(ctx context.Context) ([]model.ChartPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	points, err := s.store.FetchAllAscending(ctx)
	if err != nil {
		metrics.RecordError(ErrorKind(err))
		return nil, errs.Wrap("service.chart", err)
	}
	return points, nil
}

// ChartImage renders the averages chart in format to w.
func (s *Service) ChartImage(ctx context.Context, format string, w io.Writer) error {
	const op = "service.chart_image"

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := chart.ContentType(format); err != nil {
		return errs.Wrap(op, err)
	}
	points, err := s.store.FetchAllAscending(ctx)
	if err != nil {
		metrics.RecordError(ErrorKind(err))
		return errs.Wrap(op, err)
	}
	// Render into a buffer so a failed render writes nothing to w.
	var buf bytes.Buffer
	if err := s.renderer.Render(points, format, &buf); err != nil {
		metrics.RecordError(ErrorKind(err))
		return errs.Wrap(op, err)
	}
	_, err = buf.WriteTo(w)
	return err
}

// Export returns an xlsx workbook of every stored record.
func (s *Service) Export(ctx context.Context) (*bytes.Buffer, error) {
	const op = "service.export"

	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.store.FetchAllDescending(ctx)
	if err != nil {
		metrics.RecordError(ErrorKind(err))
		return nil, errs.Wrap(op, err)
	}
	points, err := s.store.FetchAllAscending(ctx)
	if err != nil {
		metrics.RecordError(ErrorKind(err))
		return nil, errs.Wrap(op, err)
	}
	buf, err := export.Workbook(recs, points)
	if err != nil {
		metrics.RecordError(ErrorKind(err))
		return nil, errs.Wrap(op, err)
	}
	s.logger.Info(ctx, "records exported", logger.Int("records", len(recs)))
	return buf, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := map[string]interface{}{
		"computations":    s.computed,
		"rejected":        s.rejected,
		"saved":           s.saved,
		"weightTolerance": s.calc.Tolerance(),
	}

	total, err := s.store.Count(context.Background())
	if err != nil {
		stats["storeError"] = errs.Message(err)
		return stats
	}
	stats["totalRecords"] = total
	return stats
}

// Close releases the store. Only the first call has an effect.
func (s *Service) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.logger.Info(context.Background(), "closing grade book store")
		s.closeErr = s.store.Close()
	})
	return s.closeErr
}

// Error kinds as reported to metrics and clients.
const (
	KindParse      = "parse"
	KindValidation = "validation"
	KindStorage    = "storage"
	KindInternal   = "internal"
)

// ErrorKind classifies err by its sentinel kind.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, numlist.ErrParse):
		return KindParse
	case errors.Is(err, grading.ErrValidation):
		return KindValidation
	case errors.Is(err, repository.ErrStorage):
		return KindStorage
	default:
		return KindInternal
	}
}
