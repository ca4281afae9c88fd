// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/okian/gradebook/internal/adapters/repository"
	service "github.com/okian/gradebook/internal/app"
	"github.com/okian/gradebook/internal/domain/grading"
	"github.com/okian/gradebook/internal/domain/model"
	"github.com/okian/gradebook/internal/domain/numlist"
	"github.com/okian/gradebook/pkg/errs"
	"github.com/okian/gradebook/pkg/logger"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 64 << 10

// SessionDependencies are the actions that act on the pending result.
type SessionDependencies interface {
	Compute(ctx context.Context, in service.Input) (grading.Result, error)
	Save(ctx context.Context) (model.GradeRecord, error)
}

// RecordsDependencies are the read-only views over the stored records.
type RecordsDependencies interface {
	Records(ctx context.Context) ([]model.GradeRecord, error)
	Chart(ctx context.Context) ([]model.ChartPoint, error)
	ChartImage(ctx context.Context, format string, w io.Writer) error
	Export(ctx context.Context) (*bytes.Buffer, error)
}

// Server wires HTTP routes for the grade book API.
type Server struct {
	healthHandler  *HealthHandler
	metricsHandler *MetricsHandler
	statsHandler   *StatsHandler
	computeHandler *ComputeHandler
	recordsHandler *RecordsHandler
	chartHandler   *ChartHandler
	exportHandler  *ExportHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(session SessionDependencies, records RecordsDependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		metricsHandler: NewMetricsHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		computeHandler: NewComputeHandler(session),
		recordsHandler: NewRecordsHandler(records),
		chartHandler:   NewChartHandler(records),
		exportHandler:  NewExportHandler(records),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.metricsHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/compute", MetricsMiddleware(s.computeHandler.HandleCompute, "compute"))
	mux.HandleFunc("/api/save", MetricsMiddleware(s.computeHandler.HandleSave, "save"))
	mux.HandleFunc("/api/records", MetricsMiddleware(s.recordsHandler.HandleGetRecords, "records"))
	mux.HandleFunc("/api/chart", MetricsMiddleware(s.chartHandler.HandleGetPoints, "chart"))
	mux.HandleFunc("/chart.svg", MetricsMiddleware(s.chartHandler.HandleGetImage, "chart_image"))
	mux.HandleFunc("/api/export.xlsx", MetricsMiddleware(s.exportHandler.HandleExport, "export"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON encodes v before any header is written. An unencodable value is
// answered with 500 internal_error.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		logger.Get().Error(context.Background(), "response encoding failed",
			logger.Int("status", status), logger.Error(err))
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Code: "internal_error", Message: "response could not be encoded"})
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = errs.Message(err)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeKindError maps the kind of err to a status and error code.
func writeKindError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, err)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, numlist.ErrParse):
		return http.StatusBadRequest, "parse_error"
	case errors.Is(err, grading.ErrValidation):
		return http.StatusUnprocessableEntity, "validation_error"
	case errors.Is(err, repository.ErrStorage):
		return http.StatusServiceUnavailable, "storage_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
