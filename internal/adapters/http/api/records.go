package api

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/okian/gradebook/internal/adapters/chart"
	"github.com/okian/gradebook/internal/adapters/export"
	"github.com/okian/gradebook/internal/view"
	"github.com/okian/gradebook/pkg/errs"
)

// RecordsHandler serves the saved-results table.
type RecordsHandler struct {
	deps RecordsDependencies
}

// NewRecordsHandler creates a new records handler.
func NewRecordsHandler(deps RecordsDependencies) *RecordsHandler {
	return &RecordsHandler{deps: deps}
}

// HandleGetRecords handles GET /api/records requests.
func (h *RecordsHandler) HandleGetRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	recs, err := h.deps.Records(r.Context())
	if err != nil {
		writeKindError(w, errs.Wrap("api.get_records", err))
		return
	}
	writeJSON(w, http.StatusOK, view.Rows(recs))
}

// ChartHandler serves the averages chart as data and as an image.
type ChartHandler struct {
	deps RecordsDependencies
}

// NewChartHandler creates a new chart handler.
func NewChartHandler(deps RecordsDependencies) *ChartHandler {
	return &ChartHandler{deps: deps}
}

// HandleGetPoints handles GET /api/chart requests.
func (h *ChartHandler) HandleGetPoints(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	points, err := h.deps.Chart(r.Context())
	if err != nil {
		writeKindError(w, errs.Wrap("api.get_chart", err))
		return
	}
	writeJSON(w, http.StatusOK, points)
}

// HandleGetImage handles GET /chart.svg?format=svg|png requests.
func (h *ChartHandler) HandleGetImage(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_chart_image"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = chart.FormatSVG
	}
	contentType, err := chart.ContentType(format)
	if err != nil {
		writeKindError(w, errs.WrapKind(op, ErrBadRequest, err))
		return
	}

	var buf bytes.Buffer
	if err := h.deps.ChartImage(r.Context(), format, &buf); err != nil {
		writeKindError(w, errs.Wrap(op, err))
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// ExportHandler serves the xlsx download.
type ExportHandler struct {
	deps RecordsDependencies
}

// NewExportHandler creates a new export handler.
func NewExportHandler(deps RecordsDependencies) *ExportHandler {
	return &ExportHandler{deps: deps}
}

// HandleExport handles GET /api/export.xlsx requests.
func (h *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	buf, err := h.deps.Export(r.Context())
	if err != nil {
		writeKindError(w, errs.Wrap("api.export", err))
		return
	}
	w.Header().Set("Content-Description", "File Transfer")
	w.Header().Set("Content-Disposition", `attachment; filename="grades.xlsx"`)
	w.Header().Set("Content-Type", export.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
