package api

import (
	"encoding/json"
	"net/http"

	service "github.com/okian/gradebook/internal/app"
	"github.com/okian/gradebook/internal/domain/grading"
	"github.com/okian/gradebook/internal/view"
	"github.com/okian/gradebook/pkg/errs"
)

// computeRequest is the raw form text.
type computeRequest struct {
	Name    string `json:"name"`
	Grades  string `json:"grades"`
	Weights string `json:"weights"`
}

type computeResponse struct {
	grading.Result
	MeanText     string `json:"mean_text"`
	WeightedText string `json:"weighted_text"`
}

type saveResponse struct {
	Message string   `json:"message"`
	Record  view.Row `json:"record"`
}

// ComputeHandler handles the compute and save actions.
type ComputeHandler struct {
	deps SessionDependencies
}

// NewComputeHandler creates a new compute handler.
func NewComputeHandler(deps SessionDependencies) *ComputeHandler {
	return &ComputeHandler{deps: deps}
}

// HandleCompute handles POST /api/compute requests.
func (h *ComputeHandler) HandleCompute(w http.ResponseWriter, r *http.Request) {
	const op = "api.compute"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req computeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeKindError(w, errs.WrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := h.deps.Compute(r.Context(), service.Input{
		Name:    req.Name,
		Grades:  req.Grades,
		Weights: req.Weights,
	})
	if err != nil {
		writeKindError(w, errs.Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, computeResponse{
		Result:       res,
		MeanText:     view.FormatAverage(res.Mean),
		WeightedText: view.FormatAverage(res.Weighted),
	})
}

// HandleSave handles POST /api/save requests. It persists the pending result.
func (h *ComputeHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	const op = "api.save"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	rec, err := h.deps.Save(r.Context())
	if err != nil {
		writeKindError(w, errs.Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, saveResponse{Message: "record saved", Record: view.RowOf(rec)})
}
