package api

import (
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/brevet/internal/app"
	"github.com/okian/brevet/internal/domain/grading"
	"github.com/okian/brevet/internal/domain/types"
)

// AnalyzeHandler handles POST /analyze.
type AnalyzeHandler struct {
	analyzer     Analyzer
	maxBodyBytes int64
}

// NewAnalyzeHandler creates a new analyze handler.
func NewAnalyzeHandler(analyzer Analyzer, maxBodyBytes int64) *AnalyzeHandler {
	return &AnalyzeHandler{analyzer: analyzer, maxBodyBytes: maxBodyBytes}
}

// HandleAnalyze decodes the evaluations, runs the analysis and writes the report.
// Query parameters policy, notation and lang override the service defaults;
// without lang the Accept-Language header is used.
func (h *AnalyzeHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	const op = "api.analyze"
	if !allowOnly(w, r, op, http.MethodPost) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	var body types.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", WrapKind(op, ErrPayloadTooLarge, err))
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	q := r.URL.Query()
	lang := q.Get("lang")
	if lang == "" {
		lang = r.Header.Get("Accept-Language")
	}
	req := types.AnalysisRequest{
		Evaluations: types.ToModels(body.Evaluations),
		Policy:      q.Get("policy"),
		Notation:    q.Get("notation"),
		Language:    lang,
	}

	report, err := h.analyzer.Analyze(r.Context(), req)
	if err != nil {
		status, code := classify(err)
		resp := newErrorResponse(status, code, err)
		if errors.Is(err, grading.ErrInsufficientData) {
			resp.Skipped = report.Skipped
		}
		writeJSON(w, status, resp)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// classify maps analysis errors to an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, grading.ErrInvalidGrade):
		return http.StatusUnprocessableEntity, grading.ReasonInvalidGrade
	case errors.Is(err, grading.ErrInvalidCoefficient):
		return http.StatusUnprocessableEntity, grading.ReasonInvalidCoefficient
	case errors.Is(err, grading.ErrInsufficientData):
		return http.StatusUnprocessableEntity, "insufficient_data"
	case errors.Is(err, service.ErrTooManyEvaluations):
		return http.StatusBadRequest, "too_many_evaluations"
	case errors.Is(err, service.ErrInvalidRequest):
		return http.StatusBadRequest, "bad_request"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
