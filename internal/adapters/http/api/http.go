// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/brevet/internal/domain/types"
)

const defaultMaxBodyBytes = 1 << 20

// Analyzer runs one analysis. Implemented by the analysis service.
type Analyzer interface {
	Analyze(ctx context.Context, req types.AnalysisRequest) (types.Report, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	metricsHandler http.Handler
	statsHandler   *StatsHandler
	analyzeHandler *AnalyzeHandler
}

// Option configures the Server.
type Option func(*Server)

// WithMaxBodyBytes bounds POST /analyze bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.analyzeHandler.maxBodyBytes = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(analyzer Analyzer, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		healthHandler:  NewHealthHandler(),
		metricsHandler: NewMetricsHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		analyzeHandler: NewAnalyzeHandler(analyzer, defaultMaxBodyBytes),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", s.metricsHandler)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/analyze", MetricsMiddleware(s.analyzeHandler.HandleAnalyze, "analyze"))
}

type errorResponse struct {
	Code    string               `json:"code"`
	Message string               `json:"message"`
	Skipped []types.SkippedEntry `json:"skipped,omitempty"`
}

// writeJSON encodes v before touching the response, so an unencodable value
// becomes a 500 instead of a status with an empty body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Code: "internal_error", Message: WrapKind("api.writeJSON", ErrInternal, err).Error()})
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	writeJSON(w, status, newErrorResponse(status, code, err))
}

func newErrorResponse(status int, code string, err error) errorResponse {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	return errorResponse{Code: code, Message: msg}
}

func allowOnly(w http.ResponseWriter, r *http.Request, op, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", NewKind(op, ErrMethodNotAllowed))
	return false
}
