// Package service wraps the grading engine with logging, metrics and
// per-process statistics. It is what the HTTP API and the CLI call.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/okian/brevet/internal/domain/grading"
	"github.com/okian/brevet/internal/domain/types"
	"github.com/okian/brevet/internal/i18n"
	"github.com/okian/brevet/pkg/logger"
	"github.com/okian/brevet/pkg/metrics"
)

const defaultMaxEvaluations = 10_000

// Service runs analyses. It is safe for concurrent use.
type Service struct {
	mu sync.RWMutex

	// Defaults applied when a request leaves a field empty
	policy         grading.Policy
	notation       grading.Notation
	language       language.Tag
	maxEvaluations int

	now   func() time.Time
	newID func() string

	// Statistics
	startedAt          time.Time
	analyses           int64
	failures           int64
	evaluationsSeen    int64
	evaluationsSkipped int64
	lastAnalysisAt     time.Time

	logger logger.Logger
}

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

// WithPolicy sets the default invalid-record policy.
func WithPolicy(p grading.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithNotation sets the default display notation.
func WithNotation(n grading.Notation) Option {
	return func(s *Service) {
		s.notation = n
	}
}

// WithLanguage sets the default report language.
func WithLanguage(tag language.Tag) Option {
	return func(s *Service) {
		if tag != language.Und {
			s.language = tag
		}
	}
}

// WithMaxEvaluations caps the number of evaluations accepted per analysis.
func WithMaxEvaluations(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxEvaluations = n
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides the analysis ID generator, for tests.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		policy:         grading.PolicySkip,
		notation:       grading.NotationLetters,
		language:       i18n.Default,
		maxEvaluations: defaultMaxEvaluations,
		now:            time.Now,
		newID:          uuid.NewString,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.startedAt = s.now()

	return s
}

// Analyze validates the request options, runs the engine and builds the
// report. On *grading.InsufficientDataError the partial report (skipped
// records, no Brevet statistics) is returned together with the error.
func (s *Service) Analyze(ctx context.Context, req types.AnalysisRequest) (types.Report, error) {
	start := time.Now()

	policy, notation, tag, err := s.resolve(req)
	if err != nil {
		metrics.RecordAnalysis(metrics.OutcomeRejected)
		return types.Report{}, err
	}
	if len(req.Evaluations) > s.maxEvaluations {
		metrics.RecordAnalysis(metrics.OutcomeRejected)
		return types.Report{}, fmt.Errorf("%w: %d exceeds limit %d", ErrTooManyEvaluations, len(req.Evaluations), s.maxEvaluations)
	}

	id := s.newID()
	log := s.logger
	log.Debug(ctx, "analysis started",
		logger.String("analysisID", id),
		logger.Int("evaluations", len(req.Evaluations)),
		logger.String("policy", policy.String()),
	)

	res, err := grading.Analyze(req.Evaluations, grading.WithPolicy(policy))

	for _, sk := range res.Skipped {
		metrics.RecordEvaluationSkipped(sk.Reason)
		log.Warn(ctx, "evaluation skipped",
			logger.String("analysisID", id),
			logger.Int("index", sk.Record.Index),
			logger.String("subject", sk.Record.Subject),
			logger.String("reason", sk.Reason),
			logger.Error(sk.Err),
		)
	}
	metrics.RecordEvaluationsNormalized(len(res.Normalized))
	s.record(len(req.Evaluations), len(res.Skipped), err != nil)

	latencyMs := float64(time.Since(start).Microseconds()) / 1000.0
	metrics.RecordAnalysisLatency(latencyMs)

	if err != nil {
		if errors.Is(err, grading.ErrInsufficientData) {
			metrics.RecordAnalysis(metrics.OutcomeInsufficientData)
			log.Warn(ctx, "analysis has no valid evaluation",
				logger.String("analysisID", id),
				logger.Int("skipped", len(res.Skipped)),
			)
			return buildReport(id, s.now(), policy, notation, i18n.NewPrinter(tag), res, len(req.Evaluations)), err
		}
		metrics.RecordAnalysis(metrics.OutcomeRejected)
		log.Warn(ctx, "analysis aborted",
			logger.String("analysisID", id),
			logger.Error(err),
		)
		return types.Report{}, err
	}

	metrics.RecordAnalysis(metrics.OutcomeSuccess)
	metrics.UpdateLastSocle(res.Brevet.SocleSur400)
	metrics.UpdateLastSubjectCount(len(res.SubjectAverages))

	log.Info(ctx, "analysis completed",
		logger.String("analysisID", id),
		logger.Int("evaluations", len(res.Normalized)),
		logger.Int("skipped", len(res.Skipped)),
		logger.Int("subjects", len(res.SubjectAverages)),
		logger.Float64("socle", res.Brevet.SocleSur400),
		logger.String("level", string(res.Brevet.PerformanceLevel)),
		logger.Float64("latencyMs", latencyMs),
	)

	return buildReport(id, s.now(), policy, notation, i18n.NewPrinter(tag), res, len(req.Evaluations)), nil
}

// resolve merges request options with the service defaults.
func (s *Service) resolve(req types.AnalysisRequest) (grading.Policy, grading.Notation, language.Tag, error) {
	policy := s.policy
	if req.Policy != "" {
		p, err := grading.ParsePolicy(req.Policy)
		if err != nil {
			return 0, 0, language.Und, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		policy = p
	}
	notation := s.notation
	if req.Notation != "" {
		n, err := grading.ParseNotation(req.Notation)
		if err != nil {
			return 0, 0, language.Und, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		notation = n
	}
	// Unsupported request languages fall back to the service default.
	tag := i18n.Match(req.Language, s.language.String())
	return policy, notation, tag, nil
}

func (s *Service) record(seen, skipped int, failed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyses++
	if failed {
		s.failures++
	}
	s.evaluationsSeen += int64(seen)
	s.evaluationsSkipped += int64(skipped)
	s.lastAnalysisAt = s.now()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"analyses":           s.analyses,
		"failures":           s.failures,
		"evaluationsSeen":    s.evaluationsSeen,
		"evaluationsSkipped": s.evaluationsSkipped,
		"policy":             s.policy.String(),
		"notation":           s.notation.String(),
		"language":           s.language.String(),
		"maxEvaluations":     s.maxEvaluations,
		"uptimeSeconds":      int64(s.now().Sub(s.startedAt).Seconds()),
	}
	if !s.lastAnalysisAt.IsZero() {
		stats["lastAnalysisAt"] = s.lastAnalysisAt.UTC().Format(time.RFC3339)
	}
	return stats
}

// MaxEvaluations returns the per-analysis evaluation limit.
func (s *Service) MaxEvaluations() int {
	return s.maxEvaluations
}
