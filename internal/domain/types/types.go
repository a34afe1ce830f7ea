// Package types contains common types used across the application
package types

import (
	"sort"
	"strings"
	"time"

	"github.com/okian/brevet/internal/domain/model"
)

// UnknownSubject names evaluations whose source gave no subject.
const UnknownSubject = "Unknown"

// EvaluationInput is the wire shape of one evaluation in JSON or YAML.
// A nil Coefficient means the source omitted it.
type EvaluationInput struct {
	ID          string   `json:"id,omitempty" yaml:"id,omitempty"`
	Subject     string   `json:"subject" yaml:"subject"`
	Name        string   `json:"name,omitempty" yaml:"name,omitempty"`
	Grade       string   `json:"grade" yaml:"grade"`
	Coefficient *float64 `json:"coefficient,omitempty" yaml:"coefficient,omitempty"`
	Period      string   `json:"period,omitempty" yaml:"period,omitempty"`
	Date        string   `json:"date,omitempty" yaml:"date,omitempty"`
}

// ToModel converts the input, applying the default coefficient when absent.
// An explicit zero or negative coefficient is kept for the engine to reject.
func (in EvaluationInput) ToModel() model.Evaluation {
	coef := model.DefaultCoefficient
	if in.Coefficient != nil {
		coef = *in.Coefficient
	}
	subject := in.Subject
	if strings.TrimSpace(subject) == "" {
		subject = UnknownSubject
	}
	return model.Evaluation{
		ID:          in.ID,
		Subject:     subject,
		Name:        in.Name,
		Grade:       in.Grade,
		Coefficient: coef,
		Period:      in.Period,
		Date:        in.Date,
	}
}

// FromModel is the inverse of ToModel.
func FromModel(ev model.Evaluation) EvaluationInput {
	coef := ev.Coefficient
	return EvaluationInput{
		ID:          ev.ID,
		Subject:     ev.Subject,
		Name:        ev.Name,
		Grade:       ev.Grade,
		Coefficient: &coef,
		Period:      ev.Period,
		Date:        ev.Date,
	}
}

// ToModels converts a batch of inputs.
func ToModels(in []EvaluationInput) []model.Evaluation {
	out := make([]model.Evaluation, len(in))
	for i := range in {
		out[i] = in[i].ToModel()
	}
	return out
}

// AnalyzeRequest mirrors the body of POST /analyze.
type AnalyzeRequest struct {
	Evaluations []EvaluationInput `json:"evaluations" yaml:"evaluations"`
}

// AnalysisRequest is what presentation layers hand to the analysis service.
// Empty strings select the service defaults.
type AnalysisRequest struct {
	Evaluations []model.Evaluation
	Policy      string // "skip" or "abort"
	Notation    string // "letters" or "colors"
	Language    string // BCP 47 tag or Accept-Language value
}

// EvaluationEntry is one normalized evaluation in a report.
type EvaluationEntry struct {
	ID             string  `json:"id,omitempty"`
	Subject        string  `json:"subject"`
	Name           string  `json:"name,omitempty"`
	Grade          string  `json:"grade"`  // as displayed in the report notation
	Symbol         string  `json:"symbol"` // canonical letter form
	Coefficient    float64 `json:"coefficient"`
	Period         string  `json:"period,omitempty"`
	Date           string  `json:"date,omitempty"`
	Points         float64 `json:"points"`
	WeightedPoints float64 `json:"weighted_points"`
}

// SubjectEntry is one subject average in a report.
type SubjectEntry struct {
	Subject             string  `json:"subject"`
	Average             float64 `json:"average"`
	AverageOn20         float64 `json:"average_sur_20"`
	TotalWeightedPoints float64 `json:"total_weighted_points"`
	TotalCoefficient    float64 `json:"total_coefficient"`
	Count               int     `json:"count"`
}

// BrevetEntry is the Brevet statistics bundle in a report.
type BrevetEntry struct {
	MoyennePoints          float64 `json:"moyenne_points"`
	MoyenneSur20           float64 `json:"moyenne_sur_20"`
	SocleSur400            float64 `json:"socle_sur_400"`
	PerformanceLevel       string  `json:"performance_level"`
	PerformanceDescription string  `json:"performance_description"`
}

// SkippedEntry is a malformed record excluded from the analysis.
type SkippedEntry struct {
	Index   int    `json:"index"`
	ID      string `json:"id,omitempty"`
	Subject string `json:"subject"`
	Name    string `json:"name,omitempty"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// Report is the exported result of one analysis. Numbers keep full
// precision; rounding is left to whoever displays them.
type Report struct {
	AnalysisID       string                  `json:"analysis_id"`
	GeneratedAt      time.Time               `json:"generated_at"`
	Policy           string                  `json:"policy"`
	Notation         string                  `json:"notation"`
	Language         string                  `json:"language"`
	Evaluations      []EvaluationEntry       `json:"evaluations"`
	SubjectAverages  map[string]SubjectEntry `json:"subject_averages"`
	BrevetStats      *BrevetEntry            `json:"brevet_stats"`
	Skipped          []SkippedEntry          `json:"skipped"`
	TotalEvaluations int                     `json:"total_evaluations"`
}

// SortedSubjects returns the subject averages ordered alphabetically.
func SortedSubjects(m map[string]SubjectEntry) []SubjectEntry {
	out := make([]SubjectEntry, 0, len(m))
	for _, s := range m {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Subject < out[j].Subject })
	return out
}
