package grading

import (
	"errors"
	"fmt"
	"strings"

	"github.com/okian/brevet/internal/domain/model"
)

// Policy decides what Analyze does with a malformed record.
type Policy int

// Supported policies.
const (
	// PolicySkip excludes malformed records and reports them in Analysis.Skipped.
	PolicySkip Policy = iota
	// PolicyAbort fails the whole analysis with the first malformed record's error.
	PolicyAbort
)

// ParsePolicy accepts "skip" and "abort".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return PolicySkip, nil
	case "abort":
		return PolicyAbort, nil
	default:
		return PolicySkip, fmt.Errorf("unknown policy: %s", s)
	}
}

func (p Policy) String() string {
	if p == PolicyAbort {
		return "abort"
	}
	return "skip"
}

// Skip reasons.
const (
	ReasonInvalidGrade       = "invalid_grade"
	ReasonInvalidCoefficient = "invalid_coefficient"
)

// SkippedRecord is a malformed record excluded under PolicySkip.
type SkippedRecord struct {
	Record RecordRef
	Reason string
	Err    error
}

// Analysis is the outcome of one Analyze call.
type Analysis struct {
	Normalized      []NormalizedEvaluation
	SubjectAverages map[string]SubjectAverage
	Brevet          BrevetStats
	Skipped         []SkippedRecord
}

// Option applies a configuration option to Analyze.
type Option func(*options)

type options struct {
	policy Policy
}

// WithPolicy sets the malformed-record policy. Unknown values are ignored.
func WithPolicy(p Policy) Option {
	return func(o *options) {
		if p == PolicySkip || p == PolicyAbort {
			o.policy = p
		}
	}
}

// Analyze normalizes evals, then derives subject averages and Brevet
// statistics from the valid records.
//
// Under PolicyAbort the first malformed record aborts the call with its
// typed error. Under PolicySkip malformed records are listed in Skipped.
// A record that would push the total weighted points or total coefficient
// past maxTotal is malformed too (*InvalidCoefficientError).
// When no valid record remains Analyze returns *InsufficientDataError
// together with the partial Analysis, so callers can still report what was
// skipped.
func Analyze(evals []model.Evaluation, opts ...Option) (Analysis, error) {
	o := options{policy: PolicySkip}
	for _, opt := range opts {
		opt(&o)
	}

	res := Analysis{Normalized: make([]NormalizedEvaluation, 0, len(evals))}
	var weightedTotal, coefTotal float64
	for i, ev := range evals {
		n, err := normalize(ev, refOf(i, ev))
		if err == nil && (weightedTotal+n.WeightedPoints > maxTotal || coefTotal+n.Coefficient > maxTotal) {
			err = &InvalidCoefficientError{Coefficient: ev.Coefficient, Record: refOf(i, ev)}
		}
		if err != nil {
			if o.policy == PolicyAbort {
				return Analysis{}, err
			}
			res.Skipped = append(res.Skipped, skippedFrom(refOf(i, ev), err))
			continue
		}
		weightedTotal += n.WeightedPoints
		coefTotal += n.Coefficient
		res.Normalized = append(res.Normalized, n)
	}

	res.SubjectAverages = Aggregate(res.Normalized)
	stats, err := ComputeBrevet(res.Normalized)
	if err != nil {
		var insufficient *InsufficientDataError
		if errors.As(err, &insufficient) {
			insufficient.Skipped = len(res.Skipped)
		}
		return res, err
	}
	res.Brevet = stats
	return res, nil
}

func skippedFrom(ref RecordRef, err error) SkippedRecord {
	reason := ReasonInvalidGrade
	if errors.Is(err, ErrInvalidCoefficient) {
		reason = ReasonInvalidCoefficient
	}
	return SkippedRecord{Record: ref, Reason: reason, Err: err}
}
