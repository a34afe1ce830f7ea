package grading

import (
	"math"

	"github.com/okian/brevet/internal/domain/model"
)

// NormalizedEvaluation is an evaluation with its grade converted to points.
type NormalizedEvaluation struct {
	model.Evaluation

	Symbol         Symbol
	Points         float64
	WeightedPoints float64 // Points * Coefficient
}

// maxTotal bounds weighted points and every running sum of them, so that
// totals, averages and the JSON report stay finite whatever the input order.
const maxTotal = math.MaxFloat64 / 4

// Normalize converts ev into points. It fails with *InvalidGradeError for an
// unknown symbol and *InvalidCoefficientError for a coefficient that is not
// a positive finite number or whose weighted points exceed maxTotal.
func Normalize(ev model.Evaluation) (NormalizedEvaluation, error) {
	return normalize(ev, refOf(-1, ev))
}

func normalize(ev model.Evaluation, ref RecordRef) (NormalizedEvaluation, error) {
	sym, err := ParseSymbol(ev.Grade)
	if err != nil {
		return NormalizedEvaluation{}, &InvalidGradeError{Symbol: ev.Grade, Record: ref}
	}
	if !validCoefficient(ev.Coefficient) {
		return NormalizedEvaluation{}, &InvalidCoefficientError{Coefficient: ev.Coefficient, Record: ref}
	}
	points := sym.Points()
	return NormalizedEvaluation{
		Evaluation:     ev,
		Symbol:         sym,
		Points:         points,
		WeightedPoints: points * ev.Coefficient,
	}, nil
}

// validCoefficient also rejects NaN: every comparison with NaN is false.
func validCoefficient(c float64) bool {
	return c > 0 && c*MaxPoints <= maxTotal
}

func refOf(index int, ev model.Evaluation) RecordRef {
	return RecordRef{Index: index, ID: ev.ID, Subject: ev.Subject, Name: ev.Name}
}
