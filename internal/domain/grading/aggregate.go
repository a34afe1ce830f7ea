package grading

import "slices"

// SubjectAverage is the weighted average of one subject on the points scale.
type SubjectAverage struct {
	Subject             string
	TotalWeightedPoints float64
	TotalCoefficient    float64
	Average             float64 // TotalWeightedPoints / TotalCoefficient
	AverageOn20         float64 // Average rescaled to 0-20
	Count               int
}

// subjectTotals collects per-subject contributions; sums are taken in
// sorted order so the result does not depend on input order.
type subjectTotals struct {
	weighted     []float64
	coefficients []float64
}

// Aggregate groups evaluations by exact subject name and computes each
// subject's weighted average. Subjects whose total coefficient is zero are
// omitted.
func Aggregate(evals []NormalizedEvaluation) map[string]SubjectAverage {
	groups := reduce(evals, map[string]subjectTotals{}, func(acc map[string]subjectTotals, n NormalizedEvaluation) map[string]subjectTotals {
		t := acc[n.Subject]
		t.weighted = append(t.weighted, n.WeightedPoints)
		t.coefficients = append(t.coefficients, n.Coefficient)
		acc[n.Subject] = t
		return acc
	})

	averages := make(map[string]SubjectAverage, len(groups))
	for subject, t := range groups {
		coef := stableSum(t.coefficients)
		if coef <= 0 {
			continue
		}
		weighted := stableSum(t.weighted)
		avg := weighted / coef
		averages[subject] = SubjectAverage{
			Subject:             subject,
			TotalWeightedPoints: weighted,
			TotalCoefficient:    coef,
			Average:             avg,
			AverageOn20:         avg * scale20,
			Count:               len(t.coefficients),
		}
	}
	return averages
}

func reduce[T, A any](xs []T, acc A, step func(A, T) A) A {
	for _, x := range xs {
		acc = step(acc, x)
	}
	return acc
}

// stableSum adds values in ascending order so that any permutation of the
// same multiset yields the same float64.
func stableSum(xs []float64) float64 {
	sorted := slices.Clone(xs)
	slices.Sort(sorted)
	return reduce(sorted, 0.0, func(acc, x float64) float64 { return acc + x })
}
