// Package model contains domain models passed between layers.
package model

// Evaluation is a graded evaluation as supplied by an evaluation source.
// Values are never mutated once produced.
type Evaluation struct {
	ID          string  // optional source identity, opaque
	Subject     string  // subject name, grouped by exact match
	Name        string  // optional label, e.g. "Contrôle 3"
	Grade       string  // grade symbol, e.g. "A+", "V", "j"
	Coefficient float64 // weighting factor, must be positive
	Period      string  // opaque, passed through
	Date        string  // opaque, passed through
}

// DefaultCoefficient applies when a source omits the coefficient.
const DefaultCoefficient = 1.0
