package grading

import (
	"errors"
	"fmt"
	"strconv"
)

// Sentinel error kinds for this package. Typed errors below match them
// through errors.Is.
var (
	ErrInvalidGrade       = errors.New("invalid grade")
	ErrInvalidCoefficient = errors.New("invalid coefficient")
	ErrInsufficientData   = errors.New("insufficient data")
)

// RecordRef identifies the source record behind an error or a skip.
// Index is the position in the input sequence, -1 when unknown.
type RecordRef struct {
	Index   int
	ID      string
	Subject string
	Name    string
}

func (r RecordRef) String() string {
	s := "record"
	if r.Index >= 0 {
		s += " #" + strconv.Itoa(r.Index)
	}
	if r.ID != "" {
		s += " id=" + strconv.Quote(r.ID)
	}
	return s + " subject=" + strconv.Quote(r.Subject)
}

// InvalidGradeError reports a grade symbol outside the recognized scale.
type InvalidGradeError struct {
	Symbol string
	Record RecordRef
}

func (e *InvalidGradeError) Error() string {
	return fmt.Sprintf("%s %q (%s)", ErrInvalidGrade, e.Symbol, e.Record)
}

// Is matches ErrInvalidGrade.
func (e *InvalidGradeError) Is(target error) bool { return target == ErrInvalidGrade }

// InvalidCoefficientError reports a coefficient that is not a positive finite
// number, or one so large that the weighted totals would overflow.
type InvalidCoefficientError struct {
	Coefficient float64
	Record      RecordRef
}

func (e *InvalidCoefficientError) Error() string {
	return fmt.Sprintf("%s %v (%s)", ErrInvalidCoefficient, e.Coefficient, e.Record)
}

// Is matches ErrInvalidCoefficient.
func (e *InvalidCoefficientError) Is(target error) bool { return target == ErrInvalidCoefficient }

// InsufficientDataError reports that no average can be defined: the
// effective input is empty or its total coefficient is zero.
type InsufficientDataError struct {
	Evaluations      int     // valid evaluations considered
	Skipped          int     // records excluded before the computation
	TotalCoefficient float64 // sum of coefficients of the valid evaluations
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: %d evaluations, %d skipped, total coefficient %v",
		ErrInsufficientData, e.Evaluations, e.Skipped, e.TotalCoefficient)
}

// Is matches ErrInsufficientData.
func (e *InsufficientDataError) Is(target error) bool { return target == ErrInsufficientData }
