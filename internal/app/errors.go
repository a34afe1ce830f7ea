package service

import (
	"errors"
)

// Sentinel error kinds for the analysis service.
var (
	ErrInvalidRequest     = errors.New("invalid analysis request")
	ErrTooManyEvaluations = errors.New("too many evaluations")
)
