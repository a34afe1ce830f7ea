package source

import (
	"errors"
)

// Sentinel error kinds for evaluation sources.
var (
	ErrNoFiles           = errors.New("no evaluation files matched")
	ErrUnsupportedFormat = errors.New("unsupported evaluation file format")
	ErrDecode            = errors.New("decode evaluation file")
)
