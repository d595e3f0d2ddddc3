package worker

import (
	"errors"
)

// Sentinel errors for per-person smoothing failures.
var (
	ErrNonFinite = errors.New("smoothed series is not finite")
	ErrPanic     = errors.New("smoothing panicked")
)
