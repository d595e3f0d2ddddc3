package samplearchive

import "errors"

// Sentinel kinds for generation and verification.
var (
	ErrInvalidConfig = errors.New("invalid sample archive config")
	ErrMismatch      = errors.New("chart does not match archive")
)
