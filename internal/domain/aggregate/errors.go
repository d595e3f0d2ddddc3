package aggregate

import "errors"

// Sentinel kinds for aggregation contract violations. They indicate a bug in
// a source adapter.
var (
	ErrNoCreditors   = errors.New("event has no creditors")
	ErrInvalidWeight = errors.New("event weight must be finite and non-negative")
)
