package ranking

import "errors"

// Sentinel kinds for ranking errors.
var (
	ErrInvalidTopN       = errors.New("top_n must be positive")
	ErrInsufficientNames = errors.New("not enough anonymization names")
	ErrMisaligned        = errors.New("dense series lengths differ")
)
