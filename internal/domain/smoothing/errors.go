package smoothing

import "errors"

// Sentinel kinds for smoothing errors.
var (
	ErrInvalidWindow = errors.New("invalid smoothing window")
	ErrInvalidKernel = errors.New("invalid smoothing kernel")
)
