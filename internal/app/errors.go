package app

import (
	"errors"
)

// ErrPartialSmoothing reports a run that produced a chart from only the
// persons whose series smoothed cleanly. The failures are wrapped alongside.
var ErrPartialSmoothing = errors.New("some persons failed to smooth")
