package names

import "errors"

// Sentinel kinds for name data errors.
var (
	ErrBadTable = errors.New("malformed name normalization table")
)
