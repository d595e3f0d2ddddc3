package render

import "errors"

// Sentinel kinds for render errors.
var (
	ErrRender        = errors.New("render chart failed")
	ErrUnknownFormat = errors.New("unknown output format")
)
