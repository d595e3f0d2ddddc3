package source

import (
	"errors"
)

// Sentinel errors returned by readers and the registry.
var (
	ErrUnknownFormat    = errors.New("unknown archive format")
	ErrMalformedArchive = errors.New("malformed archive")
	ErrBadSpec          = errors.New("bad archive argument")
)
