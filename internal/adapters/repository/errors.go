package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrStorage = errors.New("storage error")

	ErrMissingField = errors.New("missing required field")
	ErrClosed       = errors.New("store closed")
)
