package numlist

import "errors"

// Sentinel kinds for parse errors.
var (
	ErrParse = errors.New("invalid number format")

	errEmpty     = errors.New("no numbers found")
	errNonFinite = errors.New("value is not finite")
)
