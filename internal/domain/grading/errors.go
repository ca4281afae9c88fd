package grading

import "errors"

// ErrValidation is the kind shared by every rejected, well-formed input.
var ErrValidation = errors.New("validation failed")

// Validation details. Each is wrapped with ErrValidation.
var (
	ErrNameRequired   = errors.New("name required")
	ErrNoGrades       = errors.New("no grades")
	ErrLengthMismatch = errors.New("length mismatch")
	ErrWeightSum      = errors.New("weights must sum to 1")
	ErrAverageRange   = errors.New("average out of range")
)
