package service

import "errors"

// ErrNothingToSave is returned by Session.Save before any successful compute.
// It is wrapped with grading.ErrValidation.
var ErrNothingToSave = errors.New("press compute first")
