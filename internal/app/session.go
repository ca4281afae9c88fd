package service

import (
	"context"
	"sync"

	"github.com/okian/gradebook/internal/domain/grading"
	"github.com/okian/gradebook/internal/domain/model"
	"github.com/okian/gradebook/pkg/errs"
)

// Session holds the result of the last successful compute until it is saved.
// The pending result survives a save, so saving twice appends two records.
type Session struct {
	svc *Service

	mu      sync.Mutex
	pending *grading.Result
}

// NewSession creates a session with no pending result.
func NewSession(svc *Service) *Session {
	return &Session{svc: svc}
}

// Compute runs the computation and, on success only, replaces the pending result.
func (s *Session) Compute(ctx context.Context, in Input) (grading.Result, error) {
	res, err := s.svc.Compute(ctx, in)
	if err != nil {
		return grading.Result{}, err
	}

	s.mu.Lock()
	s.pending = &res
	s.mu.Unlock()
	return res, nil
}

// Save persists the pending result.
func (s *Session) Save(ctx context.Context) (model.GradeRecord, error) {
	res, ok := s.Pending()
	if !ok {
		return model.GradeRecord{}, errs.WrapKind("session.save", grading.ErrValidation, ErrNothingToSave)
	}
	return s.svc.Save(ctx, res)
}

// Pending returns the pending result, if any.
func (s *Session) Pending() (grading.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return grading.Result{}, false
	}
	return *s.pending, true
}
