// Package model contains domain models passed between layers.
package model

import "github.com/okian/gradebook/internal/domain/grading"

// GradeRecord is one persisted computation. Records are append-only.
type GradeRecord struct {
	ID       int64     `json:"id"`       // assigned by the store, never reused
	Name     string    `json:"name"`     // student identifier, duplicates allowed
	Grades   []float64 `json:"grades"`   // at least one finite value
	Weights  []float64 `json:"weights"`  // nil when the weighted mean is the plain mean
	Mean     float64   `json:"mean"`     // arithmetic mean of Grades
	Weighted float64   `json:"weighted"` // weighted mean of Grades by Weights
}

// ChartPoint is the per-record value plotted in the averages chart.
type ChartPoint struct {
	Name     string  `json:"name"`
	Weighted float64 `json:"weighted"`
}

// FromResult builds an unsaved record (ID zero) from a computation.
func FromResult(r grading.Result) GradeRecord {
	return GradeRecord{
		Name:     r.Name,
		Grades:   r.Grades,
		Weights:  r.Weights,
		Mean:     r.Mean,
		Weighted: r.Weighted,
	}
}
