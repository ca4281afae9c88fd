// Package grading validates grade inputs and computes plain and weighted means.
package grading

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/stat"

	"github.com/okian/gradebook/pkg/errs"
)

// Result is one successful computation. Values keep full precision.
type Result struct {
	Name     string    `json:"name"`
	Grades   []float64 `json:"grades"`
	Weights  []float64 `json:"weights"` // nil when no weights were given
	Mean     float64   `json:"mean"`
	Weighted float64   `json:"weighted"`
}

// HasWeights reports whether the result was computed with explicit weights.
func (r Result) HasWeights() bool { return r.Weights != nil }

// Calculator computes averages. The zero value is not usable; use New.
type Calculator struct {
	tolerance float64
}

// New creates a Calculator with DefaultTolerance unless overridden.
func New(opts ...Option) *Calculator {
	c := &Calculator{tolerance: DefaultTolerance}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tolerance returns the weight-sum tolerance in use.
func (c *Calculator) Tolerance() float64 { return c.tolerance }

// Compute validates its input and returns the mean and weighted mean of grades.
// A nil weights slice means "no weights": the weighted mean equals the mean.
func (c *Calculator) Compute(name string, grades, weights []float64) (Result, error) {
	const op = "grading.compute"

	name = strings.TrimSpace(name)
	if name == "" {
		return Result{}, errs.WrapKind(op, ErrValidation, ErrNameRequired)
	}
	if len(grades) == 0 {
		return Result{}, errs.WrapKind(op, ErrValidation, ErrNoGrades)
	}

	// Finite grades can still overflow the running sum.
	mean := stat.Mean(grades, nil)
	if !finite(mean) {
		return Result{}, errs.WrapKind(op, ErrValidation, fmt.Errorf("%w: mean is %v", ErrAverageRange, mean))
	}
	res := Result{
		Name:     name,
		Grades:   append([]float64(nil), grades...),
		Mean:     mean,
		Weighted: mean,
	}
	if weights == nil {
		return res, nil
	}

	if len(weights) != len(grades) {
		return Result{}, errs.WrapKind(op, ErrValidation,
			fmt.Errorf("%w: %d weights for %d grades", ErrLengthMismatch, len(weights), len(grades)))
	}
	if sum := floats.Sum(weights); !scalar.EqualWithinAbs(sum, 1, c.tolerance) {
		return Result{}, errs.WrapKind(op, ErrValidation,
			fmt.Errorf("%w (got %g)", ErrWeightSum, sum))
	}

	res.Weights = append([]float64(nil), weights...)
	// stat.Mean divides by the weight sum; the result stays within [min, max]
	// of grades for non-negative weights.
	res.Weighted = stat.Mean(grades, weights)
	if !finite(res.Weighted) {
		return Result{}, errs.WrapKind(op, ErrValidation,
			fmt.Errorf("%w: weighted mean is %v", ErrAverageRange, res.Weighted))
	}
	return res, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
