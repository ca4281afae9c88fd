package grading

// DefaultTolerance is the absolute slack allowed between the weight sum and 1.
const DefaultTolerance = 1e-8

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithTolerance sets the absolute tolerance of the weight-sum check.
func WithTolerance(tol float64) Option {
	return func(c *Calculator) {
		if tol > 0 {
			c.tolerance = tol
		}
	}
}
