// Package numlist turns comma separated text into an ordered list of numbers.
package numlist

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/okian/gradebook/pkg/errs"
)

// Separator splits tokens in the input text.
const Separator = ","

// Parse splits text on commas, trims each token and converts the non-empty
// ones to finite float64 values, preserving their order.
//
// It fails with ErrParse when no number remains or any token is not a finite
// number.
func Parse(text string) ([]float64, error) {
	const op = "numlist.parse"

	parts := strings.Split(text, Separator)
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		tok := strings.TrimSpace(p)
		if tok == "" {
			continue
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, errs.WrapKind(op, ErrParse, fmt.Errorf("token %q", tok))
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errs.WrapKind(op, ErrParse, fmt.Errorf("token %q: %w", tok, errNonFinite))
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, errs.WrapKind(op, ErrParse, errEmpty)
	}
	return out, nil
}
