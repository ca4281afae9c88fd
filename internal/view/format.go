// Package view formats stored grade data for display.
package view

import (
	"math"
	"strconv"
	"strings"

	"github.com/okian/gradebook/internal/domain/model"
)

// FormatAverage renders an average with two decimals.
func FormatAverage(x float64) string {
	return strconv.FormatFloat(x, 'f', 2, 64)
}

// GradesPreview renders grades comma separated; whole numbers drop their
// decimals, everything else gets two.
func GradesPreview(grades []float64) string {
	parts := make([]string, len(grades))
	for i, g := range grades {
		if g == math.Trunc(g) && !math.IsInf(g, 0) {
			parts[i] = strconv.FormatFloat(g, 'f', 0, 64)
			continue
		}
		parts[i] = strconv.FormatFloat(g, 'f', 2, 64)
	}
	return strings.Join(parts, ",")
}

// Row is one line of the saved-results table.
type Row struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Grades   string `json:"grades"`
	Mean     string `json:"mean"`
	Weighted string `json:"weighted"`
}

// RowOf converts one record to a table row.
func RowOf(r model.GradeRecord) Row {
	return Row{
		ID:       r.ID,
		Name:     r.Name,
		Grades:   GradesPreview(r.Grades),
		Mean:     FormatAverage(r.Mean),
		Weighted: FormatAverage(r.Weighted),
	}
}

// Rows converts records, kept in the order given, to table rows.
func Rows(recs []model.GradeRecord) []Row {
	out := make([]Row, len(recs))
	for i, r := range recs {
		out[i] = RowOf(r)
	}
	return out
}
