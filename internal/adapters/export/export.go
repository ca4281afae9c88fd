// Package export writes stored grade records to an xlsx workbook.
package export

import (
	"bytes"
	"errors"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/okian/gradebook/internal/domain/model"
	"github.com/okian/gradebook/pkg/errs"
	"github.com/okian/gradebook/pkg/metrics"
)

// Sheet names.
const (
	ResultsSheet  = "Results"
	AveragesSheet = "Averages"
)

// ContentType is the MIME type of the produced workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ErrExport is the kind of every export failure.
var ErrExport = errors.New("export failed")

var (
	resultsHeader  = []any{"ID", "Name", "Grades", "Weights", "Mean", "Weighted"}
	averagesHeader = []any{"Name", "Weighted"}
)

// Workbook builds a workbook with a Results sheet holding records in the
// order given and an Averages sheet holding points in the order given.
func Workbook(records []model.GradeRecord, points []model.ChartPoint) (*bytes.Buffer, error) {
	const op = "export.workbook"

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ResultsSheet); err != nil {
		return nil, errs.WrapKind(op, ErrExport, err)
	}
	if _, err := f.NewSheet(AveragesSheet); err != nil {
		return nil, errs.WrapKind(op, ErrExport, err)
	}

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, errs.WrapKind(op, ErrExport, err)
	}

	rows := make([][]any, 0, len(records)+1)
	rows = append(rows, resultsHeader)
	for _, r := range records {
		rows = append(rows, []any{r.ID, r.Name, joinFloats(r.Grades), joinFloats(r.Weights), r.Mean, r.Weighted})
	}
	if err := writeSheet(f, ResultsSheet, rows, header); err != nil {
		return nil, errs.WrapKind(op, ErrExport, err)
	}

	rows = make([][]any, 0, len(points)+1)
	rows = append(rows, averagesHeader)
	for _, p := range points {
		rows = append(rows, []any{p.Name, p.Weighted})
	}
	if err := writeSheet(f, AveragesSheet, rows, header); err != nil {
		return nil, errs.WrapKind(op, ErrExport, err)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, errs.WrapKind(op, ErrExport, err)
	}
	metrics.RecordExport()
	return buf, nil
}

func writeSheet(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	last, err := excelize.ColumnNumberToName(len(rows[0]))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last+"1", headerStyle); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", last, 14)
}

// joinFloats keeps full precision; nil renders as an empty cell.
func joinFloats(vs []float64) string {
	if vs == nil {
		return ""
	}
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}
