// Package chart renders the per-student weighted averages bar chart.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"

	"github.com/okian/gradebook/internal/domain/model"
	"github.com/okian/gradebook/pkg/errs"
	"github.com/okian/gradebook/pkg/metrics"
)

// Supported output formats.
const (
	FormatSVG = "svg"
	FormatPNG = "png"
)

// Chart labels.
const (
	Title       = "Per-Student Weighted Averages"
	YLabel      = "Weighted Avg"
	Placeholder = "No records"
)

const (
	defaultWidthIn  = 6
	defaultHeightIn = 4
	minBarWidth     = 2 * vg.Millimeter
	maxBarWidth     = 12 * vg.Millimeter
)

// Sentinel kinds for chart errors.
var (
	ErrRender            = errors.New("chart render failed")
	ErrUnsupportedFormat = errors.New("unsupported chart format")
)

var barColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}

// Option applies a configuration option to the Renderer.
type Option func(*Renderer)

// WithSize sets the chart size in inches. Non-positive values are ignored.
func WithSize(widthIn, heightIn float64) Option {
	return func(r *Renderer) {
		if widthIn > 0 && heightIn > 0 {
			r.width = vg.Length(widthIn) * vg.Inch
			r.height = vg.Length(heightIn) * vg.Inch
		}
	}
}

// Renderer draws chart points as bars, one per record, in the order given.
type Renderer struct {
	width  vg.Length
	height vg.Length
}

// NewRenderer creates a Renderer sized 6x4 inches unless overridden.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		width:  defaultWidthIn * vg.Inch,
		height: defaultHeightIn * vg.Inch,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ContentType returns the MIME type for a supported format.
func ContentType(format string) (string, error) {
	switch strings.ToLower(format) {
	case FormatSVG:
		return "image/svg+xml", nil
	case FormatPNG:
		return "image/png", nil
	default:
		return "", errs.WrapKind("chart.content_type", ErrUnsupportedFormat, fmt.Errorf("%q", format))
	}
}

// Render writes the chart for points to w. With no points it draws a
// placeholder message instead of bars.
func (r *Renderer) Render(points []model.ChartPoint, format string, w io.Writer) error {
	const op = "chart.render"

	format = strings.ToLower(format)
	if _, err := ContentType(format); err != nil {
		return err
	}

	var (
		p   *plot.Plot
		err error
	)
	if len(points) == 0 {
		p, err = placeholderPlot()
	} else {
		p, err = r.barPlot(points)
	}
	if err != nil {
		return errs.WrapKind(op, ErrRender, err)
	}

	wt, err := p.WriterTo(r.width, r.height, format)
	if err != nil {
		return errs.WrapKind(op, ErrRender, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return errs.WrapKind(op, ErrRender, err)
	}
	metrics.RecordChartRender(format)
	return nil
}

func (r *Renderer) barPlot(points []model.ChartPoint) (*plot.Plot, error) {
	values := make(plotter.Values, len(points))
	names := make([]string, len(points))
	for i, pt := range points {
		values[i] = pt.Weighted
		names[i] = pt.Name
	}

	bars, err := plotter.NewBarChart(values, r.barWidth(len(points)))
	if err != nil {
		return nil, err
	}
	bars.Color = barColor
	bars.LineStyle.Width = 0

	grid := plotter.NewGrid()
	grid.Vertical.Color = nil
	grid.Horizontal.Color = color.Gray{Y: 210}

	p := plot.New()
	p.Title.Text = Title
	p.Y.Label.Text = YLabel
	p.Y.Min = math.Min(0, minValue(values))
	p.Add(grid, bars)
	p.NominalX(names...)
	p.X.Tick.Label.Rotation = math.Pi / 6
	p.X.Tick.Label.XAlign = text.XRight
	p.X.Tick.Label.YAlign = text.YCenter
	return p, nil
}

// barWidth spreads bars over roughly 70% of the plotting width.
func (r *Renderer) barWidth(n int) vg.Length {
	w := r.width * 0.7 / vg.Length(n)
	switch {
	case w < minBarWidth:
		return minBarWidth
	case w > maxBarWidth:
		return maxBarWidth
	}
	return w
}

func placeholderPlot() (*plot.Plot, error) {
	labels, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    []plotter.XY{{X: 0.5, Y: 0.5}},
		Labels: []string{Placeholder},
	})
	if err != nil {
		return nil, err
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = text.XCenter
		labels.TextStyle[i].YAlign = text.YCenter
	}

	p := plot.New()
	p.Add(labels)
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
	p.HideAxes()
	return p, nil
}

func minValue(vs plotter.Values) float64 {
	m := math.Inf(1)
	for _, v := range vs {
		m = math.Min(m, v)
	}
	return m
}
