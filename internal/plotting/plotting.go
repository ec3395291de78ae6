// Package plotting draws line, scatter and histogram charts of a
// frame.Dataset with gonum/plot and saves them as image files.
package plotting

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	apperrors "workoutcli/internal/errors"
	"workoutcli/internal/frame"
)

// DefaultBins is the histogram interval count when none is given
const DefaultBins = 10

// Options control chart labels and output size
type Options struct {
	Title string
	// Width and Height are in inches
	Width  float64
	Height float64
	Bins   int
}

// DefaultOptions returns a 6x4 inch chart with ten histogram bins
func DefaultOptions() Options {
	return Options{Width: 6, Height: 4, Bins: DefaultBins}
}

var supportedFormats = map[string]bool{
	"png": true, "svg": true, "pdf": true, "eps": true,
	"jpg": true, "jpeg": true, "tif": true, "tiff": true,
}

// Line plots every numeric column against the row label. Missing cells are
// skipped and columns without any values are left out.
func Line(ds *frame.Dataset, opts Options) (*plot.Plot, error) {
	cols := ds.NumericColumns()
	if len(cols) == 0 {
		return nil, apperrors.NewValidationError("dataset has no numeric columns to plot")
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "index"
	p.Legend.Top = true

	index := ds.Index()
	drawn := 0
	for i, col := range cols {
		vals, err := ds.Floats(col)
		if err != nil {
			return nil, err
		}
		pts := make(plotter.XYs, 0, len(vals))
		for row, v := range vals {
			if math.IsNaN(v) {
				continue
			}
			pts = append(pts, plotter.XY{X: float64(index[row]), Y: v})
		}
		if len(pts) == 0 {
			continue
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("cannot draw column %q: %v", col, err))
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(col, line)
		drawn++
	}
	if drawn == 0 {
		return nil, apperrors.NewValidationError("numeric columns have no values to plot")
	}
	return p, nil
}

// Scatter plots column y against column x. Rows missing either value are
// skipped.
func Scatter(ds *frame.Dataset, x, y string, opts Options) (*plot.Plot, error) {
	pts, err := ScatterPoints(ds, x, y)
	if err != nil {
		return nil, err
	}
	if len(pts) == 0 {
		return nil, apperrors.NewValidationError(fmt.Sprintf("no rows with both %q and %q", x, y))
	}

	s, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("cannot draw scatter: %v", err))
	}
	s.GlyphStyle.Color = plotutil.Color(0)

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = x
	p.Y.Label.Text = y
	p.Add(s)
	return p, nil
}

// ScatterPoints returns the (x, y) pairs Scatter draws
func ScatterPoints(ds *frame.Dataset, x, y string) (plotter.XYs, error) {
	xs, err := ds.Floats(x)
	if err != nil {
		return nil, err
	}
	ys, err := ds.Floats(y)
	if err != nil {
		return nil, err
	}

	pts := make(plotter.XYs, 0, len(xs))
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		pts = append(pts, plotter.XY{X: xs[i], Y: ys[i]})
	}
	return pts, nil
}

// Histogram plots the frequency of col values over opts.Bins equal-width
// intervals. Missing cells are skipped.
func Histogram(ds *frame.Dataset, col string, opts Options) (*plot.Plot, error) {
	h, err := histogram(ds, col, opts.Bins)
	if err != nil {
		return nil, err
	}
	h.FillColor = plotutil.Color(2)

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = col
	p.Y.Label.Text = "Frequency"
	p.Add(h)
	return p, nil
}

// Bins returns the intervals and counts Histogram draws
func Bins(ds *frame.Dataset, col string, n int) ([]plotter.HistogramBin, error) {
	h, err := histogram(ds, col, n)
	if err != nil {
		return nil, err
	}
	return h.Bins, nil
}

func histogram(ds *frame.Dataset, col string, n int) (*plotter.Histogram, error) {
	if n <= 0 {
		n = DefaultBins
	}
	vals, err := ds.PresentFloats(col)
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, apperrors.NewValidationError(fmt.Sprintf("column %q has no values to plot", col))
	}

	h, err := plotter.NewHist(plotter.Values(vals), n)
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("cannot bin column %q: %v", col, err))
	}
	if lo, hi := floats.Min(vals), floats.Max(vals); lo == hi {
		h.Bins, h.Width = constantBins(lo, len(vals), n)
	}
	return h, nil
}

// constantBins spreads n bins over [v-0.5, v+0.5] for a column holding the
// single value v, which lands in bin n/2
func constantBins(v float64, count, n int) ([]plotter.HistogramBin, float64) {
	width := 1 / float64(n)
	lo := v - 0.5
	bins := make([]plotter.HistogramBin, n)
	for i := range bins {
		bins[i] = plotter.HistogramBin{Min: lo + float64(i)*width, Max: lo + float64(i+1)*width}
	}
	bins[n/2].Weight = float64(count)
	return bins, width
}

// Save writes p to path in the format named by its extension, creating the
// parent directory when needed
func Save(p *plot.Plot, path string, opts Options) error {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if !supportedFormats[format] {
		return apperrors.NewValidationError(fmt.Sprintf("unsupported plot format %q", filepath.Ext(path)))
	}

	width, height := opts.Width, opts.Height
	if width <= 0 {
		width = DefaultOptions().Width
	}
	if height <= 0 {
		height = DefaultOptions().Height
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("failed to create %s", dir), err)
		}
	}
	if err := p.Save(vg.Length(width)*vg.Inch, vg.Length(height)*vg.Inch, path); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to save plot %s", path), err)
	}
	return nil
}
