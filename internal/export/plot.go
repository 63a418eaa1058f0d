package export

import (
	"errors"
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/sorfield/internal/sweep"
)

// ErrNonFiniteField is returned by PlotHeatmap for a field holding NaN or
// infinite values, as left behind by a diverged solve.
var ErrNonFiniteField = errors.New("field has non-finite values")

// fieldGrid adapts a solved field in storage order (row 0 at the bottom) to
// plotter.GridXYZ with axes in millimetres.
type fieldGrid struct {
	m           *mat.Dense
	granularity float64
}

func (g fieldGrid) Dims() (c, r int) {
	r, c = g.m.Dims()
	return c, r
}

func (g fieldGrid) Z(c, r int) float64 { return g.m.At(r, c) }
func (g fieldGrid) X(c int) float64    { return float64(c) / g.granularity }
func (g fieldGrid) Y(r int) float64    { return float64(r) / g.granularity }

// PlotHeatmap renders the field as a PNG heatmap, cool to warm with
// increasing potential.
func PlotHeatmap(w io.Writer, field *mat.Dense, granularity int, title string) error {
	if granularity <= 0 {
		return fmt.Errorf("granularity must be positive, got %d", granularity)
	}

	if r, c, ok := firstNonFinite(field); ok {
		return fmt.Errorf("%w: %v at r%d c%d", ErrNonFiniteField, field.At(r, c), r, c)
	}

	cm := moreland.SmoothBlueRed()
	cm.SetMin(0)
	cm.SetMax(1)
	hm := plotter.NewHeatMap(fieldGrid{m: field, granularity: float64(granularity)}, cm.Palette(255))
	if math.IsInf(hm.Max-hm.Min, 0) {
		return fmt.Errorf("%w: range %v to %v overflows", ErrNonFiniteField, hm.Min, hm.Max)
	}
	if hm.Min == hm.Max {
		hm.Max = hm.Min + 1
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s (%gV to %gV)", title, hm.Min, hm.Max)
	p.X.Label.Text = "x (mm)"
	p.Y.Label.Text = "y (mm)"
	p.Add(hm)

	return writePNG(w, p, 7*vg.Inch, 6*vg.Inch)
}

// Series is one case's convergence curve.
type Series struct {
	Name string
	// Points holds (iteration, max change) pairs.
	Points plotter.XYs
}

// ConvergenceSeries extracts each outcome's iteration trace.
func ConvergenceSeries(outcomes []sweep.Outcome) []Series {
	series := make([]Series, 0, len(outcomes))
	for _, o := range outcomes {
		pts := make(plotter.XYs, 0, len(o.Result.Trace))
		for _, rec := range o.Result.Trace {
			pts = append(pts, plotter.XY{X: float64(rec.Iteration), Y: rec.MaxChange})
		}
		series = append(series, Series{Name: o.Case.Label(), Points: pts})
	}
	return series
}

// PlotConvergence renders max change per iteration on a log axis, one line
// per series. Points that cannot be shown on a log axis (zero, negative,
// non-finite) are skipped.
func PlotConvergence(w io.Writer, title string, series []Series) error {
	p := plot.New()
	p.Title.Text = title + " convergence"
	p.X.Label.Text = "Iteration"
	p.Y.Label.Text = "Max change (V)"
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Legend.Top = true

	added := 0
	for i, s := range series {
		pts := positive(s.Points)
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("line %s: %w", s.Name, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(s.Name, line)
		added++
	}
	if added == 0 {
		return fmt.Errorf("no positive values to plot")
	}

	return writePNG(w, p, 14*vg.Inch, 6*vg.Inch)
}

func positive(xys plotter.XYs) plotter.XYs {
	out := make(plotter.XYs, 0, len(xys))
	for _, pt := range xys {
		if pt.Y > 0 && !math.IsInf(pt.Y, 0) {
			out = append(out, pt)
		}
	}
	return out
}

func firstNonFinite(m *mat.Dense) (row, col int, ok bool) {
	rows, cols := m.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if v := m.At(r, c); math.IsNaN(v) || math.IsInf(v, 0) {
				return r, c, true
			}
		}
	}
	return 0, 0, false
}

func hasPositive(series []Series) bool {
	for _, s := range series {
		if len(positive(s.Points)) > 0 {
			return true
		}
	}
	return false
}

func writePNG(w io.Writer, p *plot.Plot, width, height vg.Length) error {
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
