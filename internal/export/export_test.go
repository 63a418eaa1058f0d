package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/sorfield/internal/config"
	"github.com/banshee-data/sorfield/internal/fsutil"
	"github.com/banshee-data/sorfield/internal/potential"
	"github.com/banshee-data/sorfield/internal/sweep"
)

var pngMagic = []byte("\x89PNG")

// solvedOutcome solves a 2x2mm box with a 100V lid and packages it the way
// the sweep runner does.
func solvedOutcome(t *testing.T, acceleration float64) sweep.Outcome {
	t.Helper()
	g, err := potential.New(2, 2, 1)
	require.NoError(t, err)
	require.NoError(t, g.SetFixedLine(3, potential.Horizontal, 0, 0, 0))
	require.NoError(t, g.SetFixedLine(3, potential.Vertical, 0, 0, 0))
	require.NoError(t, g.SetFixedLine(3, potential.Vertical, 2, 0, 0))
	require.NoError(t, g.SetFixedLine(3, potential.Horizontal, 0, 2, 100))
	g.SetGuess(50)

	res, err := g.Solve(acceleration, 0.01)
	require.NoError(t, err)
	return sweep.Outcome{
		Study:    "lid",
		Case:     sweep.Case{Granularity: 1, Acceleration: acceleration, Epsilon: 0.01},
		WidthMM:  2,
		HeightMM: 2,
		Result:   res,
		CSV:      g.CSV(),
		Text:     g.String(),
		Log:      g.DrainLog(),
		Field:    g.Matrix(),
	}
}

func TestWriter_ExportTablesAndLogs(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	w := NewWriter(mfs, "out", false)

	o := solvedOutcome(t, 1)
	require.NoError(t, w.Export(&o))
	require.NoError(t, w.Finish("lid"))

	assert.Equal(t, []string{
		"out/lid/Subdivs1,Acc1,E0.01.csv",
		"out/lid/Subdivs1,Acc1,E0.01.log",
		"out/lid/summary.csv",
	}, mfs.Files())

	table, err := mfs.ReadFile("out/lid/Subdivs1,Acc1,E0.01.csv")
	require.NoError(t, err)
	assert.Equal(t, "100,100,100\n0,25,0\n0,0,0\n", string(table))

	logText, err := mfs.ReadFile("out/lid/Subdivs1,Acc1,E0.01.log")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(logText), "Created new grid:"))
	assert.Contains(t, string(logText), "Finished calculation in")

	// Export keeps a trimmed copy and leaves the caller's outcome intact.
	assert.NotNil(t, o.Field)
	assert.NotEmpty(t, o.CSV)
}

func TestWriter_Summary(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	w := NewWriter(mfs, "out", false)

	a := solvedOutcome(t, 1)
	b := solvedOutcome(t, 1.5)
	b.Err = fmt.Errorf("%w: capped", potential.ErrConvergenceNotReached)
	b.Elapsed = 2500 * time.Microsecond
	require.NoError(t, w.Export(&a))
	require.NoError(t, w.Export(&b))
	require.NoError(t, w.Finish("lid"))

	data, err := mfs.ReadFile("out/lid/summary.csv")
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, summaryHeader, records[0])
	assert.Equal(t, "Subdivs1,Acc1,E0.01", records[1][0])
	assert.Equal(t, "1", records[1][2])
	assert.Equal(t, "true", records[1][6])
	assert.Empty(t, records[1][7])
	assert.Equal(t, "1.5", records[2][2])
	assert.Contains(t, records[2][7], "capped")
	assert.Equal(t, "2.5", records[2][8])
}

func TestWriter_RejectsUnsafeStudyName(t *testing.T) {
	for _, name := range []string{"", "..", "../escape", "a/b"} {
		t.Run(name, func(t *testing.T) {
			mfs := fsutil.NewMemoryFileSystem()
			w := NewWriter(mfs, "out", false)
			o := solvedOutcome(t, 1)
			o.Study = name
			require.Error(t, w.Export(&o))
			assert.Empty(t, mfs.Files())
		})
	}
}

func TestWriter_FinishWithoutOutcomes(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	require.NoError(t, NewWriter(mfs, "out", true).Finish("empty"))
	assert.Empty(t, mfs.Files())
}

func TestWriter_Plots(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	w := NewWriter(mfs, "out", true)

	a := solvedOutcome(t, 1)
	b := solvedOutcome(t, 1.5)
	require.NoError(t, w.Export(&a))
	require.NoError(t, w.Export(&b))
	require.NoError(t, w.Finish("lid"))

	for _, name := range []string{
		"out/lid/Subdivs1,Acc1,E0.01.png",
		"out/lid/Subdivs1,Acc1.5,E0.01.png",
		"out/lid/" + ConvergencePlotFile,
	} {
		data, err := mfs.ReadFile(name)
		require.NoError(t, err, name)
		assert.True(t, bytes.HasPrefix(data, pngMagic), "%s is not a PNG", name)
	}

	html, err := mfs.ReadFile("out/lid/" + ConvergenceHTMLFile)
	require.NoError(t, err)
	assert.Contains(t, string(html), "lid convergence")
	assert.Contains(t, string(html), "divisions")
	assert.Contains(t, string(html), "Acc1.5,E0.01")
}

type failingFS struct {
	*fsutil.MemoryFileSystem
}

func (failingFS) WriteFile(string, []byte, os.FileMode) error { return errors.New("read-only") }

func TestWriter_WriteError(t *testing.T) {
	w := NewWriter(failingFS{fsutil.NewMemoryFileSystem()}, "out", false)
	o := solvedOutcome(t, 1)
	err := w.Export(&o)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write table")
}

func TestPlotHeatmap(t *testing.T) {
	field := mat.NewDense(3, 4, []float64{
		0, 0, 0, 0,
		0, 10, 20, 0,
		100, 100, 100, 100,
	})
	var buf bytes.Buffer
	require.NoError(t, PlotHeatmap(&buf, field, 2, "field"))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestPlotHeatmap_UniformField(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PlotHeatmap(&buf, mat.NewDense(2, 2, []float64{5, 5, 5, 5}), 1, "flat"))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestPlotHeatmap_Errors(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, PlotHeatmap(&buf, mat.NewDense(1, 1, []float64{1}), 0, "bad"))

	nan := mat.NewDense(1, 2, nil)
	nan.Set(0, 0, math.NaN())
	nan.Set(0, 1, math.NaN())
	assert.ErrorIs(t, PlotHeatmap(&buf, nan, 1, "nan"), ErrNonFiniteField)

	// A single infinite point among finite ones is enough.
	inf := mat.NewDense(2, 2, []float64{0, 1, 2, math.Inf(1)})
	assert.ErrorIs(t, PlotHeatmap(&buf, inf, 1, "inf"), ErrNonFiniteField)
	huge := mat.NewDense(1, 2, []float64{-math.MaxFloat64, math.MaxFloat64})
	assert.ErrorIs(t, PlotHeatmap(&buf, huge, 1, "huge"), ErrNonFiniteField)
	assert.Zero(t, buf.Len(), "nothing is rendered for a rejected field")
}

func TestWriter_SkipsHeatmapForDivergedField(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	w := NewWriter(mfs, "out", true)

	o := solvedOutcome(t, 1)
	o.Field.Set(1, 1, math.NaN())
	require.NoError(t, w.Export(&o))

	assert.False(t, mfs.Exists("out/lid/Subdivs1,Acc1,E0.01.png"), "no heatmap for a non-finite field")
	assert.Contains(t, mfs.Files(), "out/lid/Subdivs1,Acc1,E0.01.csv")
}

func TestRunner_DivergingCaseKeepsStudyGoing(t *testing.T) {
	cfg := &config.StudyConfig{
		WidthMM:       ptr(6),
		HeightMM:      ptr(6),
		Granularities: []int{1},
		Runs: []config.RunSpec{
			{Acceleration: 3, Epsilon: 0.01},
			{Acceleration: 1, Epsilon: 0.01},
		},
	}
	mfs := fsutil.NewMemoryFileSystem()

	outcomes, err := sweep.NewRunner(cfg, nil, NewWriter(mfs, "out", true)).Run(context.Background(), sweep.Plan(cfg))
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.False(t, outcomes[0].Result.Converged)

	files := mfs.Files()
	assert.NotContains(t, files, "out/study/Subdivs1,Acc3,E0.01.png")
	assert.Contains(t, files, "out/study/Subdivs1,Acc3,E0.01.csv")
	assert.Contains(t, files, "out/study/Subdivs1,Acc1,E0.01.png")
	assert.Contains(t, files, "out/study/"+SummaryFile)
}

func ptr[T any](v T) *T { return &v }

func TestPlotConvergence_NoPositiveValues(t *testing.T) {
	var buf bytes.Buffer
	series := []Series{{Name: "flat", Points: nil}}
	assert.Error(t, PlotConvergence(&buf, "study", series))
}

func TestConvergenceSeries(t *testing.T) {
	o := solvedOutcome(t, 1)
	series := ConvergenceSeries([]sweep.Outcome{o})
	require.Len(t, series, 1)
	assert.Equal(t, "Subdivs1,Acc1,E0.01", series[0].Name)
	require.Len(t, series[0].Points, len(o.Result.Trace))
	assert.Equal(t, 1.0, series[0].Points[0].X)
	assert.Equal(t, 25.0, series[0].Points[0].Y)
}

func TestChartValue(t *testing.T) {
	assert.Equal(t, "-", chartValue(0))
	assert.Equal(t, "-", chartValue(math.NaN()))
	assert.Equal(t, 0.5, chartValue(0.5))
}

func TestConsole_Export(t *testing.T) {
	var buf bytes.Buffer
	o := solvedOutcome(t, 1)
	require.NoError(t, NewConsole(&buf).Export(&o))

	want := "Subdivs1,Acc1,E0.01 (converged in 2 iterations)\n" +
		"100,  100,  100\n0,  25,  0\n0,  0,  0\n\n"
	assert.Equal(t, want, buf.String())
}
