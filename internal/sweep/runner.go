package sweep

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/sorfield/internal/config"
	"github.com/banshee-data/sorfield/internal/potential"
	"github.com/banshee-data/sorfield/internal/timeutil"
)

// Outcome is everything a sink needs about one finished case. The grid
// itself is reused for the next case, so the snapshot is taken here.
type Outcome struct {
	Study    string
	Case     Case
	WidthMM  int
	HeightMM int
	Result   potential.Result
	// Err is set when the solve stopped without reaching epsilon.
	Err error
	// Elapsed is the wall time spent in Solve.
	Elapsed time.Duration
	// CSV is Grid.CSV(); Text is the console form Grid.String().
	CSV  string
	Text string
	// Log is the diagnostics log drained after the solve.
	Log   string
	Field *mat.Dense
}

// Exporter persists an outcome's artifacts (tables, logs, plots).
type Exporter interface {
	Export(o *Outcome) error
}

// Recorder records an outcome in the run history.
type Recorder interface {
	Record(ctx context.Context, o *Outcome) error
}

// Finisher is implemented by exporters that write study-level artifacts
// once every case has run.
type Finisher interface {
	Finish(study string) error
}

// Runner executes a plan against one study configuration.
type Runner struct {
	cfg       *config.StudyConfig
	exporters []Exporter
	recorder  Recorder
	clock     timeutil.Clock
}

// NewRunner creates a Runner. recorder may be nil.
func NewRunner(cfg *config.StudyConfig, recorder Recorder, exporters ...Exporter) *Runner {
	return &Runner{cfg: cfg, exporters: exporters, recorder: recorder, clock: timeutil.RealClock{}}
}

// SetClock replaces the clock used to time each solve.
func (r *Runner) SetClock(c timeutil.Clock) {
	r.clock = c
}

// Run solves every case in order. A grid is built when the granularity
// changes and re-seeded with the guess before each case. A case that stops
// without converging is reported and the run continues; any other error
// aborts. The context is checked between cases only.
func (r *Runner) Run(ctx context.Context, cases []Case) ([]Outcome, error) {
	var grid *potential.Grid
	outcomes := make([]Outcome, 0, len(cases))
	study := r.cfg.GetName()
	failed := 0

	for _, c := range cases {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		if grid == nil || grid.Granularity() != c.Granularity {
			g, err := NewGrid(r.cfg, c.Granularity)
			if err != nil {
				return outcomes, fmt.Errorf("build grid at %d/mm: %w", c.Granularity, err)
			}
			grid = g
			opsf("built %dx%d mesh for %s at %d/mm", grid.Rows(), grid.Cols(), study, c.Granularity)
		}

		grid.SetGuess(r.cfg.GetGuess())
		start := r.clock.Now()
		res, err := grid.Solve(c.Acceleration, c.Epsilon)
		elapsed := r.clock.Since(start)
		if err != nil && !errors.Is(err, potential.ErrConvergenceNotReached) {
			return outcomes, fmt.Errorf("%s: %w", c.Label(), err)
		}
		if err != nil {
			failed++
			opsf("%s: %v", c.Label(), err)
		} else {
			opsf("%s: converged in %d iterations (final change %g) in %v", c.Label(), res.Iterations, res.FinalChange, elapsed)
		}

		o := Outcome{
			Study:    study,
			Case:     c,
			WidthMM:  grid.WidthMM(),
			HeightMM: grid.HeightMM(),
			Result:   res,
			Err:      err,
			Elapsed:  elapsed,
			CSV:      grid.CSV(),
			Text:     grid.String(),
			Log:      grid.DrainLog(),
			Field:    grid.Matrix(),
		}

		for _, e := range r.exporters {
			if err := e.Export(&o); err != nil {
				return outcomes, fmt.Errorf("export %s: %w", c.Label(), err)
			}
		}
		if r.recorder != nil {
			if err := r.recorder.Record(ctx, &o); err != nil {
				return outcomes, fmt.Errorf("record %s: %w", c.Label(), err)
			}
		}
		outcomes = append(outcomes, o)
	}

	for _, e := range r.exporters {
		if f, ok := e.(Finisher); ok {
			if err := f.Finish(study); err != nil {
				return outcomes, fmt.Errorf("finish %s: %w", study, err)
			}
		}
	}

	diagf("study %s: %d cases, %d without convergence", study, len(outcomes), failed)
	return outcomes, nil
}
