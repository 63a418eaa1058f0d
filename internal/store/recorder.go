package store

import (
	"context"

	"github.com/banshee-data/sorfield/internal/sweep"
)

// Record stores a sweep outcome and its trace. It implements sweep.Recorder.
func (s *Store) Record(ctx context.Context, o *sweep.Outcome) error {
	run := &Run{
		Study:        o.Study,
		Granularity:  o.Case.Granularity,
		WidthMM:      o.WidthMM,
		HeightMM:     o.HeightMM,
		Acceleration: o.Case.Acceleration,
		Epsilon:      o.Case.Epsilon,
		Iterations:   o.Result.Iterations,
		FinalChange:  o.Result.FinalChange,
		Converged:    o.Result.Converged,
		Elapsed:      o.Elapsed,
		LogText:      o.Log,
		TableCSV:     o.CSV,
	}
	if o.Err != nil {
		run.ErrorText = o.Err.Error()
	}

	trace := make([]Iteration, len(o.Result.Trace))
	for i, rec := range o.Result.Trace {
		trace[i] = Iteration{Iteration: rec.Iteration, MaxChange: rec.MaxChange, Row: rec.Row, Col: rec.Col}
	}

	if err := s.Insert(ctx, run, trace); err != nil {
		return err
	}
	opsf("recorded %s as run %s", o.Case.Label(), run.RunID)
	return nil
}

var _ sweep.Recorder = (*Store)(nil)
