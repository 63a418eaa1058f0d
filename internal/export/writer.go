// Package export persists study outcomes: the numeric table and solver log
// of every case, a summary of the whole study, and optional plots.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/banshee-data/sorfield/internal/fsutil"
	"github.com/banshee-data/sorfield/internal/security"
	"github.com/banshee-data/sorfield/internal/sweep"
)

// Artifact file names written once per study.
const (
	SummaryFile         = "summary.csv"
	ConvergencePlotFile = "convergence.png"
	ConvergenceHTMLFile = "convergence.html"
)

// Writer writes artifacts under <dir>/<study>/. Per case it writes
// <label>.csv (the grid table, highest row first) and <label>.log (the
// drained solver log); with plots enabled also <label>.png, a heatmap of
// the solved field. Finish writes the study summary and convergence plots.
type Writer struct {
	fs    fsutil.FileSystem
	dir   string
	plots bool

	// outcomes keeps what Finish needs; the field and text snapshots are dropped.
	outcomes []sweep.Outcome
}

// NewWriter creates a Writer rooted at dir.
func NewWriter(fsys fsutil.FileSystem, dir string, plots bool) *Writer {
	return &Writer{fs: fsys, dir: dir, plots: plots}
}

// studyDir returns <dir>/<study>, rejecting names that would leave dir.
func (w *Writer) studyDir(study string) (string, error) {
	if err := security.ValidateComponent(study); err != nil {
		return "", fmt.Errorf("study name: %w", err)
	}
	dir := filepath.Join(w.dir, study)
	if err := security.ValidatePathWithinDirectory(dir, w.dir); err != nil {
		return "", err
	}
	return dir, nil
}

// Export writes the per-case artifacts.
func (w *Writer) Export(o *sweep.Outcome) error {
	dir, err := w.studyDir(o.Study)
	if err != nil {
		return err
	}
	label := o.Case.Label()
	if err := security.ValidateComponent(label); err != nil {
		return fmt.Errorf("case label: %w", err)
	}
	if err := w.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tablePath := filepath.Join(dir, label+".csv")
	if err := w.fs.WriteFile(tablePath, []byte(o.CSV), 0o644); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	if err := w.fs.WriteFile(filepath.Join(dir, label+".log"), []byte(o.Log), 0o644); err != nil {
		return fmt.Errorf("write log: %w", err)
	}

	if w.plots && o.Field != nil {
		if err := w.writeHeatmap(dir, label, o); err != nil {
			return err
		}
	}

	kept := *o
	kept.Field, kept.CSV, kept.Text, kept.Log = nil, "", "", ""
	w.outcomes = append(w.outcomes, kept)
	diagf("exported %s to %s", label, dir)
	return nil
}

// Finish writes the study summary and, with plots enabled, the convergence
// charts. It resets the collected outcomes.
func (w *Writer) Finish(study string) error {
	defer func() { w.outcomes = nil }()
	if len(w.outcomes) == 0 {
		return nil
	}

	dir, err := w.studyDir(study)
	if err != nil {
		return err
	}
	if err := w.create(filepath.Join(dir, SummaryFile), func(out io.Writer) error {
		return WriteSummary(out, w.outcomes)
	}); err != nil {
		return fmt.Errorf("summary: %w", err)
	}

	if w.plots {
		series := ConvergenceSeries(w.outcomes)
		if hasPositive(series) {
			if err := w.create(filepath.Join(dir, ConvergencePlotFile), func(out io.Writer) error {
				return PlotConvergence(out, study, series)
			}); err != nil {
				return fmt.Errorf("convergence plot: %w", err)
			}
		}
		if err := w.create(filepath.Join(dir, ConvergenceHTMLFile), func(out io.Writer) error {
			return RenderConvergenceHTML(out, study, w.outcomes)
		}); err != nil {
			return fmt.Errorf("convergence chart: %w", err)
		}
	}

	opsf("wrote %d case(s) for %s to %s", len(w.outcomes), study, dir)
	return nil
}

// writeHeatmap renders <label>.png in memory first so a failed render leaves
// no file behind. A field that diverged to NaN or Inf has nothing to show and
// is skipped.
func (w *Writer) writeHeatmap(dir, label string, o *sweep.Outcome) error {
	var buf bytes.Buffer
	title := fmt.Sprintf("%s %s", o.Study, label)
	err := PlotHeatmap(&buf, o.Field, o.Case.Granularity, title)
	if errors.Is(err, ErrNonFiniteField) {
		opsf("%s: skipping heatmap: %v", label, err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("heatmap: %w", err)
	}
	if err := w.fs.WriteFile(filepath.Join(dir, label+".png"), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write heatmap: %w", err)
	}
	return nil
}

// create opens name, runs write against it and closes it, keeping the
// first error.
func (w *Writer) create(name string, write func(io.Writer) error) (err error) {
	f, err := w.fs.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}
