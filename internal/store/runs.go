package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// ErrRunNotFound is returned by Get for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded solver case.
type Run struct {
	RunID        string  `json:"run_id"`
	Study        string  `json:"study"`
	Granularity  int     `json:"granularity"`
	WidthMM      int     `json:"width_mm"`
	HeightMM     int     `json:"height_mm"`
	Acceleration float64 `json:"acceleration"`
	Epsilon      float64 `json:"epsilon"`
	Iterations   int     `json:"iterations"`
	// FinalChange is NaN when the solve diverged.
	FinalChange float64       `json:"final_change"`
	Converged   bool          `json:"converged"`
	ErrorText   string        `json:"error_text,omitempty"`
	Elapsed     time.Duration `json:"elapsed_ns"`
	LogText     string        `json:"log_text"`
	TableCSV    string        `json:"table_csv"`
	CreatedAt   int64         `json:"created_at"`
}

// Iteration is one row of a run's convergence trace.
type Iteration struct {
	Iteration int
	// MaxChange is NaN when the sweep produced a non-finite value.
	MaxChange float64
	Row       int
	Col       int
}

const runColumns = `run_id, study, granularity, width_mm, height_mm,
	acceleration, epsilon, iterations, final_change, converged,
	error_text, elapsed_ns, log_text, table_csv, created_at`

// Insert persists a run and its trace in one transaction. If RunID is
// empty a UUID is generated; if CreatedAt is zero it is set to now.
func (s *Store) Insert(ctx context.Context, run *Run, trace []Iteration) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = s.clock.Now().UnixNano()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO sor_runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Study, run.Granularity, run.WidthMM, run.HeightMM,
		run.Acceleration, run.Epsilon, run.Iterations, nullable(run.FinalChange), run.Converged,
		run.ErrorText, int64(run.Elapsed), run.LogText, run.TableCSV, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if len(trace) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO sor_iterations
			(run_id, iteration, max_change, row_index, col_index) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare iterations: %w", err)
		}
		defer stmt.Close()
		for _, it := range trace {
			if _, err := stmt.ExecContext(ctx, run.RunID, it.Iteration, nullable(it.MaxChange), it.Row, it.Col); err != nil {
				return fmt.Errorf("insert iteration %d: %w", it.Iteration, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Get returns a single run by ID.
func (s *Store) Get(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM sor_runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return r, err
}

// ListByStudy returns a study's runs in the order they were recorded.
func (s *Store) ListByStudy(ctx context.Context, study string) ([]*Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM sor_runs
		WHERE study = ?
		ORDER BY created_at, rowid`, study)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Trace returns a run's iterations in order.
func (s *Store) Trace(ctx context.Context, runID string) ([]Iteration, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT iteration, max_change, row_index, col_index
		FROM sor_iterations WHERE run_id = ? ORDER BY iteration`, runID)
	if err != nil {
		return nil, fmt.Errorf("query iterations: %w", err)
	}
	defer rows.Close()

	var trace []Iteration
	for rows.Next() {
		var it Iteration
		var change sql.NullFloat64
		if err := rows.Scan(&it.Iteration, &change, &it.Row, &it.Col); err != nil {
			return nil, fmt.Errorf("scan iteration: %w", err)
		}
		it.MaxChange = fromNullable(change)
		trace = append(trace, it)
	}
	return trace, rows.Err()
}

// Delete removes a run and its trace.
func (s *Store) Delete(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sor_runs WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var r Run
	var change sql.NullFloat64
	var elapsed int64
	err := sc.Scan(
		&r.RunID, &r.Study, &r.Granularity, &r.WidthMM, &r.HeightMM,
		&r.Acceleration, &r.Epsilon, &r.Iterations, &change, &r.Converged,
		&r.ErrorText, &elapsed, &r.LogText, &r.TableCSV, &r.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	r.FinalChange = fromNullable(change)
	r.Elapsed = time.Duration(elapsed)
	return &r, nil
}

// nullable stores non-finite values as NULL; sqlite has no NaN.
func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func fromNullable(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
