package potential

import (
	"fmt"
	"math"
)

// IterationRecord describes one full relaxation sweep: the largest change of
// any point and where it happened.
type IterationRecord struct {
	Iteration int
	MaxChange float64
	Row       int
	Col       int
	XMM       float64
	YMM       float64
}

// Result summarises a Solve call.
type Result struct {
	Acceleration float64
	Epsilon      float64
	Iterations   int
	FinalChange  float64
	Converged    bool
	Trace        []IterationRecord
}

// Solve relaxes the free interior points in place until the largest change
// in one sweep is at most epsilon.
//
// Each sweep visits rows 1..Rows-2 and columns 1..Cols-2 in row-major order
// and applies
//
//	v' = v + acceleration/4 * (up + left + down + right - 4v)
//
// using the neighbours' current values, so points already visited in the
// same sweep contribute their new value (Gauss-Seidel). Locked points reject
// the write and never change.
//
// acceleration is nominally in [1, 2]. Values outside that range are
// accepted and may diverge unless the grid was built WithStrictValidation.
// Without WithMaxIterations there is no iteration ceiling and a solve that
// never reaches epsilon does not return.
func (g *Grid) Solve(acceleration, epsilon float64) (Result, error) {
	if g.opts.strict {
		if acceleration < 1 || acceleration > 2 || math.IsNaN(acceleration) {
			return Result{}, fmt.Errorf("%w: acceleration %v is outside [1, 2]", ErrInvalidConfiguration, acceleration)
		}
		if !(epsilon > 0) {
			return Result{}, fmt.Errorf("%w: epsilon must be positive, got %v", ErrInvalidConfiguration, epsilon)
		}
	}

	res := Result{Acceleration: acceleration, Epsilon: epsilon}
	g.log.Appendf("Starting calculation...\nAcceleration Factor: %v\nTarget Epsilon: %v\n\n", acceleration, epsilon)
	opsf("solve start: %dx%d mesh acceleration=%v epsilon=%v", g.Rows(), g.Cols(), acceleration, epsilon)

	// Starts at 1 so the loop is entered for any epsilon below 1.
	currentEpsilon := 1.0
	iteration := 1
	maxRow, maxCol := 0, 0
	capped := false

	for currentEpsilon > epsilon {
		if g.opts.maxIterations > 0 && iteration > g.opts.maxIterations {
			capped = true
			break
		}

		currentEpsilon = 0
		diverged := false
		for row := 1; row < len(g.cells)-1; row++ {
			above, here, below := g.cells[row-1], g.cells[row], g.cells[row+1]
			for col := 1; col < len(here)-1; col++ {
				old := here[col].value
				here[col].SetValue(old + 0.25*acceleration*
					(above[col].value+here[col-1].value+below[col].value+here[col+1].value-4*old))

				change := math.Abs(here[col].value - old)
				if math.IsNaN(change) {
					diverged = true
				}
				if change > currentEpsilon {
					currentEpsilon = change
					maxRow, maxCol = row, col
				}
			}
		}

		if diverged {
			currentEpsilon = math.NaN()
		}

		rec := IterationRecord{
			Iteration: iteration,
			MaxChange: currentEpsilon,
			Row:       maxRow,
			Col:       maxCol,
			XMM:       g.physical(maxCol),
			YMM:       g.physical(maxRow),
		}
		res.Trace = append(res.Trace, rec)
		g.log.Appendf("Iteration %d Results:\n\tMax Epsilon: %v\n\tAchieved @\n\t\tr%d, c%d - Grid Absolute\n\t\t(%vmm, %vmm ) - Cartesian\n\n",
			rec.Iteration, rec.MaxChange, rec.Row, rec.Col, rec.XMM, rec.YMM)
		tracef("iteration %d max change %v at r%d c%d", rec.Iteration, rec.MaxChange, rec.Row, rec.Col)

		iteration++
	}

	res.Iterations = iteration - 1
	res.FinalChange = currentEpsilon
	res.Converged = currentEpsilon <= epsilon

	if res.Converged {
		g.log.Appendf("Finished calculation in %d iterations.\nFinal Epsilon: %v\n\n", res.Iterations, res.FinalChange)
		opsf("solve finished: %d iterations, final change %v", res.Iterations, res.FinalChange)
		return res, nil
	}

	g.log.Appendf("Stopped calculation after %d iterations without reaching target epsilon.\nFinal Epsilon: %v\n\n",
		res.Iterations, res.FinalChange)
	opsf("solve stopped: %d iterations, final change %v, target %v", res.Iterations, res.FinalChange, epsilon)
	if capped {
		return res, fmt.Errorf("%w: %d iterations exhausted, max change %v > %v",
			ErrConvergenceNotReached, res.Iterations, res.FinalChange, epsilon)
	}
	return res, fmt.Errorf("%w: max change %v did not reach %v after %d iterations (acceleration %v)",
		ErrConvergenceNotReached, res.FinalChange, epsilon, res.Iterations, acceleration)
}
