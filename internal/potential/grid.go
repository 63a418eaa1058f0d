package potential

import (
	"fmt"
	"math"
)

// indexTolerance is how far a scaled coordinate may sit from an integer and
// still be treated as that mesh index.
const indexTolerance = 1e-9

// Grid is a rectangular mesh of Points covering widthMM x heightMM at a fixed
// number of divisions per millimetre. Points are indexed [row][col] with
// row 0 at the bottom edge.
type Grid struct {
	cells       [][]Point
	granularity int
	widthMM     int
	heightMM    int
	log         *DiagLog
	opts        settings
}

// New allocates a grid of free 0 V points. Both ends of each axis are
// included, so a 2mm axis at granularity 1 has 3 mesh points.
func New(widthMM, heightMM, granularity int, opts ...Option) (*Grid, error) {
	if widthMM <= 0 || heightMM <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be positive, got %dmm x %dmm",
			ErrInvalidConfiguration, widthMM, heightMM)
	}
	if granularity <= 0 {
		return nil, fmt.Errorf("%w: granularity must be positive, got %d",
			ErrInvalidConfiguration, granularity)
	}

	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	rows := (heightMM+1)*granularity - granularity + 1
	cols := (widthMM+1)*granularity - granularity + 1

	cells := make([][]Point, rows)
	for r := range cells {
		cells[r] = make([]Point, cols)
	}

	g := &Grid{
		cells:       cells,
		granularity: granularity,
		widthMM:     widthMM,
		heightMM:    heightMM,
		log:         &DiagLog{},
		opts:        s,
	}
	g.log.Appendf("Created new grid:\n\t%dmm X %dmm, \n\t%d divisions per mm\n\n",
		widthMM, heightMM, granularity)
	diagf("created %dx%d mesh for %dmm x %dmm at %d/mm", rows, cols, widthMM, heightMM, granularity)
	return g, nil
}

// Rows returns the number of mesh rows.
func (g *Grid) Rows() int { return len(g.cells) }

// Cols returns the number of mesh columns.
func (g *Grid) Cols() int { return len(g.cells[0]) }

// Granularity returns the mesh divisions per millimetre.
func (g *Grid) Granularity() int { return g.granularity }

// WidthMM returns the physical width the grid was built for.
func (g *Grid) WidthMM() int { return g.widthMM }

// HeightMM returns the physical height the grid was built for.
func (g *Grid) HeightMM() int { return g.heightMM }

// Point returns a copy of the point at a mesh position. It panics if row or
// col is out of range, like slice indexing.
func (g *Grid) Point(row, col int) Point { return g.cells[row][col] }

// Value returns the potential at a mesh position.
func (g *Grid) Value(row, col int) float64 { return g.cells[row][col].value }

// Locked reports whether the point at a mesh position is fixed.
func (g *Grid) Locked(row, col int) bool { return g.cells[row][col].locked }

// ValueAt returns the potential at a physical coordinate in millimetres.
func (g *Grid) ValueAt(xMM, yMM float64) (float64, error) {
	col, err := g.meshIndex(xMM)
	if err != nil {
		return 0, err
	}
	row, err := g.meshIndex(yMM)
	if err != nil {
		return 0, err
	}
	if row < 0 || row >= g.Rows() || col < 0 || col >= g.Cols() {
		return 0, fmt.Errorf("%w: (%vmm, %vmm) is outside the %dmm x %dmm grid",
			ErrInvalidRegion, xMM, yMM, g.widthMM, g.heightMM)
	}
	return g.cells[row][col].value, nil
}

// meshIndex converts a millimetre coordinate to a mesh index. It is the only
// place physical units are scaled.
func (g *Grid) meshIndex(coordMM float64) (int, error) {
	scaled := coordMM * float64(g.granularity)
	idx := math.Round(scaled)
	if math.IsNaN(scaled) || math.IsInf(scaled, 0) || math.Abs(scaled-idx) > indexTolerance {
		return 0, fmt.Errorf("%w: %vmm does not fall on the mesh at %d divisions per mm",
			ErrInvalidRegion, coordMM, g.granularity)
	}
	return int(idx), nil
}

// physical converts a mesh index back to millimetres.
func (g *Grid) physical(idx int) float64 {
	return float64(idx) / float64(g.granularity)
}
