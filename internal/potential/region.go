package potential

import "fmt"

// Orientation selects the axis a fixed line runs along.
type Orientation int

const (
	// Vertical lines hold the column fixed and walk rows upward.
	Vertical Orientation = iota
	// Horizontal lines hold the row fixed and walk columns to the right.
	Horizontal
)

func (o Orientation) String() string {
	switch o {
	case Vertical:
		return "vertical"
	case Horizontal:
		return "horizontal"
	default:
		return fmt.Sprintf("Orientation(%d)", int(o))
	}
}

// SetFixedLine fixes length consecutive mesh points to voltage, starting at
// (startXMM, startYMM) and running up (Vertical) or right (Horizontal).
// length is in mesh units, not millimetres. The whole line is checked
// against the mesh before any point is written. Points already fixed are
// overwritten.
func (g *Grid) SetFixedLine(length int, o Orientation, startXMM, startYMM, voltage float64) error {
	col, err := g.meshIndex(startXMM)
	if err != nil {
		return err
	}
	row, err := g.meshIndex(startYMM)
	if err != nil {
		return err
	}
	if length < 0 {
		return fmt.Errorf("%w: line length must be non-negative, got %d", ErrInvalidRegion, length)
	}

	var nRows, nCols int
	switch o {
	case Vertical:
		nRows, nCols = length, 1
	case Horizontal:
		nRows, nCols = 1, length
	default:
		return fmt.Errorf("%w: unknown orientation %v", ErrInvalidRegion, o)
	}
	if err := g.checkSpan(row, col, nRows, nCols); err != nil {
		return fmt.Errorf("%v line of %d from (%vmm, %vmm): %w", o, length, startXMM, startYMM, err)
	}

	g.fill(row, col, row+nRows, col+nCols, voltage)
	diagf("fixed %v line len=%d at r%d c%d to %vV", o, length, row, col, voltage)
	return nil
}

// SetFixedRectangle fixes every mesh point of a rectangle anchored at its
// bottom-left corner (startXMM, startYMM). The extent on each axis is
// (size+1)*granularity mesh points. Overlapping regions are resolved by call
// order: the last call wins.
func (g *Grid) SetFixedRectangle(widthMM, heightMM int, startXMM, startYMM, voltage float64) error {
	if widthMM < 0 || heightMM < 0 {
		return fmt.Errorf("%w: rectangle size must be non-negative, got %dmm x %dmm",
			ErrInvalidRegion, widthMM, heightMM)
	}
	col, err := g.meshIndex(startXMM)
	if err != nil {
		return err
	}
	row, err := g.meshIndex(startYMM)
	if err != nil {
		return err
	}

	if err := g.checkStart(row, col); err != nil {
		return fmt.Errorf("%dmm x %dmm rectangle at (%vmm, %vmm): %w",
			widthMM, heightMM, startXMM, startYMM, err)
	}
	// (size+1)*g must fit in the room left; compare before multiplying.
	if widthMM >= (g.Cols()-col)/g.granularity || heightMM >= (g.Rows()-row)/g.granularity {
		return fmt.Errorf("%w: %dmm x %dmm rectangle at r%d c%d exceeds the %dx%d mesh",
			ErrInvalidRegion, widthMM, heightMM, row, col, g.Rows(), g.Cols())
	}
	width := (widthMM + 1) * g.granularity
	height := (heightMM + 1) * g.granularity

	g.fill(row, col, row+height, col+width, voltage)
	diagf("fixed %dx%d mesh rectangle at r%d c%d to %vV", height, width, row, col, voltage)
	return nil
}

// SetGuess writes v to every point. Locked points reject the write, so only
// free points change. Lock state is not touched.
func (g *Grid) SetGuess(v float64) {
	for r := range g.cells {
		for c := range g.cells[r] {
			g.cells[r][c].SetValue(v)
		}
	}
	diagf("seeded free points with %vV", v)
}

func (g *Grid) checkStart(row, col int) error {
	if row < 0 || col < 0 || row >= g.Rows() || col >= g.Cols() {
		return fmt.Errorf("%w: start r%d c%d is outside the %dx%d mesh",
			ErrInvalidRegion, row, col, g.Rows(), g.Cols())
	}
	return nil
}

// checkSpan validates nRows x nCols mesh points starting at (row, col).
// Extents are compared against the room left so large values cannot wrap.
func (g *Grid) checkSpan(row, col, nRows, nCols int) error {
	if err := g.checkStart(row, col); err != nil {
		return err
	}
	if nRows > g.Rows()-row || nCols > g.Cols()-col {
		return fmt.Errorf("%w: %dx%d points from r%d c%d exceed the %dx%d mesh",
			ErrInvalidRegion, nRows, nCols, row, col, g.Rows(), g.Cols())
	}
	return nil
}

// fill fixes [row0,row1) x [col0,col1) to voltage in row-major order.
func (g *Grid) fill(row0, col0, row1, col1 int, voltage float64) {
	for r := row0; r < row1; r++ {
		for c := col0; c < col1; c++ {
			g.cells[r][c] = g.cells[r][c].Fixed(voltage)
		}
	}
}
