package potential

import (
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Table renders the grid as text: one line per row, highest row first, values
// in column order joined by sep. Every line ends with a newline. Values use
// the shortest representation that parses back to the same float64.
func (g *Grid) Table(sep string) string {
	var b strings.Builder
	for row := len(g.cells) - 1; row >= 0; row-- {
		for col, p := range g.cells[row] {
			if col > 0 {
				b.WriteString(sep)
			}
			b.WriteString(strconv.FormatFloat(p.value, 'g', -1, 64))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// CSV returns Table(",").
func (g *Grid) CSV() string { return g.Table(",") }

// String returns the console form of the table.
func (g *Grid) String() string { return g.Table(",  ") }

// ParseTable parses text produced by Table with the same separator. Rows are
// returned in the order they appear, so the first row is the top of the
// geometry (the grid's last stored row).
func ParseTable(text, sep string) ([][]float64, error) {
	var out [][]float64
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, line := range lines {
		if line == "" {
			continue
		}
		fields := strings.Split(line, sep)
		row := make([]float64, len(fields))
		for j, f := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d field %d: %w", i+1, j+1, err)
			}
			row[j] = v
		}
		if len(out) > 0 && len(row) != len(out[0]) {
			return nil, fmt.Errorf("line %d has %d fields, want %d", i+1, len(row), len(out[0]))
		}
		out = append(out, row)
	}
	return out, nil
}

// Values returns a copy of the potentials in storage order (row 0 first).
func (g *Grid) Values() [][]float64 {
	out := make([][]float64, len(g.cells))
	for r, cells := range g.cells {
		out[r] = make([]float64, len(cells))
		for c, p := range cells {
			out[r][c] = p.value
		}
	}
	return out
}

// Matrix returns the potentials as a dense matrix in storage order.
func (g *Grid) Matrix() *mat.Dense {
	rows, cols := g.Rows(), g.Cols()
	data := make([]float64, 0, rows*cols)
	for _, cells := range g.cells {
		for _, p := range cells {
			data = append(data, p.value)
		}
	}
	return mat.NewDense(rows, cols, data)
}
