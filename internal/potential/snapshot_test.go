package potential

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// newStripedGrid returns a grid whose row r holds distinct values r*10+c/4.
func newStripedGrid(t *testing.T) *Grid {
	t.Helper()
	g, err := New(3, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Cols(); c++ {
			g.cells[r][c].SetValue(float64(r)*10 + float64(c)/4)
		}
	}
	return g
}

func TestTable_RowOrder(t *testing.T) {
	g := newStripedGrid(t)

	want := "20,20.25,20.5,20.75\n" +
		"10,10.25,10.5,10.75\n" +
		"0,0.25,0.5,0.75\n"
	if got := g.CSV(); got != want {
		t.Errorf("CSV() =\n%s\nwant\n%s", got, want)
	}

	wantConsole := "20,  20.25,  20.5,  20.75\n" +
		"10,  10.25,  10.5,  10.75\n" +
		"0,  0.25,  0.5,  0.75\n"
	if got := g.String(); got != wantConsole {
		t.Errorf("String() =\n%s\nwant\n%s", got, wantConsole)
	}
}

func TestParseTable_RoundTrip(t *testing.T) {
	g, err := New(6, 4, 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.SetFixedRectangle(1, 1, 2, 1, 100); err != nil {
		t.Fatal(err)
	}
	g.SetGuess(1.0 / 3)
	if _, err := g.Solve(1.4, 1e-6); err != nil {
		t.Fatal(err)
	}

	stored := g.Values()
	reversed := make([][]float64, len(stored))
	for i, row := range stored {
		reversed[len(stored)-1-i] = row
	}

	for _, sep := range []string{",", ",  "} {
		parsed, err := ParseTable(g.Table(sep), sep)
		if err != nil {
			t.Fatalf("ParseTable(%q): %v", sep, err)
		}
		if diff := cmp.Diff(reversed, parsed); diff != "" {
			t.Errorf("round trip with %q mismatch (-want +got):\n%s", sep, diff)
		}
	}
}

func TestParseTable_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"bad number", "1,2\n3,x\n"},
		{"ragged rows", "1,2,3\n4,5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseTable(tt.text, ","); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestValues_IsCopy(t *testing.T) {
	g := newStripedGrid(t)
	vals := g.Values()
	vals[1][1] = -1
	if g.Value(1, 1) != 10.25 {
		t.Errorf("Values() must return a copy, grid now holds %v", g.Value(1, 1))
	}
}

func TestMatrix_StorageOrder(t *testing.T) {
	g := newStripedGrid(t)
	m := g.Matrix()

	rows, cols := m.Dims()
	if rows != g.Rows() || cols != g.Cols() {
		t.Fatalf("Dims() = %d, %d; want %d, %d", rows, cols, g.Rows(), g.Cols())
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if m.At(r, c) != g.Value(r, c) {
				t.Errorf("At(%d, %d) = %v, want %v", r, c, m.At(r, c), g.Value(r, c))
			}
		}
	}
}
