package export

import (
	"fmt"
	"io"

	"github.com/banshee-data/sorfield/internal/sweep"
)

// Console prints each case's table in the console form (values separated
// by ",  ", highest row first) under a label line.
type Console struct {
	w io.Writer
}

// NewConsole creates a Console writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Export prints the outcome.
func (c *Console) Export(o *sweep.Outcome) error {
	status := fmt.Sprintf("converged in %d iterations", o.Result.Iterations)
	if o.Err != nil {
		status = fmt.Sprintf("stopped after %d iterations", o.Result.Iterations)
	}
	_, err := fmt.Fprintf(c.w, "%s (%s)\n%s\n", o.Case.Label(), status, o.Text)
	return err
}
