package potential

import (
	"fmt"
	"strings"
)

// DiagLog is an append-only text buffer of grid and solver diagnostics.
type DiagLog struct {
	b strings.Builder
}

// Appendf formats and appends to the log.
func (l *DiagLog) Appendf(format string, args ...interface{}) {
	fmt.Fprintf(&l.b, format, args...)
}

// String returns the accumulated text without clearing it.
func (l *DiagLog) String() string { return l.b.String() }

// reset discards the accumulated text and starts over with header.
func (l *DiagLog) reset(header string) {
	l.b.Reset()
	l.b.WriteString(header)
}

// LogText returns the grid's diagnostics log. Reading does not clear it.
func (g *Grid) LogText() string { return g.log.String() }

// ResetLog replaces the log with a fresh grid description header.
func (g *Grid) ResetLog() {
	g.log.reset(fmt.Sprintf("Log reset. Grid:\n\t%dmm X %dmm, \n\t%d divisions per mm\n\n",
		g.widthMM, g.heightMM, g.granularity))
}

// DrainLog returns the log text and then resets the log. Exporters call it
// once per exported run.
func (g *Grid) DrainLog() string {
	text := g.LogText()
	g.ResetLog()
	return text
}
