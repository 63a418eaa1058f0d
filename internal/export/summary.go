package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/banshee-data/sorfield/internal/sweep"
)

var summaryHeader = []string{
	"label", "granularity", "acceleration", "epsilon",
	"iterations", "final_change", "converged", "error", "elapsed_ms",
}

// WriteSummary writes one CSV row per outcome, in run order.
func WriteSummary(w io.Writer, outcomes []sweep.Outcome) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(summaryHeader); err != nil {
		return err
	}

	for _, o := range outcomes {
		errText := ""
		if o.Err != nil {
			errText = o.Err.Error()
		}
		row := []string{
			o.Case.Label(),
			strconv.Itoa(o.Case.Granularity),
			formatFloat(o.Case.Acceleration),
			formatFloat(o.Case.Epsilon),
			strconv.Itoa(o.Result.Iterations),
			formatFloat(o.Result.FinalChange),
			strconv.FormatBool(o.Result.Converged),
			errText,
			formatFloat(float64(o.Elapsed.Microseconds()) / 1000),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
