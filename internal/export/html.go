package export

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/sorfield/internal/sweep"
)

// RenderConvergenceHTML renders an HTML page with one log-scale line chart
// per granularity, one series per (acceleration, epsilon) run.
func RenderConvergenceHTML(w io.Writer, study string, outcomes []sweep.Outcome) error {
	page := components.NewPage().SetPageTitle(study + " convergence")

	var order []int
	byGranularity := make(map[int][]sweep.Outcome)
	for _, o := range outcomes {
		g := o.Case.Granularity
		if _, ok := byGranularity[g]; !ok {
			order = append(order, g)
		}
		byGranularity[g] = append(byGranularity[g], o)
	}

	for _, g := range order {
		page.AddCharts(convergenceChart(study, g, byGranularity[g]))
	}
	return page.Render(w)
}

func convergenceChart(study string, granularity int, outcomes []sweep.Outcome) *charts.Line {
	longest := 0
	for _, o := range outcomes {
		longest = max(longest, len(o.Result.Trace))
	}
	iterations := make([]int, longest)
	for i := range iterations {
		iterations[i] = i + 1
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1000px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s at %d divisions/mm", study, granularity),
			Subtitle: "max change per iteration",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Iteration", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Max change (V)", Type: "log"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside", XAxisIndex: []int{0}}),
	)
	line.SetXAxis(iterations)

	for _, o := range outcomes {
		data := make([]opts.LineData, len(o.Result.Trace))
		for i, rec := range o.Result.Trace {
			data[i] = opts.LineData{Value: chartValue(rec.MaxChange)}
		}
		name := "Acc" + formatFloat(o.Case.Acceleration) + ",E" + formatFloat(o.Case.Epsilon)
		line.AddSeries(name, data)
	}
	return line
}

// chartValue maps values JSON cannot carry, or a log axis cannot show, to
// the ECharts missing-data marker.
func chartValue(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return "-"
	}
	return v
}
