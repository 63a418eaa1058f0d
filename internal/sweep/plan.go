package sweep

import (
	"fmt"
	"strconv"

	"github.com/banshee-data/sorfield/internal/config"
)

// Case is one solver run of a study.
type Case struct {
	Granularity  int
	Acceleration float64
	Epsilon      float64
}

// Label names the case's artifacts, e.g. "Subdivs2,Acc1.5,E0.01".
func (c Case) Label() string {
	return fmt.Sprintf("Subdivs%d,Acc%s,E%s", c.Granularity,
		strconv.FormatFloat(c.Acceleration, 'g', -1, 64),
		strconv.FormatFloat(c.Epsilon, 'g', -1, 64))
}

// Plan expands the study's granularities x runs in order: every run at the
// first granularity, then every run at the next.
func Plan(cfg *config.StudyConfig) []Case {
	granularities, runs := cfg.GetGranularities(), cfg.GetRuns()
	cases := make([]Case, 0, len(granularities)*len(runs))
	for _, g := range granularities {
		for _, r := range runs {
			cases = append(cases, Case{Granularity: g, Acceleration: r.Acceleration, Epsilon: r.Epsilon})
		}
	}
	return cases
}

// Runs builds a run list from the cartesian product of accelerations and
// epsilons, acceleration-major.
func Runs(accelerations, epsilons []float64) []config.RunSpec {
	runs := make([]config.RunSpec, 0, len(accelerations)*len(epsilons))
	for _, a := range accelerations {
		for _, e := range epsilons {
			runs = append(runs, config.RunSpec{Acceleration: a, Epsilon: e})
		}
	}
	return runs
}
