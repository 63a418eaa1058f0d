// Package sweep drives a solver study: it expands the configured
// granularities and (acceleration, epsilon) runs into an ordered plan,
// builds one grid per granularity, applies the geometry, solves each case
// and hands every outcome to the configured sinks (file export, run history).
//
// Range parsing helpers accept either comma-separated values or a
// "min:max:step" specification so the CLI can override the run matrix.
package sweep
