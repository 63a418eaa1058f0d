package sweep

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// maxValues bounds how many values a single range expands to.
const maxValues = 10000

// RangeSpec defines a floating-point parameter range for sweeping.
type RangeSpec struct {
	Min  float64
	Max  float64
	Step float64
}

// ParseRangeSpec parses a "min:max:step" string into a RangeSpec.
func ParseRangeSpec(s string) (RangeSpec, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return RangeSpec{}, fmt.Errorf("invalid range format %q: expected min:max:step", s)
	}

	var vals [3]float64
	for i, name := range []string{"min", "max", "step"} {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			return RangeSpec{}, fmt.Errorf("invalid %s value %q: %w", name, parts[i], err)
		}
		vals[i] = v
	}
	if vals[2] <= 0 {
		return RangeSpec{}, fmt.Errorf("step must be positive, got %g", vals[2])
	}
	return RangeSpec{Min: vals[0], Max: vals[1], Step: vals[2]}, nil
}

// GenerateRange returns min, min+step, ... up to max inclusive. Values are
// computed by multiplication rather than accumulation and rounded to 9
// decimal places so 1:1.7:0.1 yields exactly 1.7 as its last element.
// It returns nil for an empty or oversized range.
func GenerateRange(min, max, step float64) []float64 {
	if step <= 0 || min > max {
		return nil
	}
	count := int(math.Floor((max-min)/step+1e-9)) + 1
	if count > maxValues || count < 0 {
		return nil
	}

	out := make([]float64, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, math.Round((min+float64(i)*step)*1e9)/1e9)
	}
	return out
}

// ParseFloatList parses a comma-separated list of floats or a "min:max:step"
// range. An empty string yields nil.
func ParseFloatList(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if strings.Contains(s, ":") {
		spec, err := ParseRangeSpec(s)
		if err != nil {
			return nil, err
		}
		vals := GenerateRange(spec.Min, spec.Max, spec.Step)
		if len(vals) == 0 {
			return nil, fmt.Errorf("range %q produces no values", s)
		}
		return vals, nil
	}

	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float '%s': %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// ParseIntList parses a comma-separated list of ints or a "min:max:step"
// range with integer bounds. An empty string yields nil.
func ParseIntList(s string) ([]int, error) {
	floats, err := ParseFloatList(s)
	if err != nil {
		return nil, err
	}
	out := make([]int, 0, len(floats))
	for _, f := range floats {
		if f != math.Trunc(f) {
			return nil, fmt.Errorf("invalid int '%g'", f)
		}
		out = append(out, int(f))
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}
