package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/banshee-data/sorfield/internal/security"
)

// DefaultConfigPath is the path to the canonical study definition.
// It reproduces the 32x32mm three-electrode reference geometry.
const DefaultConfigPath = "config/study.defaults.json"

// Line orientations accepted in LineSpec.Orientation.
const (
	OrientationVertical   = "vertical"
	OrientationHorizontal = "horizontal"
)

// LineSpec describes a fixed-potential line. Exactly one way of giving the
// length is used: Length in mesh units, LengthMM in millimetres (inclusive of
// both ends), or neither, in which case the line runs to the edge of the mesh.
type LineSpec struct {
	Orientation string   `json:"orientation"`
	Length      *int     `json:"length,omitempty"`
	LengthMM    *float64 `json:"length_mm,omitempty"`
	StartXMM    float64  `json:"start_x_mm"`
	StartYMM    float64  `json:"start_y_mm"`
	Voltage     float64  `json:"voltage"`
}

// RectSpec describes a fixed-potential rectangle anchored at its bottom-left corner.
type RectSpec struct {
	WidthMM  int     `json:"width_mm"`
	HeightMM int     `json:"height_mm"`
	StartXMM float64 `json:"start_x_mm"`
	StartYMM float64 `json:"start_y_mm"`
	Voltage  float64 `json:"voltage"`
}

// RunSpec is one solver invocation.
type RunSpec struct {
	Acceleration float64 `json:"acceleration"`
	Epsilon      float64 `json:"epsilon"`
}

// StudyConfig is the root configuration for a solver study: one geometry,
// solved at every granularity for every run in order.
type StudyConfig struct {
	Name          *string  `json:"name,omitempty"`
	WidthMM       *int     `json:"width_mm,omitempty"`
	HeightMM      *int     `json:"height_mm,omitempty"`
	Granularities []int    `json:"granularities,omitempty"`
	Border        *bool    `json:"border,omitempty"`
	BorderVoltage *float64 `json:"border_voltage,omitempty"`

	Lines      []LineSpec `json:"lines,omitempty"`
	Rectangles []RectSpec `json:"rectangles,omitempty"`

	Guess         *float64  `json:"guess,omitempty"`
	Runs          []RunSpec `json:"runs,omitempty"`
	MaxIterations *int      `json:"max_iterations,omitempty"`
	Strict        *bool     `json:"strict,omitempty"`

	// Output params
	OutputDir    *string `json:"output_dir,omitempty"`
	DatabasePath *string `json:"database_path,omitempty"`
	Plots        *bool   `json:"plots,omitempty"`
}

// EmptyStudyConfig returns a StudyConfig with all fields unset.
func EmptyStudyConfig() *StudyConfig {
	return &StudyConfig{}
}

// LoadStudyConfig loads a StudyConfig from a JSON file.
// The file must have a .json extension and be under 1MB. Fields omitted
// from the file fall back to the Get* defaults.
func LoadStudyConfig(path string) (*StudyConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyStudyConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical study from DefaultConfigPath,
// searching the current directory and its parents. Panics if the file cannot
// be loaded; intended for tests.
func MustLoadDefaultConfig() *StudyConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from cmd/sorfield/ and internal/*/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadStudyConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are usable. It does not
// check that regions fit the mesh; the grid reports that per granularity.
func (c *StudyConfig) Validate() error {
	if c.Name != nil && *c.Name != "" {
		if err := security.ValidateComponent(*c.Name); err != nil {
			return fmt.Errorf("name: %w", err)
		}
	}
	if c.WidthMM != nil && *c.WidthMM <= 0 {
		return fmt.Errorf("width_mm must be positive, got %d", *c.WidthMM)
	}
	if c.HeightMM != nil && *c.HeightMM <= 0 {
		return fmt.Errorf("height_mm must be positive, got %d", *c.HeightMM)
	}
	for i, g := range c.Granularities {
		if g <= 0 {
			return fmt.Errorf("granularities[%d] must be positive, got %d", i, g)
		}
	}

	for i, l := range c.Lines {
		switch strings.ToLower(l.Orientation) {
		case OrientationVertical, OrientationHorizontal:
		default:
			return fmt.Errorf("lines[%d]: orientation must be %q or %q, got %q",
				i, OrientationVertical, OrientationHorizontal, l.Orientation)
		}
		if l.Length != nil && l.LengthMM != nil {
			return fmt.Errorf("lines[%d]: set at most one of length and length_mm", i)
		}
		if l.Length != nil && *l.Length < 0 {
			return fmt.Errorf("lines[%d]: length must be non-negative, got %d", i, *l.Length)
		}
		if l.LengthMM != nil && *l.LengthMM < 0 {
			return fmt.Errorf("lines[%d]: length_mm must be non-negative, got %f", i, *l.LengthMM)
		}
	}
	for i, r := range c.Rectangles {
		if r.WidthMM < 0 || r.HeightMM < 0 {
			return fmt.Errorf("rectangles[%d]: size must be non-negative, got %dx%d", i, r.WidthMM, r.HeightMM)
		}
	}

	for i, r := range c.Runs {
		if math.IsNaN(r.Acceleration) || math.IsInf(r.Acceleration, 0) {
			return fmt.Errorf("runs[%d]: acceleration must be finite, got %f", i, r.Acceleration)
		}
		if math.IsNaN(r.Epsilon) {
			return fmt.Errorf("runs[%d]: epsilon must be a number", i)
		}
	}

	if c.MaxIterations != nil && *c.MaxIterations < 0 {
		return fmt.Errorf("max_iterations must be non-negative, got %d", *c.MaxIterations)
	}

	return nil
}

// GetName returns the study name or the default.
func (c *StudyConfig) GetName() string {
	if c.Name == nil || *c.Name == "" {
		return "study"
	}
	return *c.Name
}

// GetWidthMM returns width_mm or the default.
func (c *StudyConfig) GetWidthMM() int {
	if c.WidthMM == nil {
		return 32
	}
	return *c.WidthMM
}

// GetHeightMM returns height_mm or the default.
func (c *StudyConfig) GetHeightMM() int {
	if c.HeightMM == nil {
		return 32
	}
	return *c.HeightMM
}

// GetGranularities returns the granularities to solve at, or [1].
func (c *StudyConfig) GetGranularities() []int {
	if len(c.Granularities) == 0 {
		return []int{1}
	}
	return c.Granularities
}

// GetBorder reports whether the outer frame is fixed (default true).
func (c *StudyConfig) GetBorder() bool {
	if c.Border == nil {
		return true
	}
	return *c.Border
}

// GetBorderVoltage returns the potential of the outer frame (default 0V).
func (c *StudyConfig) GetBorderVoltage() float64 {
	if c.BorderVoltage == nil {
		return 0
	}
	return *c.BorderVoltage
}

// GetGuess returns the initial guess for free points (default 50V).
func (c *StudyConfig) GetGuess() float64 {
	if c.Guess == nil {
		return 50
	}
	return *c.Guess
}

// GetRuns returns the solver runs, or a single Gauss-Seidel run at 0.01.
func (c *StudyConfig) GetRuns() []RunSpec {
	if len(c.Runs) == 0 {
		return []RunSpec{{Acceleration: 1, Epsilon: 0.01}}
	}
	return c.Runs
}

// GetMaxIterations returns the per-run iteration ceiling; 0 means unbounded.
func (c *StudyConfig) GetMaxIterations() int {
	if c.MaxIterations == nil {
		return 0
	}
	return *c.MaxIterations
}

// GetStrict reports whether solver parameters are range-checked (default false).
func (c *StudyConfig) GetStrict() bool {
	if c.Strict == nil {
		return false
	}
	return *c.Strict
}

// GetOutputDir returns the artifact directory (default "out").
func (c *StudyConfig) GetOutputDir() string {
	if c.OutputDir == nil || *c.OutputDir == "" {
		return "out"
	}
	return *c.OutputDir
}

// GetDatabasePath returns the run-history database path; empty disables it.
func (c *StudyConfig) GetDatabasePath() string {
	if c.DatabasePath == nil {
		return ""
	}
	return *c.DatabasePath
}

// GetPlots reports whether PNG and HTML plots are written (default false).
func (c *StudyConfig) GetPlots() bool {
	if c.Plots == nil {
		return false
	}
	return *c.Plots
}

// MeshLength resolves the line length in mesh units for a granularity.
// full is the number of mesh points along the line's axis; a line with no
// explicit length runs from its start index to the end of that axis.
func (l LineSpec) MeshLength(granularity, full int) int {
	switch {
	case l.Length != nil:
		return *l.Length
	case l.LengthMM != nil:
		return int(math.Round(*l.LengthMM*float64(granularity))) + 1
	}
	start := l.StartYMM
	if strings.EqualFold(l.Orientation, OrientationHorizontal) {
		start = l.StartXMM
	}
	return full - int(math.Round(start*float64(granularity)))
}
