package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestEmptyStudyConfig_Defaults(t *testing.T) {
	cfg := EmptyStudyConfig()

	if cfg.GetName() != "study" {
		t.Errorf("GetName() = %q, want study", cfg.GetName())
	}
	if cfg.GetWidthMM() != 32 || cfg.GetHeightMM() != 32 {
		t.Errorf("size = %dx%d, want 32x32", cfg.GetWidthMM(), cfg.GetHeightMM())
	}
	if g := cfg.GetGranularities(); len(g) != 1 || g[0] != 1 {
		t.Errorf("GetGranularities() = %v, want [1]", g)
	}
	if !cfg.GetBorder() || cfg.GetBorderVoltage() != 0 {
		t.Errorf("border = %v at %v, want true at 0", cfg.GetBorder(), cfg.GetBorderVoltage())
	}
	if cfg.GetGuess() != 50 {
		t.Errorf("GetGuess() = %v, want 50", cfg.GetGuess())
	}
	if runs := cfg.GetRuns(); len(runs) != 1 || runs[0] != (RunSpec{Acceleration: 1, Epsilon: 0.01}) {
		t.Errorf("GetRuns() = %v", runs)
	}
	if cfg.GetMaxIterations() != 0 || cfg.GetStrict() || cfg.GetPlots() {
		t.Error("hardening and plots should be off by default")
	}
	if cfg.GetOutputDir() != "out" || cfg.GetDatabasePath() != "" {
		t.Errorf("output = %q db = %q", cfg.GetOutputDir(), cfg.GetDatabasePath())
	}
}

func TestLoadStudyConfig(t *testing.T) {
	path := writeConfig(t, "study.json", `{
  "name": "box",
  "width_mm": 4,
  "height_mm": 6,
  "granularities": [2, 4],
  "border_voltage": -5,
  "lines": [{"orientation": "horizontal", "start_x_mm": 0, "start_y_mm": 6, "voltage": 100}],
  "rectangles": [{"width_mm": 1, "height_mm": 1, "start_x_mm": 1, "start_y_mm": 2, "voltage": 30}],
  "guess": 10,
  "runs": [{"acceleration": 1.8, "epsilon": 0.001}],
  "max_iterations": 5000,
  "strict": true,
  "database_path": "runs.db",
  "plots": true
}`)

	cfg, err := LoadStudyConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.GetName() != "box" || cfg.GetWidthMM() != 4 || cfg.GetHeightMM() != 6 {
		t.Errorf("geometry = %s %dx%d", cfg.GetName(), cfg.GetWidthMM(), cfg.GetHeightMM())
	}
	if g := cfg.GetGranularities(); len(g) != 2 || g[1] != 4 {
		t.Errorf("GetGranularities() = %v", g)
	}
	if cfg.GetBorderVoltage() != -5 {
		t.Errorf("GetBorderVoltage() = %v", cfg.GetBorderVoltage())
	}
	if len(cfg.Lines) != 1 || cfg.Lines[0].Voltage != 100 {
		t.Errorf("Lines = %+v", cfg.Lines)
	}
	if len(cfg.Rectangles) != 1 || cfg.Rectangles[0].StartYMM != 2 {
		t.Errorf("Rectangles = %+v", cfg.Rectangles)
	}
	if cfg.GetMaxIterations() != 5000 || !cfg.GetStrict() || !cfg.GetPlots() {
		t.Error("hardening and plots flags not loaded")
	}
	if cfg.GetDatabasePath() != "runs.db" {
		t.Errorf("GetDatabasePath() = %q", cfg.GetDatabasePath())
	}
}

func TestLoadStudyConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{"wrong extension", "study.yaml", `{}`, ".json extension"},
		{"bad json", "study.json", `{"width_mm": `, "failed to parse"},
		{"zero width", "study.json", `{"width_mm": 0}`, "width_mm must be positive"},
		{"bad granularity", "study.json", `{"granularities": [1, 0]}`, "granularities[1]"},
		{"bad orientation", "study.json", `{"lines": [{"orientation": "diagonal"}]}`, "orientation"},
		{"two lengths", "study.json", `{"lines": [{"orientation": "vertical", "length": 3, "length_mm": 2}]}`, "at most one"},
		{"negative rectangle", "study.json", `{"rectangles": [{"width_mm": -1}]}`, "non-negative"},
		{"negative cap", "study.json", `{"max_iterations": -1}`, "max_iterations"},
		{"traversal name", "study.json", `{"name": "../up"}`, "name:"},
		{"name with separator", "study.json", `{"name": "a/b"}`, "name:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.body)
			_, err := LoadStudyConfig(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadStudyConfig_Missing(t *testing.T) {
	if _, err := LoadStudyConfig(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()

	if cfg.GetWidthMM() != 32 || cfg.GetHeightMM() != 32 {
		t.Errorf("reference geometry = %dx%d, want 32x32", cfg.GetWidthMM(), cfg.GetHeightMM())
	}
	if len(cfg.Rectangles) != 3 {
		t.Errorf("len(Rectangles) = %d, want 3", len(cfg.Rectangles))
	}
	runs := cfg.GetRuns()
	if len(runs) != 3 || runs[2].Acceleration != 1.7 {
		t.Errorf("GetRuns() = %v", runs)
	}
}

func TestLineSpec_MeshLength(t *testing.T) {
	three := 3
	half := 1.5

	tests := []struct {
		name        string
		line        LineSpec
		granularity int
		full        int
		want        int
	}{
		{"explicit mesh length", LineSpec{Orientation: "vertical", Length: &three}, 4, 100, 3},
		{"millimetres inclusive", LineSpec{Orientation: "vertical", LengthMM: &half}, 2, 100, 4},
		{"full vertical", LineSpec{Orientation: "vertical"}, 2, 65, 65},
		{"vertical from offset", LineSpec{Orientation: "vertical", StartYMM: 1}, 2, 65, 63},
		{"horizontal from offset", LineSpec{Orientation: "Horizontal", StartXMM: 3, StartYMM: 9}, 1, 33, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.line.MeshLength(tt.granularity, tt.full); got != tt.want {
				t.Errorf("MeshLength() = %d, want %d", got, tt.want)
			}
		})
	}
}
