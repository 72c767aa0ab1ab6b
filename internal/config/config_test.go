package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/vovakirdan/flappy-lab/internal/env"
	"github.com/vovakirdan/flappy-lab/internal/experiment"
)

// isolate points the user config directory at an empty temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

func TestLoadEnvEmbeddedDefault(t *testing.T) {
	isolate(t)

	cfg, err := LoadEnv("")
	if err != nil {
		t.Fatalf("LoadEnv() failed: %v", err)
	}
	if cfg != env.DefaultConfig() {
		t.Errorf("Embedded defaults differ from built-in defaults:\n got %+v\nwant %+v", cfg, env.DefaultConfig())
	}
}

func TestLoadEnvCustomPathPartial(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "env.yaml")
	writeFile(t, path, "pipe_gap: 200\nseed: 7\n")

	cfg, err := LoadEnv(path)
	if err != nil {
		t.Fatalf("LoadEnv() failed: %v", err)
	}
	if cfg.PipeGap != 200 || cfg.Seed != 7 {
		t.Errorf("Overrides not applied: gap=%v seed=%v", cfg.PipeGap, cfg.Seed)
	}
	if cfg.Width != 400 || cfg.Gravity != 0.35 {
		t.Errorf("Missing keys should keep defaults: width=%v gravity=%v", cfg.Width, cfg.Gravity)
	}
}

func TestLoadEnvUserDirectory(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, AppDir, "configs", "env.yaml"), "max_steps: 500\n")

	cfg, err := LoadEnv("")
	if err != nil {
		t.Fatalf("LoadEnv() failed: %v", err)
	}
	if cfg.MaxSteps != 500 {
		t.Errorf("User config not used: max_steps=%d", cfg.MaxSteps)
	}
}

func TestLoadEnvUserDirectoryBrokenFileFallsThrough(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, AppDir, "configs", "env.yaml"), "max_steps: [\n")

	cfg, err := LoadEnv("")
	if err != nil {
		t.Fatalf("LoadEnv() failed: %v", err)
	}
	if cfg.MaxSteps != env.DefaultConfig().MaxSteps {
		t.Errorf("Broken user config should fall through to defaults, max_steps=%d", cfg.MaxSteps)
	}
}

func TestLoadEnvErrors(t *testing.T) {
	isolate(t)

	if _, err := LoadEnv(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing custom config")
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	writeFile(t, bad, "width: [1, 2\n")
	if _, err := LoadEnv(bad); err == nil {
		t.Error("Expected parse error")
	}

	invalid := filepath.Join(t.TempDir(), "invalid.yaml")
	writeFile(t, invalid, "pipe_gap: 900\n")
	_, err := LoadEnv(invalid)
	if !errors.Is(err, env.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoadGrid(t *testing.T) {
	isolate(t)

	g, err := LoadGrid("")
	if err != nil {
		t.Fatalf("LoadGrid() failed: %v", err)
	}
	if g.Size() != experiment.DefaultGrid().Size() {
		t.Errorf("Embedded grid has %d runs, expected %d", g.Size(), experiment.DefaultGrid().Size())
	}

	path := filepath.Join(t.TempDir(), "grid.yaml")
	writeFile(t, path, "episodes: [5]\ngaps: [160]\n")
	g, err = LoadGrid(path)
	if err != nil {
		t.Fatalf("LoadGrid() failed: %v", err)
	}
	if len(g.Episodes) != 1 || g.Episodes[0] != 5 || g.Gaps[0] != 160 {
		t.Errorf("Grid overrides not applied: %+v", g)
	}
	if len(g.Degrees) != 2 {
		t.Errorf("Unset axes should keep defaults, degrees=%v", g.Degrees)
	}

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	writeFile(t, empty, "degrees: []\n")
	if _, err := LoadGrid(empty); !errors.Is(err, experiment.ErrEmptyGrid) {
		t.Errorf("Expected ErrEmptyGrid, got %v", err)
	}
}

func TestApplyPreset(t *testing.T) {
	tests := []struct {
		preset DifficultyPreset
		gap    float64
	}{
		{DifficultyEasy, 170},
		{DifficultyNormal, 150},
		{DifficultyHard, 130},
		{DifficultyFixed, 123},
	}

	for _, tc := range tests {
		t.Run(string(tc.preset), func(t *testing.T) {
			cfg := env.DefaultConfig()
			cfg.PipeGap = 123
			ApplyPreset(&cfg, tc.preset)
			if cfg.PipeGap != tc.gap {
				t.Errorf("gap = %v, expected %v", cfg.PipeGap, tc.gap)
			}
		})
	}
}

func TestParsePreset(t *testing.T) {
	if p, err := ParsePreset(""); err != nil || p != DifficultyFixed {
		t.Errorf("Empty preset should mean fixed, got %q, %v", p, err)
	}
	if p, err := ParsePreset("hard"); err != nil || p != DifficultyHard {
		t.Errorf("ParsePreset(hard) = %q, %v", p, err)
	}
	if _, err := ParsePreset("nightmare"); err == nil {
		t.Error("Expected error for unknown preset")
	}
}
