package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/flappy-lab/internal/env"
	"github.com/vovakirdan/flappy-lab/internal/experiment"
)

// AppDir is the per-user directory under $HOME.
const AppDir = ".flappylab"

// LoadEnv loads the simulation configuration and validates it.
// Search order: customPath -> ~/.flappylab/configs/env.yaml -> ./configs/env.yaml -> embedded default
// Keys missing from the chosen file keep their built-in values.
func LoadEnv(customPath string) (env.Config, error) {
	cfg, err := load("env", customPath, env.DefaultConfig())
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// LoadGrid loads the experiment grid.
// Search order: customPath -> ~/.flappylab/configs/grid.yaml -> ./configs/grid.yaml -> embedded default
func LoadGrid(customPath string) (experiment.Grid, error) {
	g, err := load("grid", customPath, experiment.DefaultGrid())
	if err != nil {
		return g, err
	}
	if err := g.Validate(); err != nil {
		return g, fmt.Errorf("config: %w", err)
	}
	return g, nil
}

// load decodes the first readable config for name on top of fallback.
// Only an explicit customPath turns read and parse failures into errors.
func load[T any](name, customPath string, fallback T) (T, error) {
	filename := name + ".yaml"

	if customPath != "" {
		cfg := fallback
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return cfg, nil
	}

	// Try user config directory
	if userCfgPath := userConfigPath(filename); userCfgPath != "" {
		if cfg, ok := tryLoad(userCfgPath, fallback); ok {
			return cfg, nil
		}
	}

	// Try local configs directory
	if cfg, ok := tryLoad(filepath.Join("configs", filename), fallback); ok {
		return cfg, nil
	}

	// Use embedded default YAML
	cfg := fallback
	if err := yaml.Unmarshal(GetDefaultYAML(name), &cfg); err != nil {
		return fallback, nil // Fallback to hardcoded if embed fails
	}
	return cfg, nil
}

func tryLoad[T any](path string, fallback T) (T, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fallback, false
	}
	cfg := fallback
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fallback, false
	}
	return cfg, true
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, AppDir, "configs", filename)
}
