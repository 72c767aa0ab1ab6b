// Package config provides YAML-based loading of the simulation and
// experiment-grid configuration plus the difficulty presets.
package config

import (
	"fmt"

	"github.com/vovakirdan/flappy-lab/internal/env"
)

// DifficultyPreset represents a named difficulty level.
type DifficultyPreset string

const (
	DifficultyEasy   DifficultyPreset = "easy"
	DifficultyNormal DifficultyPreset = "normal"
	DifficultyHard   DifficultyPreset = "hard"
	DifficultyFixed  DifficultyPreset = "fixed"
)

// Presets lists the accepted preset names.
var Presets = []DifficultyPreset{DifficultyEasy, DifficultyNormal, DifficultyHard, DifficultyFixed}

// GapForPreset returns the obstacle gap height for a preset.
// The second result is false for presets that leave the gap untouched.
func GapForPreset(preset DifficultyPreset) (float64, bool) {
	switch preset {
	case DifficultyEasy:
		return 170, true
	case DifficultyNormal:
		return 150, true
	case DifficultyHard:
		return 130, true
	default:
		return 0, false
	}
}

// ParsePreset validates a preset name. The empty string means fixed.
func ParsePreset(s string) (DifficultyPreset, error) {
	if s == "" {
		return DifficultyFixed, nil
	}
	for _, p := range Presets {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("config: unknown preset %q (want easy, normal, hard or fixed)", s)
}

// ApplyPreset modifies the config based on a difficulty preset.
// Fixed keeps whatever the loaded file says.
func ApplyPreset(cfg *env.Config, preset DifficultyPreset) {
	if gap, ok := GapForPreset(preset); ok {
		cfg.PipeGap = gap
	}
}
