package env

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is wrapped by every error returned from Config.Validate.
var ErrInvalidConfig = errors.New("env: invalid config")

// Config holds the immutable parameters of one environment instance.
// Distances are in world units, velocities in units per tick.
type Config struct {
	Width       float64 `yaml:"width"`
	Height      float64 `yaml:"height"` // Whole units; gap centers are drawn on the integer grid
	PlayerX     float64 `yaml:"player_x"`
	PlayerSize  float64 `yaml:"player_size"`
	Gravity     float64 `yaml:"gravity"`
	FlapImpulse float64 `yaml:"flap_impulse"` // Negative = upward
	PipeSpeed   float64 `yaml:"pipe_speed"`
	PipeGap     float64 `yaml:"pipe_gap"`
	PipeWidth   float64 `yaml:"pipe_width"`
	PipeSpacing float64 `yaml:"pipe_spacing"`
	MaxSteps    int     `yaml:"max_steps"`
	VYMin       float64 `yaml:"vy_min"`
	VYMax       float64 `yaml:"vy_max"`
	SpawnMargin int     `yaml:"spawn_margin"` // Gap centers are drawn from [margin, height-margin]
	Seed        int64   `yaml:"seed"`
}

// DefaultConfig returns the reference configuration.
func DefaultConfig() Config {
	return Config{
		Width:       400,
		Height:      600,
		PlayerX:     80,
		PlayerSize:  20,
		Gravity:     0.35,
		FlapImpulse: -7.0,
		PipeSpeed:   3.0,
		PipeGap:     150,
		PipeWidth:   50,
		PipeSpacing: 220,
		MaxSteps:    10000,
		VYMin:       -12,
		VYMax:       12,
		SpawnMargin: 90,
		Seed:        42,
	}
}

// Validate rejects configurations that would make the simulation meaningless.
func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: width and height must be positive (got %gx%g)", ErrInvalidConfig, c.Width, c.Height)
	case c.Height != math.Trunc(c.Height):
		return fmt.Errorf("%w: height must be a whole number, got %g", ErrInvalidConfig, c.Height)
	case c.PlayerSize <= 0:
		return fmt.Errorf("%w: player_size must be positive", ErrInvalidConfig)
	case c.PipeWidth <= 0:
		return fmt.Errorf("%w: pipe_width must be positive", ErrInvalidConfig)
	case c.PipeGap <= 0 || c.PipeGap >= c.Height:
		return fmt.Errorf("%w: pipe_gap must be in (0, height), got %g", ErrInvalidConfig, c.PipeGap)
	case c.PipeSpacing <= c.PipeWidth:
		return fmt.Errorf("%w: pipe_spacing (%g) must exceed pipe_width (%g)", ErrInvalidConfig, c.PipeSpacing, c.PipeWidth)
	case c.PipeSpeed <= 0 || c.PipeSpeed > c.PipeWidth:
		return fmt.Errorf("%w: pipe_speed must be in (0, pipe_width], got %g", ErrInvalidConfig, c.PipeSpeed)
	case c.MaxSteps <= 0:
		return fmt.Errorf("%w: max_steps must be positive", ErrInvalidConfig)
	case c.VYMax <= 0 || c.VYMin >= c.VYMax:
		return fmt.Errorf("%w: need vy_min < vy_max and vy_max > 0 (got %g, %g)", ErrInvalidConfig, c.VYMin, c.VYMax)
	case c.SpawnMargin < 0 || float64(2*c.SpawnMargin) > c.Height:
		return fmt.Errorf("%w: spawn_margin %d leaves no room for a gap center", ErrInvalidConfig, c.SpawnMargin)
	}
	return nil
}
