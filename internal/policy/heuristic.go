// Package policy holds the controllers that drive the environment: the
// heuristic oracles used to label demonstrations and the linear policy
// trained to imitate them.
//
// Screen y grows downward, so delta_gap_norm > 0 means the gap center is
// below the agent and delta_gap_norm < 0 means it is above.
package policy

import (
	"github.com/vovakirdan/flappy-lab/internal/env"
	"github.com/vovakirdan/flappy-lab/internal/registry"
)

func init() {
	registry.Register("aggressive", func() registry.Policy { return NewAggressive() })
	registry.Register("safe", func() registry.Policy { return NewSafe() })
}

// Aggressive flaps whenever the gap center is above the agent by more than
// Threshold. It reacts late near obstacles and crashes often.
type Aggressive struct {
	Threshold float64
}

// NewAggressive returns the aggressive heuristic with its reference threshold.
func NewAggressive() *Aggressive {
	return &Aggressive{Threshold: 0.12}
}

// ID returns "aggressive".
func (p *Aggressive) ID() string { return "aggressive" }

// Title returns the display name.
func (p *Aggressive) Title() string { return "Aggressive heuristic" }

// Act flaps when delta_gap_norm < -Threshold.
func (p *Aggressive) Act(obs env.Observation) env.Action {
	if obs.DeltaGapNorm() < -p.Threshold {
		return env.Flap
	}
	return env.Glide
}

// Safe is the boundary-aware multi-rule heuristic used as the default oracle.
type Safe struct {
	FloorGuard   float64 // flap when y_norm is above this
	CeilingGuard float64 // never flap when y_norm is below this
	FarAbove     float64 // flap when the gap is this far above
	NearDist     float64 // obstacle distance that enables the falling rule
	Falling      float64 // vy_norm above this counts as falling
}

// NewSafe returns the safe heuristic with its reference thresholds.
func NewSafe() *Safe {
	return &Safe{
		FloorGuard:   0.9,
		CeilingGuard: 0.1,
		FarAbove:     0.12,
		NearDist:     0.25,
		Falling:      -0.1,
	}
}

// ID returns "safe".
func (p *Safe) ID() string { return "safe" }

// Title returns the display name.
func (p *Safe) Title() string { return "Safe heuristic" }

// Act evaluates the rules in order; the first match wins.
func (p *Safe) Act(obs env.Observation) env.Action {
	y := obs.YNorm()
	delta := obs.DeltaGapNorm()

	switch {
	case y > p.FloorGuard:
		return env.Flap
	case y < p.CeilingGuard:
		return env.Glide
	case delta < -p.FarAbove:
		return env.Flap
	case obs.DistNorm() < p.NearDist && delta < 0 && obs.VYNorm() > p.Falling:
		return env.Flap
	default:
		return env.Glide
	}
}
