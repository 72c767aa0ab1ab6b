package env

import (
	"math"

	"github.com/vovakirdan/flappy-lab/internal/core"
)

// Feature indices into an Observation.
const (
	FeatYNorm = iota
	FeatVYNorm
	FeatDistNorm
	FeatDeltaGapNorm

	NumFeatures
)

// FeatureNames lists the observation columns in order. Persisted datasets
// and trained artifacts depend on this exact order.
var FeatureNames = [NumFeatures]string{"y_norm", "vy_norm", "dist_norm", "delta_gap_norm"}

// Observation is the normalized state vector handed to policies:
//
//	y_norm          position / height (leaves [0,1] only on the terminating tick)
//	vy_norm         velocity / vy_max, clamped to [-1,1]
//	dist_norm       distance to the next obstacle's trailing edge / width, clamped to [0,1]
//	delta_gap_norm  (gap center - position) / height, clamped to [-1,1]
//
// Screen y grows downward, so a positive delta_gap_norm means the gap is below the agent.
type Observation [NumFeatures]float32

// YNorm returns the normalized vertical position.
func (o Observation) YNorm() float64 { return float64(o[FeatYNorm]) }

// VYNorm returns the normalized vertical velocity.
func (o Observation) VYNorm() float64 { return float64(o[FeatVYNorm]) }

// DistNorm returns the normalized distance to the next obstacle.
func (o Observation) DistNorm() float64 { return float64(o[FeatDistNorm]) }

// DeltaGapNorm returns the normalized offset from the agent to the gap center.
func (o Observation) DeltaGapNorm() float64 { return float64(o[FeatDeltaGapNorm]) }

// Float64s widens the observation for numeric consumers.
func (o Observation) Float64s() []float64 {
	out := make([]float64, NumFeatures)
	for i, v := range o {
		out[i] = float64(v)
	}
	return out
}

// encode computes the observation for the given state.
func encode(cfg *Config, y, vy float64, obstacles *obstacleQueue) Observation {
	dist := cfg.Width
	gapY := cfg.Height / 2
	if o, ok := obstacles.nearest(cfg.PlayerX); ok {
		dist = math.Max(0, o.Right(cfg.PipeWidth)-cfg.PlayerX)
		gapY = o.GapY
	}

	return Observation{
		float32(y / cfg.Height),
		float32(core.ClampF(vy/math.Max(1e-6, cfg.VYMax), -1, 1)),
		float32(core.ClampF(dist/cfg.Width, 0, 1)),
		float32(core.ClampF((gapY-y)/cfg.Height, -1, 1)),
	}
}
