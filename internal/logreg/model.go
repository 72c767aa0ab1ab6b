package logreg

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/vovakirdan/flappy-lab/internal/env"
)

var (
	// ErrShapeMismatch is returned when weights, statistics and features disagree.
	ErrShapeMismatch = errors.New("logreg: shape mismatch")
	// ErrUnsupportedDegree is returned for polynomial degrees other than 1 and 2.
	ErrUnsupportedDegree = errors.New("logreg: unsupported degree")
)

// Model is a trained linear classifier over standardized, optionally
// expanded observations. Std already includes the training epsilon, so
// inference divides by it directly.
//
// In the artifact w is a feature-count×1 column while mean and std are
// 1×feature-count rows.
type Model struct {
	Degree   int      `yaml:"degree"`
	Features []string `yaml:"features"`
	Weights  Column   `yaml:"w"`
	Bias     float64  `yaml:"b"`
	Mean     Row      `yaml:"mean"`
	Std      Row      `yaml:"std"`
}

// Validate checks that every vector matches the expanded feature count.
func (m *Model) Validate() error {
	if m.Degree < 1 || m.Degree > MaxDegree {
		return fmt.Errorf("%w: %d", ErrUnsupportedDegree, m.Degree)
	}

	want := ExpandedSize(env.NumFeatures, m.Degree)
	if len(m.Weights) != want {
		return fmt.Errorf("%w: %d weights, expected %d", ErrShapeMismatch, len(m.Weights), want)
	}
	if len(m.Mean) != want {
		return fmt.Errorf("%w: %d means, expected %d", ErrShapeMismatch, len(m.Mean), want)
	}
	if len(m.Std) != want {
		return fmt.Errorf("%w: %d stds, expected %d", ErrShapeMismatch, len(m.Std), want)
	}
	for i, s := range m.Std {
		if s <= 0 || math.IsNaN(s) {
			return fmt.Errorf("%w: std[%d] = %v", ErrShapeMismatch, i, s)
		}
	}

	if len(m.Features) > 0 {
		names := FeatureNames(m.Degree)
		if len(m.Features) != len(names) {
			return fmt.Errorf("%w: %d feature names, expected %d", ErrShapeMismatch, len(m.Features), len(names))
		}
		for i := range names {
			if m.Features[i] != names[i] {
				return fmt.Errorf("%w: feature %d is %q, expected %q", ErrShapeMismatch, i, m.Features[i], names[i])
			}
		}
	}
	return nil
}

// Prob returns the flap probability for a raw observation.
func (m *Model) Prob(obs env.Observation) float64 {
	return m.ProbRaw(obs.Float64s())
}

// ProbRaw returns the flap probability for an unexpanded feature vector.
func (m *Model) ProbRaw(x []float64) float64 {
	return sigmoid(m.logit(Expand(x, m.Degree)))
}

// Predict applies the 0.5 decision threshold.
func (m *Model) Predict(obs env.Observation) env.Action {
	if m.Prob(obs) >= 0.5 {
		return env.Flap
	}
	return env.Glide
}

// logit computes w·standardize(x) + b on an expanded vector. x is
// standardized in place.
func (m *Model) logit(x []float64) float64 {
	v := mat.NewVecDense(len(x), x)
	v.SubVec(v, mat.NewVecDense(len(m.Mean), m.Mean))
	v.DivElemVec(v, mat.NewVecDense(len(m.Std), m.Std))
	return mat.Dot(mat.NewVecDense(len(m.Weights), m.Weights), v) + m.Bias
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
