// Package experiment sweeps collection and training hyperparameters, keeps
// every artifact, and selects the best run by validation accuracy.
package experiment

import (
	"errors"
	"fmt"
)

// ErrEmptyGrid is returned when any grid axis has no values.
var ErrEmptyGrid = errors.New("experiment: empty grid axis")

// Grid lists the values swept on every axis. Runs are the Cartesian product,
// with Episodes varying slowest and Degrees fastest.
type Grid struct {
	Episodes      []int     `yaml:"episodes"`
	Gaps          []float64 `yaml:"gaps"`
	Epsilons      []float64 `yaml:"epsilons"`
	LearningRates []float64 `yaml:"learning_rates"`
	Epochs        []int     `yaml:"epochs"`
	Degrees       []int     `yaml:"degrees"`
}

// DefaultGrid returns the reference sweep: 144 runs.
func DefaultGrid() Grid {
	return Grid{
		Episodes:      []int{60, 120, 200},
		Gaps:          []float64{170, 150, 130},
		Epsilons:      []float64{0.05, 0.15},
		LearningRates: []float64{0.05, 0.1},
		Epochs:        []int{60, 100},
		Degrees:       []int{1, 2},
	}
}

// Params is one point of the grid.
type Params struct {
	Episodes     int
	Gap          float64
	Epsilon      float64
	LearningRate float64
	Epochs       int
	Degree       int
}

// String formats the parameters for logs.
func (p Params) String() string {
	return fmt.Sprintf("ep=%d gap=%g eps=%g lr=%g epc=%d poly=%d",
		p.Episodes, p.Gap, p.Epsilon, p.LearningRate, p.Epochs, p.Degree)
}

// Validate checks that every axis has at least one value.
func (g Grid) Validate() error {
	axes := []struct {
		name string
		n    int
	}{
		{"episodes", len(g.Episodes)},
		{"gaps", len(g.Gaps)},
		{"epsilons", len(g.Epsilons)},
		{"learning_rates", len(g.LearningRates)},
		{"epochs", len(g.Epochs)},
		{"degrees", len(g.Degrees)},
	}
	for _, a := range axes {
		if a.n == 0 {
			return fmt.Errorf("%w: %s", ErrEmptyGrid, a.name)
		}
	}
	return nil
}

// Size returns the number of runs.
func (g Grid) Size() int {
	return len(g.Episodes) * len(g.Gaps) * len(g.Epsilons) *
		len(g.LearningRates) * len(g.Epochs) * len(g.Degrees)
}

// Combinations expands the grid in run order.
func (g Grid) Combinations() []Params {
	out := make([]Params, 0, g.Size())
	for _, episodes := range g.Episodes {
		for _, gap := range g.Gaps {
			for _, eps := range g.Epsilons {
				for _, lr := range g.LearningRates {
					for _, epochs := range g.Epochs {
						for _, degree := range g.Degrees {
							out = append(out, Params{
								Episodes:     episodes,
								Gap:          gap,
								Epsilon:      eps,
								LearningRate: lr,
								Epochs:       epochs,
								Degree:       degree,
							})
						}
					}
				}
			}
		}
	}
	return out
}
