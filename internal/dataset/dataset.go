// Package dataset collects labeled demonstrations from an oracle policy and
// reads and writes them as CSV.
package dataset

import (
	"github.com/vovakirdan/flappy-lab/internal/env"
)

// Sample is one observation and the action taken from it.
type Sample struct {
	Obs    env.Observation
	Action env.Action
}

// Dataset is an ordered collection of samples.
type Dataset struct {
	Samples []Sample
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.Samples)
}

// Append adds a sample.
func (d *Dataset) Append(obs env.Observation, a env.Action) {
	d.Samples = append(d.Samples, Sample{Obs: obs, Action: a})
}

// Features returns the observations widened to float64 rows.
func (d *Dataset) Features() [][]float64 {
	out := make([][]float64, len(d.Samples))
	for i, s := range d.Samples {
		out[i] = s.Obs.Float64s()
	}
	return out
}

// Labels returns the actions as 0/1 integers.
func (d *Dataset) Labels() []int {
	out := make([]int, len(d.Samples))
	for i, s := range d.Samples {
		out[i] = int(s.Action)
	}
	return out
}

// ActionRate returns the share of flap labels.
func (d *Dataset) ActionRate() float64 {
	if len(d.Samples) == 0 {
		return 0
	}
	flaps := 0
	for _, s := range d.Samples {
		if s.Action == env.Flap {
			flaps++
		}
	}
	return float64(flaps) / float64(len(d.Samples))
}
