package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/flappy-lab/internal/env"
	"github.com/vovakirdan/flappy-lab/internal/registry"
)

// Noise selects how labels are corrupted during collection.
type Noise string

const (
	// NoiseRandom replaces the oracle action with a uniform draw.
	NoiseRandom Noise = "random"
	// NoiseFlip inverts the oracle action.
	NoiseFlip Noise = "flip"
)

// ErrInvalidCollectConfig is returned for out-of-range collection settings.
var ErrInvalidCollectConfig = errors.New("dataset: invalid collect config")

// CollectConfig controls a collection run.
type CollectConfig struct {
	Episodes int
	// Epsilon is the per-step probability of corrupting the oracle action.
	Epsilon float64
	Noise   Noise
	// Seed drives the noise generator only; the environment keeps its own.
	Seed int64
}

// DefaultCollectConfig returns a noise-free configuration.
func DefaultCollectConfig() CollectConfig {
	return CollectConfig{
		Episodes: 50,
		Epsilon:  0,
		Noise:    NoiseRandom,
		Seed:     42,
	}
}

// Validate checks the configuration.
func (c CollectConfig) Validate() error {
	switch {
	case c.Episodes <= 0:
		return fmt.Errorf("%w: episodes must be positive", ErrInvalidCollectConfig)
	case c.Epsilon < 0 || c.Epsilon > 1:
		return fmt.Errorf("%w: epsilon must be in [0, 1]", ErrInvalidCollectConfig)
	case c.Noise != NoiseRandom && c.Noise != NoiseFlip:
		return fmt.Errorf("%w: unknown noise %q", ErrInvalidCollectConfig, c.Noise)
	}
	return nil
}

// EpisodeSummary describes one collected episode.
type EpisodeSummary struct {
	Episode int
	Score   int
	Steps   int
	Return  float64
	Reason  env.Termination
}

// Collect runs cfg.Episodes episodes driven by oracle and records every
// (observation, executed action) pair. With probability Epsilon the oracle
// action is corrupted before it is executed, and the corrupted action is the
// recorded label.
func Collect(ctx context.Context, e *env.Env, oracle registry.Policy, cfg CollectConfig, logger *log.Logger) (Dataset, []EpisodeSummary, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if err := cfg.Validate(); err != nil {
		return Dataset{}, nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	var ds Dataset
	summaries := make([]EpisodeSummary, 0, cfg.Episodes)

	for ep := 0; ep < cfg.Episodes; ep++ {
		if err := ctx.Err(); err != nil {
			return ds, summaries, err
		}

		obs, _ := e.Reset()
		sum := EpisodeSummary{Episode: ep + 1}
		for {
			a := oracle.Act(obs)
			if cfg.Epsilon > 0 && rng.Float64() < cfg.Epsilon {
				a = corrupt(a, cfg.Noise, rng)
			}
			ds.Append(obs, a)

			res, err := e.Step(a)
			if err != nil {
				return ds, summaries, fmt.Errorf("dataset: episode %d: %w", ep+1, err)
			}
			sum.Return += res.Reward
			obs = res.Obs
			if res.Done {
				sum.Score = res.Info.Score
				sum.Steps = res.Info.Steps
				sum.Reason = res.Info.Reason
				break
			}
		}
		summaries = append(summaries, sum)

		logger.Info("collected episode",
			"episode", fmt.Sprintf("%d/%d", ep+1, cfg.Episodes),
			"score", sum.Score,
			"steps", sum.Steps,
			"reason", sum.Reason,
		)
	}

	logger.Info("collection finished",
		"samples", ds.Len(),
		"flap_rate", fmt.Sprintf("%.3f", ds.ActionRate()),
		"mean_score", fmt.Sprintf("%.2f", MeanScore(summaries)),
	)
	return ds, summaries, nil
}

func corrupt(a env.Action, noise Noise, rng *rand.Rand) env.Action {
	if noise == NoiseFlip {
		return 1 - a
	}
	return env.Action(rng.Intn(2))
}

// MeanScore averages the episode scores.
func MeanScore(summaries []EpisodeSummary) float64 {
	if len(summaries) == 0 {
		return 0
	}
	total := 0
	for _, s := range summaries {
		total += s.Score
	}
	return float64(total) / float64(len(summaries))
}
