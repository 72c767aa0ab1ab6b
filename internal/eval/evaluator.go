// Package eval runs policies against fresh environments and aggregates
// per-episode results.
package eval

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/flappy-lab/internal/env"
	"github.com/vovakirdan/flappy-lab/internal/registry"
	"github.com/vovakirdan/flappy-lab/internal/storage"
)

// EpisodeRecorder receives every finished episode. *storage.Store
// satisfies it.
type EpisodeRecorder interface {
	SaveEpisode(ep storage.Episode) (int64, error)
}

var _ EpisodeRecorder = (*storage.Store)(nil)

// Config controls an evaluation.
type Config struct {
	Episodes int
	// MaxSteps overrides the environment step cap when positive.
	MaxSteps int
	// Seed re-seeds the environment; every policy in Compare sees the same stream.
	Seed int64

	Recorder EpisodeRecorder
	Logger   *log.Logger
}

// DefaultConfig returns a ten-episode evaluation.
func DefaultConfig() Config {
	return Config{Episodes: 10, Seed: 42}
}

// EpisodeResult is the outcome of one episode.
type EpisodeResult struct {
	Episode int
	Score   int
	Steps   int
	Return  float64
	Reason  env.Termination
}

// Summary aggregates the episodes of one policy.
type Summary struct {
	Policy      string
	Title       string
	Episodes    []EpisodeResult
	MeanScore   float64
	BestScore   int
	SuccessRate float64 // share of episodes with score > 0
	MeanReturn  float64
	MeanSteps   float64
	Reasons     map[env.Termination]int
}

// Evaluate plays cfg.Episodes episodes of p on a new environment.
func Evaluate(ctx context.Context, envCfg env.Config, p registry.Policy, cfg Config) (Summary, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if cfg.Episodes <= 0 {
		return Summary{}, fmt.Errorf("eval: episodes must be positive, got %d", cfg.Episodes)
	}

	if cfg.MaxSteps > 0 {
		envCfg.MaxSteps = cfg.MaxSteps
	}
	envCfg.Seed = cfg.Seed
	e, err := env.New(envCfg)
	if err != nil {
		return Summary{}, fmt.Errorf("eval: %w", err)
	}

	results := make([]EpisodeResult, 0, cfg.Episodes)
	for ep := 1; ep <= cfg.Episodes; ep++ {
		if err := ctx.Err(); err != nil {
			return summarize(p, results), err
		}

		res, err := RunEpisode(e, p)
		if err != nil {
			return summarize(p, results), fmt.Errorf("eval: %s episode %d: %w", p.ID(), ep, err)
		}
		res.Episode = ep
		results = append(results, res)

		logger.Debug("episode finished",
			"policy", p.ID(),
			"episode", ep,
			"score", res.Score,
			"steps", res.Steps,
			"reason", res.Reason,
		)

		if cfg.Recorder != nil {
			_, err := cfg.Recorder.SaveEpisode(storage.Episode{
				Policy: p.ID(),
				Source: storage.SourceEval,
				Seed:   cfg.Seed,
				Score:  res.Score,
				Steps:  res.Steps,
				Return: res.Return,
				Reason: res.Reason.String(),
			})
			if err != nil {
				logger.Warn("could not record episode", "policy", p.ID(), "error", err)
			}
		}
	}

	s := summarize(p, results)
	logger.Info("evaluation finished",
		"policy", p.ID(),
		"episodes", len(results),
		"mean_score", fmt.Sprintf("%.2f", s.MeanScore),
		"best", s.BestScore,
		"success", fmt.Sprintf("%.2f", s.SuccessRate),
	)
	return s, nil
}

// RunEpisode resets e and plays one episode of p to termination.
func RunEpisode(e *env.Env, p registry.Policy) (EpisodeResult, error) {
	obs, _ := e.Reset()
	var out EpisodeResult
	for {
		res, err := e.Step(p.Act(obs))
		if err != nil {
			return out, err
		}
		out.Return += res.Reward
		obs = res.Obs
		if res.Done {
			out.Score = res.Info.Score
			out.Steps = res.Info.Steps
			out.Reason = res.Info.Reason
			return out, nil
		}
	}
}

// Compare evaluates every policy concurrently, one environment each, all
// seeded with cfg.Seed. Summaries are returned in the input order.
func Compare(ctx context.Context, envCfg env.Config, policies []registry.Policy, cfg Config) ([]Summary, error) {
	summaries := make([]Summary, len(policies))
	errs := make([]error, len(policies))

	var wg sync.WaitGroup
	for i, p := range policies {
		wg.Add(1)
		go func(i int, p registry.Policy) {
			defer wg.Done()
			summaries[i], errs[i] = Evaluate(ctx, envCfg, p, cfg)
		}(i, p)
	}
	wg.Wait()

	return summaries, errors.Join(errs...)
}

func summarize(p registry.Policy, results []EpisodeResult) Summary {
	s := Summary{
		Policy:   p.ID(),
		Title:    p.Title(),
		Episodes: results,
		Reasons:  make(map[env.Termination]int),
	}
	if len(results) == 0 {
		return s
	}

	var score, steps, ret float64
	success := 0
	for _, r := range results {
		score += float64(r.Score)
		steps += float64(r.Steps)
		ret += r.Return
		if r.Score > s.BestScore {
			s.BestScore = r.Score
		}
		if r.Score > 0 {
			success++
		}
		s.Reasons[r.Reason]++
	}

	n := float64(len(results))
	s.MeanScore = score / n
	s.MeanSteps = steps / n
	s.MeanReturn = ret / n
	s.SuccessRate = float64(success) / n
	return s
}
