package eval

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/flappy-lab/internal/env"
	"github.com/vovakirdan/flappy-lab/internal/policy"
	"github.com/vovakirdan/flappy-lab/internal/registry"
	"github.com/vovakirdan/flappy-lab/internal/storage"
)

type glide struct{}

func (glide) ID() string                     { return "glide" }
func (glide) Title() string                  { return "Always glide" }
func (glide) Act(env.Observation) env.Action { return env.Glide }

type memRecorder struct {
	mu       sync.Mutex
	episodes []storage.Episode
	fail     bool
}

func (r *memRecorder) SaveEpisode(ep storage.Episode) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return 0, errors.New("disk full")
	}
	r.episodes = append(r.episodes, ep)
	return int64(len(r.episodes)), nil
}

func TestEvaluateFallingPolicy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Episodes = 3

	s, err := Evaluate(context.Background(), env.DefaultConfig(), glide{}, cfg)
	require.NoError(t, err)

	require.Len(t, s.Episodes, 3)
	assert.Equal(t, "glide", s.Policy)
	assert.Equal(t, 3, s.Reasons[env.OutOfBounds])
	assert.Zero(t, s.SuccessRate)
	assert.Zero(t, s.BestScore)

	for i, ep := range s.Episodes {
		assert.Equal(t, i+1, ep.Episode)
		assert.InDelta(t, 0.1*float64(ep.Steps)-1, ep.Return, 1e-9)
	}
	assert.InDelta(t, float64(s.Episodes[0].Steps), s.MeanSteps, 1e-9, "falling episodes are identical")
}

func TestEvaluateStepCapOverride(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Episodes = 2
	cfg.MaxSteps = 5

	s, err := Evaluate(context.Background(), env.DefaultConfig(), glide{}, cfg)
	require.NoError(t, err)

	assert.Equal(t, 2, s.Reasons[env.StepCap])
	assert.InDelta(t, 0.5, s.MeanReturn, 1e-9)
	assert.InDelta(t, 5, s.MeanSteps, 1e-9)
}

func TestEvaluateRecordsEpisodes(t *testing.T) {
	rec := &memRecorder{}
	cfg := DefaultConfig()
	cfg.Episodes = 4
	cfg.MaxSteps = 20
	cfg.Seed = 7
	cfg.Recorder = rec

	_, err := Evaluate(context.Background(), env.DefaultConfig(), glide{}, cfg)
	require.NoError(t, err)

	require.Len(t, rec.episodes, 4)
	for _, ep := range rec.episodes {
		assert.Equal(t, "glide", ep.Policy)
		assert.Equal(t, storage.SourceEval, ep.Source)
		assert.Equal(t, int64(7), ep.Seed)
		assert.Equal(t, "step_cap", ep.Reason)
	}
}

func TestEvaluateRecorderFailureIsNotFatal(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Episodes = 2
	cfg.MaxSteps = 5
	cfg.Recorder = &memRecorder{fail: true}

	s, err := Evaluate(context.Background(), env.DefaultConfig(), glide{}, cfg)
	require.NoError(t, err)
	assert.Len(t, s.Episodes, 2)
}

func TestEvaluateErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Episodes = 0
	_, err := Evaluate(context.Background(), env.DefaultConfig(), glide{}, cfg)
	assert.Error(t, err)

	bad := env.DefaultConfig()
	bad.Width = 0
	_, err = Evaluate(context.Background(), bad, glide{}, DefaultConfig())
	assert.ErrorIs(t, err, env.ErrInvalidConfig)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Evaluate(ctx, env.DefaultConfig(), glide{}, DefaultConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvaluateDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Episodes = 3
	cfg.MaxSteps = 600

	s1, err := Evaluate(context.Background(), env.DefaultConfig(), policy.NewSafe(), cfg)
	require.NoError(t, err)
	s2, err := Evaluate(context.Background(), env.DefaultConfig(), policy.NewSafe(), cfg)
	require.NoError(t, err)

	assert.Equal(t, s1, s2)
}

func TestCompareKeepsOrderAndSeeds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Episodes = 3
	cfg.MaxSteps = 600
	rec := &memRecorder{}
	cfg.Recorder = rec

	policies := []registry.Policy{policy.NewSafe(), glide{}, policy.NewAggressive()}
	summaries, err := Compare(context.Background(), env.DefaultConfig(), policies, cfg)
	require.NoError(t, err)
	require.Len(t, summaries, 3)

	assert.Equal(t, "safe", summaries[0].Policy)
	assert.Equal(t, "glide", summaries[1].Policy)
	assert.Equal(t, "aggressive", summaries[2].Policy)
	assert.Len(t, rec.episodes, 9)

	// Compare runs each policy on the same stream as a standalone evaluation.
	cfg.Recorder = nil
	alone, err := Evaluate(context.Background(), env.DefaultConfig(), policy.NewSafe(), cfg)
	require.NoError(t, err)
	assert.Equal(t, alone.Episodes, summaries[0].Episodes)
}

func TestSummarizeEmpty(t *testing.T) {
	s := summarize(glide{}, nil)
	assert.Equal(t, "glide", s.Policy)
	assert.Zero(t, s.MeanScore)
	assert.NotNil(t, s.Reasons)
}
