package experiment

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/flappy-lab/internal/env"
	"github.com/vovakirdan/flappy-lab/internal/logreg"
	"github.com/vovakirdan/flappy-lab/internal/policy"
	"github.com/vovakirdan/flappy-lab/internal/storage"
)

type memRecorder struct {
	mu   sync.Mutex
	runs []storage.Run
}

func (r *memRecorder) SaveRun(run storage.Run) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return int64(len(r.runs)), nil
}

func smallGrid() Grid {
	return Grid{
		Episodes:      []int{2},
		Gaps:          []float64{170, 150},
		Epsilons:      []float64{0.1},
		LearningRates: []float64{0.1},
		Epochs:        []int{10},
		Degrees:       []int{1, 2},
	}
}

func shortBase() env.Config {
	cfg := env.DefaultConfig()
	cfg.MaxSteps = 150
	return cfg
}

func TestGridCombinations(t *testing.T) {
	g := DefaultGrid()
	require.NoError(t, g.Validate())
	assert.Equal(t, 144, g.Size())

	combos := g.Combinations()
	require.Len(t, combos, 144)
	assert.Equal(t, Params{Episodes: 60, Gap: 170, Epsilon: 0.05, LearningRate: 0.05, Epochs: 60, Degree: 1}, combos[0])
	assert.Equal(t, 2, combos[1].Degree, "degree varies fastest")
	assert.Equal(t, 200, combos[143].Episodes, "episodes vary slowest")
}

func TestGridValidate(t *testing.T) {
	g := smallGrid()
	g.Degrees = nil
	assert.ErrorIs(t, g.Validate(), ErrEmptyGrid)
}

func TestNewRunnerRequiresOracle(t *testing.T) {
	_, err := NewRunner(shortBase(), smallGrid(), Options{})
	assert.Error(t, err)
}

func TestRunnerWritesArtifacts(t *testing.T) {
	dir := t.TempDir()
	rec := &memRecorder{}

	r, err := NewRunner(shortBase(), smallGrid(), Options{
		OutDir:   dir,
		Seed:     42,
		ValSplit: 0.2,
		Oracle:   policy.NewSafe(),
		Recorder: rec,
	})
	require.NoError(t, err)

	results, best, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 4)
	require.NotNil(t, best)

	for i, res := range results {
		assert.Equal(t, i+1, res.Index)
		assert.FileExists(t, filepath.Join(dir, filepath.Base(res.WeightsPath)))
		assert.NotEmpty(t, res.RunID)
		assert.Positive(t, res.Samples)
		assert.Positive(t, res.ValSamples)
		assert.GreaterOrEqual(t, best.ValAcc, res.ValAcc)
	}
	assert.Equal(t, 2, results[1].Params.Degree)

	// best_weights.yaml is a loadable copy of the best run
	bestModel, err := logreg.Load(filepath.Join(dir, BestFile))
	require.NoError(t, err)
	runModel, err := logreg.Load(best.WeightsPath)
	require.NoError(t, err)
	assert.Equal(t, runModel, bestModel)

	f, err := os.Open(filepath.Join(dir, SummaryFile))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, summaryHeader, rows[0])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "170", rows[1][3])

	require.Len(t, rec.runs, 4)
	for _, run := range rec.runs {
		assert.Equal(t, r.ID(), run.Experiment)
	}
}

func TestRunnerZeroValSplitTrainsOnEverything(t *testing.T) {
	r, err := NewRunner(shortBase(), smallGrid(), Options{OutDir: t.TempDir(), Seed: 3, ValSplit: 0, Oracle: policy.NewSafe()})
	require.NoError(t, err)

	results, _, err := r.Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, res := range results {
		assert.Positive(t, res.Samples)
		assert.Zero(t, res.ValSamples, "run %d held out samples", res.Index)
		assert.Zero(t, res.ValAcc)
	}
}

func TestNewRunnerRejectsValSplit(t *testing.T) {
	for _, split := range []float64{-0.1, 1} {
		_, err := NewRunner(shortBase(), smallGrid(), Options{ValSplit: split, Oracle: policy.NewSafe()})
		assert.Error(t, err, "split %v", split)
	}
}

func TestRunnerDeterministicAcrossSweeps(t *testing.T) {
	run := func() []Result {
		r, err := NewRunner(shortBase(), smallGrid(), Options{OutDir: t.TempDir(), Seed: 7, Oracle: policy.NewSafe()})
		require.NoError(t, err)
		res, _, err := r.Run(context.Background())
		require.NoError(t, err)
		return res
	}

	a, b := run(), run()
	require.Len(t, b, len(a))
	for i := range a {
		assert.Equal(t, a[i].Samples, b[i].Samples)
		assert.Equal(t, a[i].ValAcc, b[i].ValAcc)
	}
}

func TestRunnerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, err := NewRunner(shortBase(), smallGrid(), Options{OutDir: t.TempDir(), Oracle: policy.NewSafe()})
	require.NoError(t, err)

	results, best, err := r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
	assert.Nil(t, best)
}
