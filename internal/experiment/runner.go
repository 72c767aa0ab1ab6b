package experiment

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vovakirdan/flappy-lab/internal/dataset"
	"github.com/vovakirdan/flappy-lab/internal/env"
	"github.com/vovakirdan/flappy-lab/internal/logreg"
	"github.com/vovakirdan/flappy-lab/internal/registry"
	"github.com/vovakirdan/flappy-lab/internal/storage"
)

// Artifact names inside the output directory.
const (
	SummaryFile = "summary.csv"
	BestFile    = "best_weights.yaml"
)

// summaryHeader is the column layout of summary.csv.
var summaryHeader = []string{
	"run", "run_id", "episodes", "gap", "epsilon", "lr", "epochs", "degree",
	"samples", "train_acc", "val_acc", "weights_path",
}

// RunRecorder receives every finished run. *storage.Store satisfies it.
type RunRecorder interface {
	SaveRun(r storage.Run) (int64, error)
}

var _ RunRecorder = (*storage.Store)(nil)

// Options configures a sweep.
type Options struct {
	OutDir string
	// Seed is the base seed; run n collects and trains with Seed+n.
	Seed     int64
	// ValSplit is the held-out fraction in [0, 1). Zero trains on every sample.
	ValSplit float64
	Oracle   registry.Policy
	Noise    dataset.Noise

	Recorder RunRecorder
	Logger   *log.Logger
}

// Result is one finished run.
type Result struct {
	RunID       string
	Index       int
	Params      Params
	Samples     int
	ValSamples  int
	TrainAcc    float64
	ValAcc      float64
	WeightsPath string
}

// Runner executes a grid sweep.
type Runner struct {
	base   env.Config
	grid   Grid
	opts   Options
	logger *log.Logger
	id     string
}

// NewRunner validates its inputs and assigns the sweep an experiment id.
func NewRunner(base env.Config, grid Grid, opts Options) (*Runner, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	if opts.Oracle == nil {
		return nil, fmt.Errorf("experiment: oracle policy is required")
	}
	if opts.OutDir == "" {
		opts.OutDir = "runs"
	}
	if opts.ValSplit < 0 || opts.ValSplit >= 1 {
		return nil, fmt.Errorf("experiment: val split must be in [0, 1), got %g", opts.ValSplit)
	}
	if opts.Noise == "" {
		opts.Noise = dataset.NoiseRandom
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Runner{
		base:   base,
		grid:   grid,
		opts:   opts,
		logger: logger,
		id:     uuid.New().String(),
	}, nil
}

// ID returns the experiment id recorded with every run.
func (r *Runner) ID() string {
	return r.id
}

// Run executes every combination, writing run_<n>.yaml and a summary.csv row
// per run, and copies the best artifact to best_weights.yaml. Runs finished
// before a cancellation stay on disk and in the results.
func (r *Runner) Run(ctx context.Context) ([]Result, *Result, error) {
	if err := os.MkdirAll(r.opts.OutDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("experiment: create output directory: %w", err)
	}

	summaryPath := filepath.Join(r.opts.OutDir, SummaryFile)
	f, err := os.Create(summaryPath)
	if err != nil {
		return nil, nil, fmt.Errorf("experiment: create summary: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := writeRow(w, summaryHeader); err != nil {
		return nil, nil, err
	}

	combos := r.grid.Combinations()
	r.logger.Info("starting sweep", "experiment", r.id, "runs", len(combos), "out", r.opts.OutDir)

	var results []Result
	var best *Result
	for i, p := range combos {
		if err := ctx.Err(); err != nil {
			return results, best, err
		}

		res, err := r.runOne(ctx, i+1, p)
		if err != nil {
			return results, best, err
		}
		results = append(results, res)

		if err := writeRow(w, summaryRow(res)); err != nil {
			return results, best, err
		}

		if best == nil || res.ValAcc > best.ValAcc {
			b := res
			best = &b
		}
	}

	if best != nil {
		if err := copyFile(best.WeightsPath, filepath.Join(r.opts.OutDir, BestFile)); err != nil {
			return results, best, err
		}
		r.logger.Info("best run",
			"run", best.Index,
			"val_acc", fmt.Sprintf("%.4f", best.ValAcc),
			"params", best.Params.String(),
			"saved", filepath.Join(r.opts.OutDir, BestFile),
		)
	}
	return results, best, nil
}

func (r *Runner) runOne(ctx context.Context, index int, p Params) (Result, error) {
	seed := r.opts.Seed + int64(index)
	logger := r.logger.With("run", index)
	logger.Info("run started", "params", p.String())

	cfg := r.base
	cfg.PipeGap = p.Gap
	cfg.Seed = seed
	e, err := env.New(cfg)
	if err != nil {
		return Result{}, fmt.Errorf("experiment: run %d: %w", index, err)
	}

	ds, _, err := dataset.Collect(ctx, e, r.opts.Oracle, dataset.CollectConfig{
		Episodes: p.Episodes,
		Epsilon:  p.Epsilon,
		Noise:    r.opts.Noise,
		Seed:     seed,
	}, nil)
	if err != nil {
		return Result{}, fmt.Errorf("experiment: run %d: %w", index, err)
	}

	tc := logreg.DefaultTrainConfig()
	tc.LearningRate = p.LearningRate
	tc.Epochs = p.Epochs
	tc.Degree = p.Degree
	tc.ValSplit = r.opts.ValSplit
	tc.Seed = seed
	model, report, err := logreg.Train(ds.Features(), ds.Labels(), tc, nil)
	if err != nil {
		return Result{}, fmt.Errorf("experiment: run %d: %w", index, err)
	}

	path := filepath.Join(r.opts.OutDir, fmt.Sprintf("run_%d.yaml", index))
	if err := model.Save(path); err != nil {
		return Result{}, fmt.Errorf("experiment: run %d: %w", index, err)
	}

	res := Result{
		RunID:       uuid.New().String(),
		Index:       index,
		Params:      p,
		Samples:     ds.Len(),
		ValSamples:  report.ValSize,
		TrainAcc:    report.TrainAcc,
		ValAcc:      report.ValAcc,
		WeightsPath: path,
	}

	if r.opts.Recorder != nil {
		_, err := r.opts.Recorder.SaveRun(storage.Run{
			RunID:        res.RunID,
			Experiment:   r.id,
			Index:        index,
			Episodes:     p.Episodes,
			Gap:          p.Gap,
			Epsilon:      p.Epsilon,
			LearningRate: p.LearningRate,
			Epochs:       p.Epochs,
			Degree:       p.Degree,
			Samples:      res.Samples,
			TrainAcc:     res.TrainAcc,
			ValAcc:       res.ValAcc,
			WeightsPath:  path,
		})
		if err != nil {
			logger.Warn("could not record run", "error", err)
		}
	}

	logger.Info("run finished",
		"samples", res.Samples,
		"val_acc", fmt.Sprintf("%.4f", res.ValAcc),
		"weights", path,
	)
	return res, nil
}

func summaryRow(res Result) []string {
	p := res.Params
	return []string{
		strconv.Itoa(res.Index),
		res.RunID,
		strconv.Itoa(p.Episodes),
		strconv.FormatFloat(p.Gap, 'g', -1, 64),
		strconv.FormatFloat(p.Epsilon, 'g', -1, 64),
		strconv.FormatFloat(p.LearningRate, 'g', -1, 64),
		strconv.Itoa(p.Epochs),
		strconv.Itoa(p.Degree),
		strconv.Itoa(res.Samples),
		strconv.FormatFloat(res.TrainAcc, 'f', 4, 64),
		strconv.FormatFloat(res.ValAcc, 'f', 4, 64),
		res.WeightsPath,
	}
}

// writeRow writes and flushes so the summary survives an interrupted sweep.
func writeRow(w *csv.Writer, row []string) error {
	if err := w.Write(row); err != nil {
		return fmt.Errorf("experiment: write summary: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("experiment: write summary: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("experiment: read %s: %w", src, err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("experiment: write %s: %w", dst, err)
	}
	return nil
}
