package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/flappy-lab/internal/config"
	"github.com/vovakirdan/flappy-lab/internal/dataset"
	"github.com/vovakirdan/flappy-lab/internal/experiment"
	"github.com/vovakirdan/flappy-lab/internal/policy"
)

var (
	flagExpGrid     string
	flagExpOut      string
	flagExpOracle   string
	flagExpNoise    string
	flagExpValSplit float64
)

var experimentsCmd = &cobra.Command{
	Use:   "experiments",
	Short: "Sweep a hyperparameter grid",
	Long: `Collect, train and score one model per grid point. Every run writes
run_<n>.yaml and a summary.csv row to the output directory; the run with
the best validation accuracy is copied to best_weights.yaml.

The grid is read from --grid, ~/.flappylab/configs/grid.yaml,
./configs/grid.yaml or the built-in default, in that order.

Examples:
  flappylab experiments --out runs
  flappylab experiments --grid small.yaml --oracle aggressive`,
	RunE: runExperiments,
}

func init() {
	experimentsCmd.Flags().StringVar(&flagExpGrid, "grid", "", "Path to grid YAML")
	experimentsCmd.Flags().StringVarP(&flagExpOut, "out", "o", "runs", "Output directory")
	experimentsCmd.Flags().StringVar(&flagExpOracle, "oracle", "safe", "Oracle policy id")
	experimentsCmd.Flags().StringVar(&flagExpNoise, "noise", string(dataset.NoiseRandom), "Corruption kind: random, flip")
	experimentsCmd.Flags().Float64Var(&flagExpValSplit, "val-split", 0.2, "Validation fraction in [0, 1)")
}

func runExperiments(cmd *cobra.Command, _ []string) error {
	base, err := loadEnvConfig(cmd)
	if err != nil {
		return err
	}

	grid, err := config.LoadGrid(flagExpGrid)
	if err != nil {
		return err
	}

	oracle, err := policy.Resolve(flagExpOracle, "")
	if err != nil {
		return err
	}

	opts := experiment.Options{
		OutDir:   flagExpOut,
		Seed:     base.Seed,
		ValSplit: flagExpValSplit,
		Oracle:   oracle,
		Noise:    dataset.Noise(flagExpNoise),
		Logger:   logger,
	}
	if store := openStore(); store != nil {
		defer store.Close()
		opts.Recorder = store
	}

	runner, err := experiment.NewRunner(base, grid, opts)
	if err != nil {
		return err
	}
	logger.Info("starting sweep", "experiment", runner.ID(), "runs", grid.Size(), "out", flagExpOut)

	ctx, cancel := signalContext()
	defer cancel()

	results, best, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Finished %d runs, summary in %s\n", len(results), filepath.Join(flagExpOut, experiment.SummaryFile))
	if best != nil {
		fmt.Printf("Best run %d: %s\n", best.Index, best.Params)
		fmt.Printf("  val acc %.3f, train acc %.3f\n", best.ValAcc, best.TrainAcc)
		fmt.Printf("  weights %s\n", filepath.Join(flagExpOut, experiment.BestFile))
	}
	return nil
}
