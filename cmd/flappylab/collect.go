package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/flappy-lab/internal/dataset"
	"github.com/vovakirdan/flappy-lab/internal/env"
	"github.com/vovakirdan/flappy-lab/internal/policy"
	"github.com/vovakirdan/flappy-lab/internal/storage"
)

var (
	flagCollectEpisodes  int
	flagCollectEpsilon   float64
	flagCollectNoise     string
	flagCollectOracle    string
	flagCollectWeights   string
	flagCollectOut       string
	flagCollectNoiseSeed int64
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Record oracle demonstrations to a CSV dataset",
	Long: `Run an oracle policy for a number of episodes and record every
(observation, action) pair. With --epsilon the oracle action is corrupted
with the given per-step probability; the executed action is the label.

Examples:
  flappylab collect --episodes 100
  flappylab collect --oracle aggressive --epsilon 0.1 --noise flip
  flappylab collect --preset hard --out hard.csv`,
	RunE: runCollect,
}

func init() {
	def := dataset.DefaultCollectConfig()
	collectCmd.Flags().IntVar(&flagCollectEpisodes, "episodes", def.Episodes, "Number of episodes")
	collectCmd.Flags().Float64Var(&flagCollectEpsilon, "epsilon", def.Epsilon, "Per-step label corruption probability")
	collectCmd.Flags().StringVar(&flagCollectNoise, "noise", string(def.Noise), "Corruption kind: random, flip")
	collectCmd.Flags().StringVar(&flagCollectOracle, "oracle", "safe", "Oracle policy id")
	collectCmd.Flags().StringVar(&flagCollectWeights, "weights", "", "Weights file when --oracle is model")
	collectCmd.Flags().StringVarP(&flagCollectOut, "out", "o", "dataset.csv", "Output CSV path")
	collectCmd.Flags().Int64Var(&flagCollectNoiseSeed, "noise-seed", def.Seed, "Seed of the corruption generator")
}

func runCollect(cmd *cobra.Command, _ []string) error {
	envCfg, err := loadEnvConfig(cmd)
	if err != nil {
		return err
	}

	oracle, err := policy.Resolve(flagCollectOracle, flagCollectWeights)
	if err != nil {
		return err
	}

	e, err := env.New(envCfg)
	if err != nil {
		return err
	}

	cfg := dataset.CollectConfig{
		Episodes: flagCollectEpisodes,
		Epsilon:  flagCollectEpsilon,
		Noise:    dataset.Noise(flagCollectNoise),
		Seed:     flagCollectNoiseSeed,
	}

	ctx, cancel := signalContext()
	defer cancel()

	ds, summaries, err := dataset.Collect(ctx, e, oracle, cfg, logger.With("oracle", oracle.ID()))
	if err != nil {
		return err
	}

	if err := dataset.SaveCSV(flagCollectOut, &ds); err != nil {
		return err
	}

	if store := openStore(); store != nil {
		defer store.Close()
		for _, s := range summaries {
			_, err := store.SaveEpisode(storage.Episode{
				Policy: oracle.ID(),
				Source: storage.SourceCollect,
				Seed:   envCfg.Seed,
				Score:  s.Score,
				Steps:  s.Steps,
				Return: s.Return,
				Reason: s.Reason.String(),
			})
			if err != nil {
				logger.Warn("could not save episode", "episode", s.Episode, "error", err)
				break
			}
		}
	}

	fmt.Printf("Wrote %d samples to %s (flap rate %.3f, mean score %.2f)\n",
		ds.Len(), flagCollectOut, ds.ActionRate(), dataset.MeanScore(summaries))
	return nil
}
