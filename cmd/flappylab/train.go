package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/flappy-lab/internal/dataset"
	"github.com/vovakirdan/flappy-lab/internal/logreg"
)

var (
	flagTrainData     string
	flagTrainOut      string
	flagTrainLR       float64
	flagTrainEpochs   int
	flagTrainValSplit float64
	flagTrainDegree   int
	flagTrainLogEvery int
	flagTrainSeed     int64
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train a linear policy on a dataset",
	Long: `Fit a logistic-regression policy with full-batch gradient descent.
Features are optionally expanded to degree-2 polynomial terms and
standardized; the statistics are stored with the weights.

Examples:
  flappylab train --data dataset.csv
  flappylab train --data dataset.csv --degree 2 --epochs 100 --out poly.yaml`,
	RunE: runTrain,
}

func init() {
	def := logreg.DefaultTrainConfig()
	trainCmd.Flags().StringVarP(&flagTrainData, "data", "d", "dataset.csv", "Dataset CSV path")
	trainCmd.Flags().StringVarP(&flagTrainOut, "out", "o", "weights.yaml", "Output weights path")
	trainCmd.Flags().Float64Var(&flagTrainLR, "lr", def.LearningRate, "Learning rate")
	trainCmd.Flags().IntVar(&flagTrainEpochs, "epochs", def.Epochs, "Number of epochs")
	trainCmd.Flags().Float64Var(&flagTrainValSplit, "val-split", def.ValSplit, "Validation fraction in [0, 1)")
	trainCmd.Flags().IntVar(&flagTrainDegree, "degree", def.Degree, "Polynomial degree: 1 or 2")
	trainCmd.Flags().IntVar(&flagTrainLogEvery, "log-every", def.LogEvery, "Log every n epochs")
	trainCmd.Flags().Int64Var(&flagTrainSeed, "shuffle-seed", def.Seed, "Seed of the train/validation shuffle")
}

func runTrain(_ *cobra.Command, _ []string) error {
	ds, err := dataset.LoadCSV(flagTrainData)
	if err != nil {
		return err
	}

	cfg := logreg.TrainConfig{
		LearningRate: flagTrainLR,
		Epochs:       flagTrainEpochs,
		ValSplit:     flagTrainValSplit,
		Degree:       flagTrainDegree,
		Seed:         flagTrainSeed,
		LogEvery:     flagTrainLogEvery,
	}

	model, report, err := logreg.Train(ds.Features(), ds.Labels(), cfg, logger)
	if err != nil {
		return err
	}

	if err := model.Save(flagTrainOut); err != nil {
		return err
	}

	fmt.Printf("Trained on %d samples (%d validation)\n", report.TrainSize, report.ValSize)
	fmt.Printf("  loss       %.4f\n", report.Loss)
	fmt.Printf("  train acc  %.3f\n", report.TrainAcc)
	fmt.Printf("  val acc    %.3f\n", report.ValAcc)
	fmt.Printf("Saved weights to %s\n", flagTrainOut)
	return nil
}
