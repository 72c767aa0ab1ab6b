package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/flappy-lab/internal/experiment"
	"github.com/vovakirdan/flappy-lab/internal/logreg"
)

var weightsCmd = &cobra.Command{
	Use:   "weights [path...]",
	Short: "Inspect saved weight artifacts",
	Long: `Loads each artifact, validates its shapes and prints the degree, feature
names, weights, bias and standardization statistics.

Without arguments it checks weights.yaml, runs/best_weights.yaml and
runs/run_1.yaml, skipping the ones that do not exist.`,
	RunE: runWeights,
}

// defaultArtifacts are the files train and experiments write by default.
func defaultArtifacts() []string {
	return []string{
		"weights.yaml",
		filepath.Join("runs", experiment.BestFile),
		filepath.Join("runs", "run_1.yaml"),
	}
}

func runWeights(cmd *cobra.Command, args []string) error {
	paths, explicit := args, true
	if len(paths) == 0 {
		paths, explicit = defaultArtifacts(), false
	}
	return inspectArtifacts(cmd.OutOrStdout(), paths, explicit)
}

// inspectArtifacts describes every path and returns an error naming the ones
// that failed. Missing files only count as failures when explicit is set.
func inspectArtifacts(w io.Writer, paths []string, explicit bool) error {
	var failed []string
	for i, path := range paths {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s:\n", path)

		m, err := logreg.Load(path)
		switch {
		case err == nil:
			describeModel(w, m)
		case errors.Is(err, fs.ErrNotExist) && !explicit:
			fmt.Fprintln(w, "  not found")
		default:
			fmt.Fprintf(w, "  invalid: %v\n", err)
			failed = append(failed, path)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d artifacts invalid: %s", len(failed), len(paths), strings.Join(failed, ", "))
	}
	return nil
}

func describeModel(w io.Writer, m *logreg.Model) {
	names := m.Features
	if len(names) == 0 {
		names = logreg.FeatureNames(m.Degree)
	}

	fmt.Fprintf(w, "  degree:   %d\n", m.Degree)
	fmt.Fprintf(w, "  features: %d (w %dx1, mean/std 1x%d)\n", len(names), len(m.Weights), len(m.Mean))
	fmt.Fprintf(w, "  b:        %.6f\n", m.Bias)
	fmt.Fprintln(w)

	nameW := len("feature")
	for _, n := range names {
		nameW = max(nameW, len(n))
	}
	fmt.Fprintf(w, "  %-*s  %12s  %12s  %12s\n", nameW, "feature", "w", "mean", "std")
	for i, n := range names {
		fmt.Fprintf(w, "  %-*s  %12.6f  %12.6f  %12.6f\n", nameW, n, m.Weights[i], m.Mean[i], m.Std[i])
	}
}
