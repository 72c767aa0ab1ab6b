// flappylab is an imitation-learning sandbox for a deterministic Flappy Bird
// style environment: collect demonstrations from heuristic oracles, train a
// logistic-regression policy, evaluate and watch it play.
//
// Usage:
//
//	flappylab policies                 - List available policies
//	flappylab collect                  - Record oracle demonstrations to CSV
//	flappylab train                    - Fit a linear policy on a dataset
//	flappylab weights [path...]        - Inspect saved weight artifacts
//	flappylab evaluate <policy>        - Evaluate one policy
//	flappylab compare [policy...]      - Evaluate several policies on the same seeds
//	flappylab experiments              - Sweep a hyperparameter grid
//	flappylab runs                     - Show recorded runs and policy stats
//	flappylab play [policy...]         - Watch or play lanes in the terminal
//	flappylab serve [policy...]        - Stream lanes to SSH spectators
//
// Global flags:
//
//	--seed <value>      - Environment seed (default: from config)
//	--config <path>     - Environment config YAML
//	--preset <name>     - Gap preset: easy, normal, hard, fixed
//	--db <path>         - Database path (default: ~/.flappylab/lab.db, or $FLAPPYLAB_DB)
//	--log-level <lvl>   - debug, info, warn, error (default: info, or $FLAPPYLAB_LOG_LEVEL)
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	flagSeed     int64
	flagConfig   string
	flagPreset   string
	flagDBPath   string
	flagLogLevel string

	logger *log.Logger
)

func main() {
	// .env values never override variables already set in the environment
	_ = godotenv.Load()

	registerGlobalFlags()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "flappylab",
	Short: "Flappy Lab - imitation learning in your terminal",
	Long: `Flappy Lab collects demonstrations from heuristic oracles, trains a
logistic-regression policy on them and evaluates the result in a
deterministic Flappy Bird style environment.

Available commands:
  policies     - List available policies
  collect      - Record oracle demonstrations
  train        - Train a linear policy
  weights      - Inspect saved weight artifacts
  evaluate     - Evaluate one policy
  compare      - Compare policies on the same seeds
  experiments  - Sweep a hyperparameter grid
  runs         - Show recorded runs
  play         - Watch or play in the terminal
  serve        - Start SSH spectator server

Examples:
  flappylab collect --episodes 100 --epsilon 0.05
  flappylab train --data dataset.csv --degree 2
  flappylab compare safe aggressive model --weights weights.yaml
  flappylab play human safe`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := log.ParseLevel(flagLogLevel)
		if err != nil {
			return fmt.Errorf("invalid --log-level %q: %w", flagLogLevel, err)
		}
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "flappylab",
			Level:           level,
		})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(policiesCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(weightsCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(experimentsCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
}

// registerGlobalFlags runs after .env is loaded so environment defaults apply.
func registerGlobalFlags() {
	pf := rootCmd.PersistentFlags()
	pf.Int64Var(&flagSeed, "seed", 0, "Environment seed (overrides the config seed when set)")
	pf.StringVar(&flagConfig, "config", "", "Path to environment config YAML")
	pf.StringVar(&flagPreset, "preset", "", "Gap preset: easy, normal, hard, fixed")
	pf.StringVar(&flagDBPath, "db", envOr("FLAPPYLAB_DB", "~/.flappylab/lab.db"), "Path to database")
	pf.StringVar(&flagLogLevel, "log-level", envOr("FLAPPYLAB_LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
