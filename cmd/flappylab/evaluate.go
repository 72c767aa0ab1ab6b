package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/flappy-lab/internal/env"
	"github.com/vovakirdan/flappy-lab/internal/eval"
	"github.com/vovakirdan/flappy-lab/internal/policy"
)

var (
	flagEvalEpisodes int
	flagEvalMaxSteps int
	flagEvalWeights  string
	flagEvalNoRecord bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <policy>",
	Short: "Evaluate a policy",
	Long: `Play a policy for a number of episodes and report score statistics.
Episodes are recorded in the database unless --no-record is given.

Examples:
  flappylab evaluate safe
  flappylab evaluate model --weights weights.yaml --episodes 50
  flappylab evaluate aggressive --preset hard --max-steps 2000`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

var compareCmd = &cobra.Command{
	Use:   "compare [policy...]",
	Short: "Compare policies on the same seeds",
	Long: `Evaluate several policies concurrently. Every policy sees the same
obstacle stream. Without arguments all heuristics are compared, plus the
model when --weights is given.

Examples:
  flappylab compare
  flappylab compare safe model --weights weights.yaml`,
	RunE: runCompare,
}

func init() {
	for _, cmd := range []*cobra.Command{evaluateCmd, compareCmd} {
		def := eval.DefaultConfig()
		cmd.Flags().IntVarP(&flagEvalEpisodes, "episodes", "n", def.Episodes, "Number of episodes per policy")
		cmd.Flags().IntVar(&flagEvalMaxSteps, "max-steps", 0, "Override the step cap (0 = config value)")
		cmd.Flags().StringVarP(&flagEvalWeights, "weights", "w", "", "Weights file for the model policy")
		cmd.Flags().BoolVar(&flagEvalNoRecord, "no-record", false, "Do not store episodes")
	}
}

// evalSetup builds the environment and evaluation configs shared by both commands.
func evalSetup(cmd *cobra.Command) (env.Config, eval.Config, func(), error) {
	envCfg, err := loadEnvConfig(cmd)
	if err != nil {
		return envCfg, eval.Config{}, nil, err
	}

	cfg := eval.Config{
		Episodes: flagEvalEpisodes,
		MaxSteps: flagEvalMaxSteps,
		Seed:     envCfg.Seed,
		Logger:   logger,
	}

	cleanup := func() {}
	if !flagEvalNoRecord {
		if store := openStore(); store != nil {
			cfg.Recorder = store
			cleanup = func() { store.Close() }
		}
	}
	return envCfg, cfg, cleanup, nil
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	p, err := policy.Resolve(args[0], flagEvalWeights)
	if err != nil {
		return err
	}

	envCfg, cfg, cleanup, err := evalSetup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signalContext()
	defer cancel()

	s, err := eval.Evaluate(ctx, envCfg, p, cfg)
	if err != nil {
		return err
	}

	fmt.Printf("%s - %d episodes (seed %d)\n", s.Title, len(s.Episodes), cfg.Seed)
	if lin, ok := p.(*policy.Linear); ok {
		m := lin.Model()
		fmt.Printf("model: degree %d, %d features\n", m.Degree, len(m.Weights))
	}
	fmt.Println()
	fmt.Printf("  %-4s  %-6s  %-7s  %-9s  %s\n", "Ep", "Score", "Steps", "Return", "End")
	fmt.Printf("  %-4s  %-6s  %-7s  %-9s  %s\n", "--", "-----", "-----", "------", "---")
	for _, r := range s.Episodes {
		fmt.Printf("  %-4d  %-6d  %-7d  %-9.2f  %s\n", r.Episode, r.Score, r.Steps, r.Return, r.Reason)
	}
	fmt.Println()
	printSummaries([]eval.Summary{s})
	return nil
}

func runCompare(cmd *cobra.Command, args []string) error {
	ids := args
	if len(ids) == 0 {
		for _, id := range policy.IDs() {
			if id == policy.ModelID && flagEvalWeights == "" {
				continue
			}
			ids = append(ids, id)
		}
	}

	policies, err := resolvePolicies(ids, flagEvalWeights)
	if err != nil {
		return err
	}

	envCfg, cfg, cleanup, err := evalSetup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signalContext()
	defer cancel()

	summaries, err := eval.Compare(ctx, envCfg, policies, cfg)
	if err != nil {
		return err
	}

	fmt.Printf("Comparison - %d episodes each (seed %d)\n\n", cfg.Episodes, cfg.Seed)
	printSummaries(summaries)
	return nil
}

// printSummaries prints one aligned row per policy.
func printSummaries(summaries []eval.Summary) {
	maxIDLen := len("Policy")
	for _, s := range summaries {
		maxIDLen = max(maxIDLen, len(s.Policy))
	}

	fmt.Printf("  %-*s  %-6s  %-5s  %-8s  %-8s  %-8s  %s\n", maxIDLen, "Policy", "Mean", "Best", "Success", "Steps", "Return", "Endings")
	fmt.Printf("  %-*s  %-6s  %-5s  %-8s  %-8s  %-8s  %s\n", maxIDLen, "------", "----", "----", "-------", "-----", "------", "-------")
	for _, s := range summaries {
		fmt.Printf("  %-*s  %-6.2f  %-5d  %-8s  %-8.1f  %-8.2f  %s\n",
			maxIDLen, s.Policy, s.MeanScore, s.BestScore,
			fmt.Sprintf("%.0f%%", s.SuccessRate*100), s.MeanSteps, s.MeanReturn, formatReasons(s.Reasons))
	}
}

func formatReasons(reasons map[env.Termination]int) string {
	keys := make([]env.Termination, 0, len(reasons))
	for r := range reasons {
		keys = append(keys, r)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	parts := make([]string, len(keys))
	for i, r := range keys {
		parts[i] = fmt.Sprintf("%s=%d", r, reasons[r])
	}
	return strings.Join(parts, " ")
}
