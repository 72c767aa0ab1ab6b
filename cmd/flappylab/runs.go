package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/flappy-lab/internal/platform/tui"
	"github.com/vovakirdan/flappy-lab/internal/storage"
)

var (
	flagRunsLimit  int
	flagRunsBoard  bool
	flagRunsClear  string
	flagRunsPolicy string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recorded experiment runs",
	Long: `List the most recent experiment runs and the best run by validation
accuracy. With --board an interactive table of runs and per-policy episode
statistics is shown instead. With --policy the best stored episodes of
one policy are listed.

Examples:
  flappylab runs
  flappylab runs --limit 50
  flappylab runs --board
  flappylab runs --policy safe
  flappylab runs --clear human`,
	RunE: runRuns,
}

func init() {
	runsCmd.Flags().IntVarP(&flagRunsLimit, "limit", "n", 20, "Number of runs to list")
	runsCmd.Flags().BoolVar(&flagRunsBoard, "board", false, "Open the interactive run board")
	runsCmd.Flags().StringVar(&flagRunsClear, "clear", "", "Delete stored episodes of a policy")
	runsCmd.Flags().StringVar(&flagRunsPolicy, "policy", "", "List the best episodes of a policy")
}

func runRuns(_ *cobra.Command, _ []string) error {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if flagRunsClear != "" {
		if err := store.ClearEpisodes(flagRunsClear); err != nil {
			return err
		}
		fmt.Printf("Cleared episodes of %s\n", flagRunsClear)
		return nil
	}

	if flagRunsPolicy != "" {
		return printTopEpisodes(store, flagRunsPolicy, flagRunsLimit)
	}

	if flagRunsBoard {
		width, height := 100, 30
		if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
			width, height = w, h
		}
		return tui.RunRunBoard(store, width, height)
	}

	runs, err := store.Runs(flagRunsLimit)
	if err != nil {
		return err
	}

	fmt.Println("Experiment runs")
	fmt.Println()
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		fmt.Println()
		fmt.Println("Run 'flappylab experiments' to sweep a grid.")
		return nil
	}

	fmt.Printf("  %-4s  %-8s  %-8s  %-5s  %-7s  %-6s  %-6s  %-3s  %-7s  %s\n",
		"Run", "ID", "Episodes", "Gap", "Epsilon", "LR", "Epochs", "Deg", "Val", "Date")
	fmt.Printf("  %-4s  %-8s  %-8s  %-5s  %-7s  %-6s  %-6s  %-3s  %-7s  %s\n",
		"---", "--", "--------", "---", "-------", "--", "------", "---", "---", "----")
	for _, r := range runs {
		fmt.Printf("  %-4d  %-8s  %-8d  %-5g  %-7g  %-6g  %-6d  %-3d  %-7.3f  %s\n",
			r.Index, shortRunID(r.RunID), r.Episodes, r.Gap, r.Epsilon, r.LearningRate, r.Epochs, r.Degree,
			r.ValAcc, r.CreatedAt.Format("2006-01-02 15:04"))
	}

	best, err := store.BestRun()
	if err != nil {
		return err
	}
	if best != nil {
		fmt.Println()
		fmt.Printf("Best: run %d (%s) val acc %.3f -> %s\n", best.Index, shortRunID(best.RunID), best.ValAcc, best.WeightsPath)
	}
	return nil
}

// printTopEpisodes lists the best stored episodes of one policy.
func printTopEpisodes(store *storage.Store, policyID string, limit int) error {
	episodes, err := store.TopEpisodes(policyID, limit)
	if err != nil {
		return err
	}

	fmt.Printf("Best episodes - %s\n", policyID)
	fmt.Println()

	if len(episodes) == 0 {
		fmt.Println("No episodes recorded yet.")
		fmt.Println()
		fmt.Printf("Run 'flappylab evaluate %s' to record some.\n", policyID)
		return nil
	}

	fmt.Printf("  %-4s  %-6s  %-7s  %-8s  %-13s  %s\n", "Rank", "Score", "Steps", "Source", "End", "Date")
	fmt.Printf("  %-4s  %-6s  %-7s  %-8s  %-13s  %s\n", "----", "-----", "-----", "------", "---", "----")
	for i, ep := range episodes {
		fmt.Printf("  %-4d  %-6d  %-7d  %-8s  %-13s  %s\n",
			i+1, ep.Score, ep.Steps, ep.Source, ep.Reason, ep.CreatedAt.Format("2006-01-02 15:04"))
	}

	stats, err := store.PolicyStats(policyID)
	if err != nil {
		return err
	}
	best, err := store.HighScore(policyID)
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Printf("Best: %d  Avg: %.2f over %d episodes  Success: %.0f%%\n",
		best, stats.AvgScore, stats.Episodes, stats.SuccessRate*100)
	return nil
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
