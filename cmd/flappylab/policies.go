package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/flappy-lab/internal/policy"
	"github.com/vovakirdan/flappy-lab/internal/registry"
)

var policiesCmd = &cobra.Command{
	Use:   "policies",
	Short: "List all available policies",
	Long:  `Shows the registered heuristic policies and the weights-backed model policy.`,
	Run:   runPolicies,
}

func runPolicies(cmd *cobra.Command, args []string) {
	infos := registry.List()
	infos = append(infos, registry.PolicyInfo{ID: policy.ModelID, Title: "Linear policy (needs --weights)"})

	maxIDLen := 2 // "ID" header
	for _, p := range infos {
		if len(p.ID) > maxIDLen {
			maxIDLen = len(p.ID)
		}
	}

	fmt.Println("Available policies:")
	fmt.Println()
	fmt.Printf("  %-*s  %s\n", maxIDLen, "ID", "Title")
	fmt.Printf("  %-*s  %s\n", maxIDLen, "--", "-----")
	for _, p := range infos {
		fmt.Printf("  %-*s  %s\n", maxIDLen, p.ID, p.Title)
	}

	fmt.Println()
	fmt.Println("Run 'flappylab evaluate <id>' to evaluate a policy.")
}
