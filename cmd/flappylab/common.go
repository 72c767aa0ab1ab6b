package main

import (
	"context"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/flappy-lab/internal/config"
	"github.com/vovakirdan/flappy-lab/internal/env"
	"github.com/vovakirdan/flappy-lab/internal/policy"
	"github.com/vovakirdan/flappy-lab/internal/registry"
	"github.com/vovakirdan/flappy-lab/internal/storage"
)

// loadEnvConfig resolves the environment config from --config, --preset and --seed.
func loadEnvConfig(cmd *cobra.Command) (env.Config, error) {
	cfg, err := config.LoadEnv(flagConfig)
	if err != nil {
		return cfg, err
	}

	preset, err := config.ParsePreset(flagPreset)
	if err != nil {
		return cfg, err
	}
	config.ApplyPreset(&cfg, preset)

	if cmd.Flags().Changed("seed") {
		cfg.Seed = flagSeed
	}
	return cfg, nil
}

// openStore opens the database or returns nil with a warning.
// Commands keep working without persistence.
func openStore() *storage.Store {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		logger.Warn("could not open database", "path", flagDBPath, "error", err)
		return nil
	}
	return store
}

// resolvePolicies builds policies by id; "model" loads weightsPath.
func resolvePolicies(ids []string, weightsPath string) ([]registry.Policy, error) {
	policies := make([]registry.Policy, 0, len(ids))
	for _, id := range ids {
		p, err := policy.Resolve(strings.TrimSpace(id), weightsPath)
		if err != nil {
			return nil, err
		}
		policies = append(policies, p)
	}
	return policies, nil
}

// signalContext is cancelled on Ctrl+C.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}
