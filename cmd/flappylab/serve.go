package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/flappy-lab/internal/platform/tui"
)

var (
	flagSSHAddr      string
	flagHostKey      string
	flagIdleTimeout  int
	flagServeFPS     int
	flagServeWeights string
)

var serveCmd = &cobra.Command{
	Use:   "serve [policy...]",
	Short: "Start the SSH spectator server",
	Long: `Start an SSH server that streams policy lanes to every connection.
Each session runs its own copy of the lanes from the same seed.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.flappylab/host_key

Examples:
  flappylab serve                              # Watch the safe heuristic on :23234
  flappylab serve safe aggressive --ssh :2222
  flappylab serve model --weights runs/best_weights.yaml

Spectators connect with:
  ssh localhost -p 23234`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", ":23234", "SSH server address (host:port)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "Idle timeout in minutes before disconnecting")
	serveCmd.Flags().IntVar(&flagServeFPS, "fps", 30, "Simulation steps per second")
	serveCmd.Flags().StringVarP(&flagServeWeights, "weights", "w", "", "Weights file for the model policy")
}

func runServe(cmd *cobra.Command, args []string) error {
	ids := args
	if len(ids) == 0 {
		ids = []string{"safe"}
	}

	policies, err := resolvePolicies(ids, flagServeWeights)
	if err != nil {
		return err
	}

	envCfg, err := loadEnvConfig(cmd)
	if err != nil {
		return err
	}

	cfg := tui.SSHServerConfig{
		Address:     flagSSHAddr,
		HostKeyPath: flagHostKey,
		IdleTimeout: time.Duration(flagIdleTimeout) * time.Minute,
		Env:         envCfg,
		Policies:    policies,
		TickRate:    flagServeFPS,
		Seed:        envCfg.Seed,
	}

	server, err := tui.NewSSHServer(cfg, logger.WithPrefix("flappylab-ssh"))
	if err != nil {
		return err
	}

	fmt.Printf("Starting spectator server on %s\n", cfg.Address)
	fmt.Println("Press Ctrl+C to stop")

	ctx, cancel := signalContext()
	defer cancel()
	return server.ListenAndServe(ctx)
}
