package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/flappy-lab/internal/core"
	"github.com/vovakirdan/flappy-lab/internal/platform/tui"
	"github.com/vovakirdan/flappy-lab/internal/policy"
	"github.com/vovakirdan/flappy-lab/internal/registry"
)

var (
	flagPlayFPS      int
	flagPlayWeights  string
	flagPlayFeatures bool
)

var playCmd = &cobra.Command{
	Use:   "play [lane...]",
	Short: "Watch or play lanes in the terminal",
	Long: `Run one lane per argument side by side. A lane is a policy id or
"human" for keyboard control. All lanes face the same obstacle course.

Controls:
  Space/Up   - Flap (human lanes)
  P/Esc      - Pause
  R          - Restart finished lanes
  F          - Toggle the observation line
  Q/Ctrl+C   - Quit

Examples:
  flappylab play
  flappylab play human safe
  flappylab play safe aggressive model --weights weights.yaml
  flappylab play human --preset easy`,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().IntVar(&flagPlayFPS, "fps", 30, "Simulation steps per second")
	playCmd.Flags().StringVarP(&flagPlayWeights, "weights", "w", "", "Weights file for the model policy")
	playCmd.Flags().BoolVar(&flagPlayFeatures, "features", false, "Show the observation vector")
}

// lanePolicies maps lane ids to policies; "human" becomes a nil keyboard lane.
func lanePolicies(ids []string, weightsPath string) ([]registry.Policy, error) {
	lanes := make([]registry.Policy, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == tui.HumanID {
			lanes = append(lanes, nil)
			continue
		}
		p, err := policy.Resolve(id, weightsPath)
		if err != nil {
			return nil, err
		}
		lanes = append(lanes, p)
	}
	return lanes, nil
}

func runPlay(cmd *cobra.Command, args []string) error {
	ids := args
	if len(ids) == 0 {
		ids = []string{tui.HumanID}
	}

	lanes, err := lanePolicies(ids, flagPlayWeights)
	if err != nil {
		return err
	}

	envCfg, err := loadEnvConfig(cmd)
	if err != nil {
		return err
	}

	width, height := 80, 24 // Defaults
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		width, height = w, h
	}

	cfg := core.RuntimeConfig{
		ScreenW:  width,
		ScreenH:  height,
		TickRate: flagPlayFPS,
		Seed:     envCfg.Seed,
	}

	opts := tui.Options{
		Logger:       logger,
		ShowFeatures: flagPlayFeatures,
	}
	if store := openStore(); store != nil {
		defer store.Close()
		opts.Recorder = store
	}

	return tui.Run(envCfg, lanes, cfg, opts)
}
