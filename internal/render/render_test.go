package render

import (
	"strings"
	"testing"

	"github.com/vovakirdan/flappy-lab/internal/core"
	"github.com/vovakirdan/flappy-lab/internal/env"
)

// 40x22 screen: 10 world units per column, 30 per playfield row.
func newTestScreen() *core.Screen {
	return core.NewScreen(40, 22)
}

func TestDrawPlayer(t *testing.T) {
	r := New(env.DefaultConfig())
	scr := newTestScreen()

	r.Draw(scr, env.Snapshot{Y: 300}, HUD{})

	if got := scr.Get(8, 11); got != PlayerBody {
		t.Errorf("Expected player body at (8,11), got %q", got)
	}
	if got := scr.Get(9, 11); got != PlayerChar {
		t.Errorf("Expected player head at (9,11), got %q", got)
	}
	if c := scr.GetCell(9, 11).Color; c != core.ColorYellow {
		t.Errorf("Gliding player should be yellow, got %v", c)
	}

	r.Draw(scr, env.Snapshot{Y: 300}, HUD{Action: env.Flap})
	if c := scr.GetCell(9, 11).Color; c != core.ColorOrange {
		t.Errorf("Flapping player should be orange, got %v", c)
	}
}

func TestDrawPipe(t *testing.T) {
	r := New(env.DefaultConfig())
	scr := newTestScreen()

	snap := env.Snapshot{Y: 300, Obstacles: []env.Obstacle{{X: 200, GapY: 300}}}
	r.Draw(scr, snap, HUD{})

	tests := []struct {
		name string
		x, y int
		want rune
	}{
		{"top section", 20, 5, PipeChar},
		{"top cap", 22, 7, PipeCapTop},
		{"gap", 24, 10, ' '},
		{"bottom cap", 20, 13, PipeCapBottom},
		{"bottom section", 24, 20, PipeChar},
		{"right of pipe", 25, 5, ' '},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := scr.Get(tc.x, tc.y); got != tc.want {
				t.Errorf("Get(%d,%d) = %q, expected %q", tc.x, tc.y, got, tc.want)
			}
		})
	}

	if c := scr.GetCell(20, 5).Color; c != core.ColorGreen {
		t.Errorf("Pipes should be green, got %v", c)
	}
}

func TestDrawClipsOffscreenObstacles(t *testing.T) {
	r := New(env.DefaultConfig())
	scr := newTestScreen()

	snap := env.Snapshot{Y: 300, Obstacles: []env.Obstacle{{X: 480, GapY: 100}, {X: -40, GapY: 500}}}
	r.Draw(scr, snap, HUD{})

	// Partially visible obstacle on the left edge
	if got := scr.Get(0, 2); got != PipeChar {
		t.Errorf("Expected clipped pipe at left edge, got %q", got)
	}
}

func TestDrawHUD(t *testing.T) {
	r := New(env.DefaultConfig())
	scr := newTestScreen()

	r.Draw(scr, env.Snapshot{Y: 300, Score: 3, Steps: 120}, HUD{Title: "safe", Episode: 2})

	hud := scr.Row(0)
	for _, want := range []string{"safe", "Score: 3", "Steps: 120", "Ep: 2"} {
		if !strings.Contains(hud, want) {
			t.Errorf("HUD %q missing %q", hud, want)
		}
	}

	if got := scr.Get(39, 21); got != GroundChar {
		t.Errorf("Expected ground on last row, got %q", got)
	}
}

func TestDrawFeatures(t *testing.T) {
	r := New(env.DefaultConfig())
	scr := newTestScreen()

	r.Draw(scr, env.Snapshot{Y: 300}, HUD{ShowFeatures: true, Obs: env.Observation{0.5, 0, 1, -0.25}})

	if row := scr.Row(21); !strings.Contains(row, "dgap=-0.25") {
		t.Errorf("Feature line missing from ground row: %q", row)
	}
}

func TestDrawGameOver(t *testing.T) {
	r := New(env.DefaultConfig())
	scr := newTestScreen()

	snap := env.Snapshot{Y: 300, Score: 1, Done: true, Reason: env.HitObstacle}
	r.Draw(scr, snap, HUD{})

	if !strings.Contains(scr.String(), "GAME OVER") {
		t.Error("Expected game-over message")
	}
	if !strings.Contains(scr.String(), "obstacle") {
		t.Error("Expected termination reason in message")
	}
}

func TestDrawPaused(t *testing.T) {
	r := New(env.DefaultConfig())
	scr := newTestScreen()

	r.Draw(scr, env.Snapshot{Y: 300}, HUD{Paused: true})

	if !strings.Contains(scr.String(), "PAUSED") {
		t.Error("Expected pause message")
	}
}

func TestDrawPlayerStaysInPlayfield(t *testing.T) {
	r := New(env.DefaultConfig())
	scr := newTestScreen()

	r.Draw(scr, env.Snapshot{Y: -50, Done: true, Reason: env.OutOfBounds}, HUD{})
	if got := scr.Get(9, 1); got != PlayerChar {
		t.Errorf("Agent above the field should be drawn on the first playfield row, got %q", got)
	}
	if c := scr.GetCell(9, 1).Color; c != core.ColorRed {
		t.Errorf("Crashed player should be red, got %v", c)
	}
}
