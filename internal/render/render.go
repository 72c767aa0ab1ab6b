// Package render draws environment snapshots into a core.Screen. It owns no
// simulation state: callers pass a Snapshot and HUD values each frame.
package render

import (
	"fmt"

	"github.com/vovakirdan/flappy-lab/internal/core"
	"github.com/vovakirdan/flappy-lab/internal/env"
)

// Visual characters for rendering
const (
	PlayerChar    = '▶'
	PlayerBody    = '●'
	PipeChar      = '█'
	PipeCapTop    = '▄'
	PipeCapBottom = '▀'
	GroundChar    = '═'
)

// HUD holds the overlay values drawn on top of a snapshot.
type HUD struct {
	Title   string
	Episode int
	Best    int
	Paused  bool
	// Action is the last action taken, shown as a flap marker.
	Action env.Action
	// ShowFeatures draws the observation vector on the ground line.
	ShowFeatures bool
	Obs          env.Observation
}

// Renderer maps world coordinates onto a character grid.
// Row 0 is the HUD and the last row is the ground; obstacles and the agent
// are scaled into the rows between.
type Renderer struct {
	cfg env.Config
}

// New creates a renderer for environments using cfg.
func New(cfg env.Config) *Renderer {
	return &Renderer{cfg: cfg}
}

// field returns the playfield geometry for dst.
func (r *Renderer) field(dst *core.Screen) (top, height int) {
	return 1, core.Max(1, dst.Height()-2)
}

// col converts a world x to a screen column.
func (r *Renderer) col(dst *core.Screen, x float64) int {
	return int(x * float64(dst.Width()) / r.cfg.Width)
}

// row converts a world y to a screen row.
func (r *Renderer) row(dst *core.Screen, y float64) int {
	top, h := r.field(dst)
	return top + int(y*float64(h)/r.cfg.Height)
}

// Draw renders snap and hud into dst. The screen is cleared first.
func (r *Renderer) Draw(dst *core.Screen, snap env.Snapshot, hud HUD) {
	dst.Clear()

	// Draw ground
	groundY := dst.Height() - 1
	dst.DrawHLine(0, groundY, dst.Width(), GroundChar, core.ColorGray)

	for _, o := range snap.Obstacles {
		r.drawPipe(dst, o)
	}

	r.drawPlayer(dst, snap, hud.Action)

	// Draw HUD
	title := hud.Title
	if title == "" {
		title = "flappy"
	}
	status := fmt.Sprintf(" %s  Score: %d  Steps: %d", title, snap.Score, snap.Steps)
	if hud.Episode > 0 {
		status += fmt.Sprintf("  Ep: %d", hud.Episode)
	}
	if hud.Best > 0 {
		status += fmt.Sprintf("  Best: %d", hud.Best)
	}
	dst.DrawTextColor(0, 0, status+" ", core.ColorCyan)

	if hud.ShowFeatures {
		o := hud.Obs
		feat := fmt.Sprintf(" y=%.2f vy=%+.2f dist=%.2f dgap=%+.2f ", o.YNorm(), o.VYNorm(), o.DistNorm(), o.DeltaGapNorm())
		dst.DrawTextColor(1, groundY, feat, core.ColorGray)
	}

	if hud.Paused {
		DrawMessage(dst, "PAUSED", "Press P to resume")
	}

	if snap.Done {
		DrawMessage(dst, "GAME OVER", fmt.Sprintf("Score: %d  %s", snap.Score, snap.Reason))
	}
}

// drawPipe renders the two columns of an obstacle around its gap.
func (r *Renderer) drawPipe(dst *core.Screen, o env.Obstacle) {
	top, h := r.field(dst)
	bottom := top + h

	x0 := r.col(dst, o.X)
	x1 := core.Max(x0+1, r.col(dst, o.Right(r.cfg.PipeWidth)))
	gapTop := r.row(dst, o.GapY-r.cfg.PipeGap/2)
	gapBottom := r.row(dst, o.GapY+r.cfg.PipeGap/2)

	for x := x0; x < x1; x++ {
		// Top section down to the gap, capped at its lower end
		for y := top; y < gapTop && y < bottom; y++ {
			ch := PipeChar
			if y == gapTop-1 {
				ch = PipeCapTop
			}
			dst.SetColor(x, y, ch, core.ColorGreen)
		}
		// Bottom section from the gap to the ground, capped at its upper end
		for y := core.Max(gapBottom, top); y < bottom; y++ {
			ch := PipeChar
			if y == gapBottom {
				ch = PipeCapBottom
			}
			dst.SetColor(x, y, ch, core.ColorGreen)
		}
	}
}

func (r *Renderer) drawPlayer(dst *core.Screen, snap env.Snapshot, last env.Action) {
	x0 := r.col(dst, r.cfg.PlayerX)
	x1 := core.Max(x0+1, r.col(dst, r.cfg.PlayerX+r.cfg.PlayerSize))
	top, h := r.field(dst)
	y := core.Clamp(r.row(dst, snap.Y), top, top+h-1)

	color := core.ColorYellow
	if last == env.Flap {
		color = core.ColorOrange
	}
	if snap.Done && snap.Reason.Penalized() {
		color = core.ColorRed
	}

	for x := x0; x < x1; x++ {
		ch := PlayerBody
		if x == x1-1 {
			ch = PlayerChar
		}
		dst.SetColor(x, y, ch, color)
	}
}

// DrawMessage draws a message box in the center of the screen.
func DrawMessage(dst *core.Screen, title, subtitle string) {
	w := dst.Width()
	h := dst.Height()

	boxW := core.Max(len([]rune(title)), len([]rune(subtitle))) + 4
	boxH := 5
	box := core.NewRect((w-boxW)/2, (h-boxH)/2, boxW, boxH)

	dst.DrawRect(box, ' ', core.ColorDefault)
	dst.DrawBox(box)

	dst.DrawTextColor(box.X+(boxW-len([]rune(title)))/2, box.Y+1, title, core.ColorBrightWhite)
	dst.DrawText(box.X+(boxW-len([]rune(subtitle)))/2, box.Y+3, subtitle)
}
