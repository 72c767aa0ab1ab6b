package tui

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/flappy-lab/internal/core"
	"github.com/vovakirdan/flappy-lab/internal/env"
	"github.com/vovakirdan/flappy-lab/internal/eval"
	"github.com/vovakirdan/flappy-lab/internal/registry"
	"github.com/vovakirdan/flappy-lab/internal/render"
	"github.com/vovakirdan/flappy-lab/internal/storage"
)

// HumanID is the policy name stored for keyboard-controlled episodes.
const HumanID = "human"

// restartDelay is how many ticks a finished policy lane shows its
// game-over screen before starting the next episode.
const restartDelay = 45

// ErrNoLanes is returned when a viewer is created without policies.
var ErrNoLanes = errors.New("tui: at least one lane is required")

// Options configures a lanes viewer.
type Options struct {
	// Recorder receives every finished episode. May be nil.
	Recorder eval.EpisodeRecorder
	Logger   *log.Logger
	// ShowFeatures starts with the observation line visible.
	ShowFeatures bool
	// Spectator disables keyboard steering; every lane must have a policy.
	Spectator bool
}

// lane is one independent environment driven by a policy or the keyboard.
type lane struct {
	env    *env.Env
	policy registry.Policy // nil means keyboard control
	obs    env.Observation
	last   env.Action

	episode   int
	ret       float64
	best      int
	saved     bool
	doneTicks int
}

func (l *lane) id() string {
	if l.policy == nil {
		return HumanID
	}
	return l.policy.ID()
}

// Model is the Bubble Tea model that runs lanes side by side.
type Model struct {
	lanes    []*lane
	baseSeed int64
	renderer *render.Renderer
	screen   *core.Screen
	laneBuf  *core.Screen
	config   core.RuntimeConfig
	opts     Options
	keys     KeyMap
	help     help.Model

	paused   bool
	flap     bool
	quitting bool
}

// NewModel creates a viewer with one lane per entry of policies. A nil
// entry is a keyboard lane. Every lane starts from cfg.Seed so all lanes
// face the same obstacle course.
func NewModel(envCfg env.Config, policies []registry.Policy, cfg core.RuntimeConfig, opts Options) (Model, error) {
	if len(policies) == 0 {
		return Model{}, ErrNoLanes
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = core.DefaultConfig().TickRate
	}

	envCfg.Seed = cfg.Seed
	lanes := make([]*lane, len(policies))
	for i, p := range policies {
		if p == nil && opts.Spectator {
			return Model{}, fmt.Errorf("tui: lane %d has no policy in spectator mode", i)
		}
		e, err := env.New(envCfg)
		if err != nil {
			return Model{}, err
		}
		l := &lane{env: e, policy: p, episode: 1}
		l.obs, _ = e.Reset()
		lanes[i] = l
	}

	keys := DefaultKeyMap()
	if opts.Spectator {
		keys = spectatorKeys()
	}

	m := Model{
		lanes:    lanes,
		baseSeed: cfg.Seed,
		renderer: render.New(envCfg),
		screen:   core.NewScreen(cfg.ScreenW, core.Max(1, cfg.ScreenH-1)),
		laneBuf:  core.NewScreen(1, 1),
		config:   cfg,
		opts:     opts,
		keys:     keys,
		help:     help.New(),
	}
	m.help.Width = cfg.ScreenW
	m.fitLanes()
	return m, nil
}

// Init starts the tick loop.
func (m Model) Init() tea.Cmd {
	return tickCmd(m.config.TickRate)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.config.ScreenW = msg.Width
		m.config.ScreenH = msg.Height
		m.screen.Resize(msg.Width, core.Max(1, msg.Height-1))
		m.help.Width = msg.Width
		m.fitLanes()
		return m, nil

	case TickMsg:
		m.step()
		return m, tickCmd(m.config.TickRate)
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Pause):
		m.paused = !m.paused
	case key.Matches(msg, m.keys.Flap):
		m.flap = true
	case key.Matches(msg, m.keys.Restart):
		for _, l := range m.lanes {
			if l.env.Done() {
				m.restart(l)
			}
		}
	case key.Matches(msg, m.keys.Features):
		m.opts.ShowFeatures = !m.opts.ShowFeatures
	}
	return m, nil
}

// step advances every running lane by one tick.
func (m *Model) step() {
	if m.paused {
		return
	}
	flap := m.flap
	m.flap = false

	for _, l := range m.lanes {
		if l.env.Done() {
			// Keyboard lanes wait for an explicit restart
			if l.policy != nil {
				l.doneTicks++
				if l.doneTicks >= restartDelay {
					m.restart(l)
				}
			}
			continue
		}

		a := env.Glide
		switch {
		case l.policy != nil:
			a = l.policy.Act(l.obs)
		case flap:
			a = env.Flap
		}

		res, err := l.env.Step(a)
		if err != nil {
			m.opts.Logger.Error("lane step failed", "policy", l.id(), "error", err)
			continue
		}
		l.obs = res.Obs
		l.last = a
		l.ret += res.Reward

		if res.Done {
			m.finish(l, res.Info)
		}
	}
}

// finish records a finished episode once.
func (m *Model) finish(l *lane, info env.Info) {
	if l.saved {
		return
	}
	l.saved = true
	l.best = core.Max(l.best, info.Score)

	m.opts.Logger.Debug("episode finished",
		"policy", l.id(),
		"episode", l.episode,
		"score", info.Score,
		"reason", info.Reason,
	)

	if m.opts.Recorder == nil {
		return
	}
	_, err := m.opts.Recorder.SaveEpisode(storage.Episode{
		Policy: l.id(),
		Source: storage.SourcePlay,
		Seed:   m.episodeSeed(l.episode),
		Score:  info.Score,
		Steps:  info.Steps,
		Return: l.ret,
		Reason: info.Reason.String(),
	})
	if err != nil {
		m.opts.Logger.Warn("could not save episode", "policy", l.id(), "error", err)
	}
}

// restart begins the next episode of l. Episode k of every lane uses the
// same seed so lanes stay comparable after restarts.
func (m *Model) restart(l *lane) {
	l.episode++
	l.env.Seed(m.episodeSeed(l.episode))
	l.obs, _ = l.env.Reset()
	l.last = env.Glide
	l.ret = 0
	l.saved = false
	l.doneTicks = 0
}

func (m *Model) episodeSeed(episode int) int64 {
	return m.baseSeed + int64(episode-1)
}

// fitLanes sizes the per-lane buffer to the current screen.
func (m *Model) fitLanes() {
	n := len(m.lanes)
	w := (m.screen.Width() - (n - 1)) / n
	m.laneBuf.Resize(core.Max(1, w), m.screen.Height())
}

// View renders the lanes side by side with a help line underneath.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	m.screen.Clear()
	laneW := m.laneBuf.Width()
	for i, l := range m.lanes {
		title := HumanID
		if l.policy != nil {
			title = l.policy.Title()
		}
		m.renderer.Draw(m.laneBuf, l.env.Snapshot(), render.HUD{
			Title:        title,
			Episode:      l.episode,
			Best:         l.best,
			Paused:       m.paused,
			Action:       l.last,
			ShowFeatures: m.opts.ShowFeatures,
			Obs:          l.obs,
		})

		x := i * (laneW + 1)
		m.screen.Blit(m.laneBuf, x, 0)
		if i < len(m.lanes)-1 {
			m.screen.DrawVLine(x+laneW, 0, m.screen.Height(), '│', core.ColorGray)
		}
	}

	return RenderScreen(m.screen) + "\n" + m.help.View(m.keys)
}

// Run starts the viewer in the current terminal.
func Run(envCfg env.Config, policies []registry.Policy, cfg core.RuntimeConfig, opts Options) error {
	model, err := NewModel(envCfg, policies, cfg, opts)
	if err != nil {
		return err
	}

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	_, err = p.Run()
	return err
}
