package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the lanes viewer.
type KeyMap struct {
	Flap     key.Binding
	Pause    key.Binding
	Restart  key.Binding
	Features key.Binding
	Quit     key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Flap, k.Pause, k.Restart, k.Features, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Flap, k.Pause, k.Restart},
		{k.Features, k.Quit},
	}
}

// DefaultKeyMap returns the default viewer bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Flap: key.NewBinding(
			key.WithKeys(" ", "up", "w"),
			key.WithHelp("space/up", "flap"),
		),
		Pause: key.NewBinding(
			key.WithKeys("p", "esc"),
			key.WithHelp("p", "pause"),
		),
		Restart: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "restart"),
		),
		Features: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "features"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// spectatorKeys strips the bindings that steer a lane.
func spectatorKeys() KeyMap {
	k := DefaultKeyMap()
	k.Flap.SetEnabled(false)
	return k
}
