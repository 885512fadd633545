package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the dashboard keybindings.
type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Fetch   key.Binding
	CopyErr key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "down"),
		),
		Fetch: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "force fetch host"),
		),
		CopyErr: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy error"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
