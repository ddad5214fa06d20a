package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard shortcuts.
type KeyMap struct {
	// Navigation
	Up        key.Binding
	Down      key.Binding
	OlderPage key.Binding
	NewerPage key.Binding
	Home      key.Binding
	End       key.Binding

	// Actions
	Toggle   key.Binding
	Select   key.Binding
	Currency key.Binding
	Back     key.Binding

	// Application
	Help key.Binding
	Quit key.Binding
}

// DefaultKeyMap returns the default key bindings.
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
		OlderPage: key.NewBinding(
			key.WithKeys("h", "left", "pgdown"),
			key.WithHelp("←/h", "older month"),
		),
		NewerPage: key.NewBinding(
			key.WithKeys("l", "right", "pgup"),
			key.WithHelp("→/l", "newer month"),
		),
		Home: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("Home/g", "latest month"),
		),
		End: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("End/G", "oldest month"),
		),

		Toggle: key.NewBinding(
			key.WithKeys(" ", "space"),
			key.WithHelp("Space", "expand/collapse"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "expand or recategorize"),
		),
		Currency: key.NewBinding(
			key.WithKeys("c", "tab"),
			key.WithHelp("c/Tab", "next currency"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "close"),
		),

		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.OlderPage, k.NewerPage, k.Select, k.Currency, k.Help, k.Quit}
}

// FullHelp returns all key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Home, k.End},
		{k.OlderPage, k.NewerPage, k.Currency},
		{k.Toggle, k.Select, k.Back},
		{k.Help, k.Quit},
	}
}
