package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keybindings for the TUI.
type keyMap struct {
	// Navigation
	ScrollUp   key.Binding
	ScrollDown key.Binding
	PrevCell   key.Binding
	NextCell   key.Binding
	NextTab    key.Binding
	PrevTab    key.Binding
	NextGroup  key.Binding

	// Actions
	Collapse key.Binding
	CloseTab key.Binding
	MoveTab  key.Binding
	Reload   key.Binding

	// General
	Help key.Binding
	Quit key.Binding
}

// defaultKeyMap returns the default keybindings.
func defaultKeyMap() keyMap {
	return keyMap{
		ScrollUp: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
		PrevCell: key.NewBinding(
			key.WithKeys("K", "pgup"),
			key.WithHelp("K", "previous cell"),
		),
		NextCell: key.NewBinding(
			key.WithKeys("J", "pgdown"),
			key.WithHelp("J", "next cell"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next document"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "previous document"),
		),
		NextGroup: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "switch group"),
		),
		Collapse: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "collapse cell"),
		),
		CloseTab: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "close document"),
		),
		MoveTab: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "move to other group"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload document"),
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

// ShortHelp returns keybindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns keybindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ScrollUp, k.ScrollDown, k.PrevCell, k.NextCell},
		{k.NextTab, k.PrevTab, k.NextGroup, k.MoveTab},
		{k.Collapse, k.CloseTab, k.Reload},
		{k.Help, k.Quit},
	}
}
