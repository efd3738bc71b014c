package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the keybindings. It implements help.KeyMap.
type KeyMap struct {
	Quit      key.Binding
	Submit    key.Binding
	Back      key.Binding
	Up        key.Binding
	Down      key.Binding
	Open      key.Binding
	Context   key.Binding
	CycleMode key.Binding
	NewSearch key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "search"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Context: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "context block"),
		),
		CycleMode: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "search mode"),
		),
		NewSearch: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "new search"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.CycleMode, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.CycleMode, k.NewSearch},
		{k.Up, k.Down, k.Open, k.Context},
		{k.Back, k.Quit},
	}
}

// resultsHelp is shown while browsing results.
func (k KeyMap) resultsHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Open, k.Context, k.NewSearch, k.Quit}
}

// readerHelp is shown while reading a document.
func (k KeyMap) readerHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Back, k.Quit}
}
