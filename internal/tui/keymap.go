package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the task list view.
type KeyMap struct {
	// Navigation
	Up   key.Binding
	Down key.Binding

	// Actions
	Detail       key.Binding
	Import       key.Binding
	Open         key.Binding
	Refresh      key.Binding
	ToggleKind   key.Binding
	Search       key.Binding
	ApplySearch  key.Binding
	CancelSearch key.Binding
	Back         key.Binding
	Quit         key.Binding
	ForceQuit    key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "previous task"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next task"),
		),
		Detail: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "task details"),
		),
		Import: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "import task"),
		),
		Open: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open in browser"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		ToggleKind: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "issues/pull requests"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		ApplySearch: key.NewBinding(
			key.WithKeys("enter"),
		),
		CancelSearch: key.NewBinding(
			key.WithKeys("esc"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
		),
	}
}
