package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	NextPlugin key.Binding
	PrevPlugin key.Binding
	NextHunk   key.Binding
	PrevHunk   key.Binding
	Toggle     key.Binding
	Help       key.Binding
	Quit       key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	NextPlugin: key.NewBinding(
		key.WithKeys("n", "tab"),
		key.WithHelp("n/tab", "next plugin"),
	),
	PrevPlugin: key.NewBinding(
		key.WithKeys("N", "shift+tab"),
		key.WithHelp("N/S-tab", "prev plugin"),
	),
	NextHunk: key.NewBinding(
		key.WithKeys("]"),
		key.WithHelp("]", "next hunk"),
	),
	PrevHunk: key.NewBinding(
		key.WithKeys("["),
		key.WithHelp("[", "prev hunk"),
	),
	Toggle: key.NewBinding(
		key.WithKeys("v"),
		key.WithHelp("v", "unified/split"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// helpItems lists the bindings shown on the help screen.
func (k keyMap) helpItems() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.NextPlugin, k.PrevPlugin, k.NextHunk, k.PrevHunk, k.Toggle, k.Help, k.Quit}
}
