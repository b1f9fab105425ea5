package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the countdown key bindings
type keyMap struct {
	Pause key.Binding
	Help  key.Binding
	Quit  key.Binding
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Pause}, {k.Help, k.Quit}}
}

var keys = keyMap{
	Pause: key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space", "pause")),
	Help:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:  key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "stop")),
}
