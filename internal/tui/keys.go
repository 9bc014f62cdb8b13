package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Start      key.Binding
	Difficulty key.Binding
	Mode       key.Binding
	More       key.Binding
	Less       key.Binding
	Stop       key.Binding
	Again      key.Binding
	Quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Start:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "start")),
		Difficulty: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "difficulty")),
		Mode:       key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mode")),
		More:       key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "more time")),
		Less:       key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "less time")),
		Stop:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "stop")),
		Again:      key.NewBinding(key.WithKeys("r", "enter"), key.WithHelp("r", "play again")),
		Quit:       key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) setupHelp() []key.Binding {
	return []key.Binding{k.Start, k.Difficulty, k.Mode, k.More, k.Less, k.Quit}
}

func (k keyMap) typingHelp() []key.Binding {
	return []key.Binding{k.Stop, k.Quit}
}

func (k keyMap) resultsHelp() []key.Binding {
	return []key.Binding{k.Again, k.Quit}
}
