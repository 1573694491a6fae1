package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Play    key.Binding
	First   key.Binding
	Stop    key.Binding
	Next    key.Binding
	Prev    key.Binding
	Genre   key.Binding
	All     key.Binding
	Shuffle key.Binding
	Repeat  key.Binding
	Back    key.Binding
	Forward key.Binding
	Cancel  key.Binding
	Copy    key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Play:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play / commit seek")),
		First:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "play first")),
		Stop:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
		Next:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		Prev:    key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "previous")),
		Genre:   key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "next genre")),
		All:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "all songs")),
		Shuffle: key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "shuffle")),
		Repeat:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "repeat")),
		Back:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "seek -5s")),
		Forward: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "seek +5s")),
		Cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel seek")),
		Copy:    key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy url")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Play, k.Stop, k.Next, k.Back, k.Forward, k.Genre, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Play, k.First},
		{k.Stop, k.Next, k.Prev},
		{k.Back, k.Forward, k.Cancel},
		{k.Genre, k.All, k.Shuffle, k.Repeat},
		{k.Copy, k.Help, k.Quit},
	}
}
