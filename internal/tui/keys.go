package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	Top        key.Binding
	Bottom     key.Binding
	Play       key.Binding
	Pause      key.Binding
	Next       key.Binding
	Prev       key.Binding
	Forward    key.Binding
	Back       key.Binding
	VolumeUp   key.Binding
	VolumeDown key.Binding
	Rescan     key.Binding
	Visualizer key.Binding
	Quit       key.Binding
}

var keys = keyMap{
	Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Top:        key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "top")),
	Bottom:     key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "bottom")),
	Play:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play")),
	Pause:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pause")),
	Next:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
	Prev:       key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "prev")),
	Forward:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "seek +5s")),
	Back:       key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "seek -5s")),
	VolumeUp:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "louder")),
	VolumeDown: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "quieter")),
	Rescan:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rescan")),
	Visualizer: key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "spectrum")),
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) help() []key.Binding {
	return []key.Binding{k.Play, k.Pause, k.Next, k.Prev, k.Forward, k.VolumeUp, k.Rescan, k.Visualizer, k.Quit}
}
