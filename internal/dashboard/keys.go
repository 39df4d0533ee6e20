package dashboard

import "github.com/charmbracelet/bubbles/key"

// listKeys holds the dashboard key bindings.
type listKeys struct {
	Up      key.Binding
	Down    key.Binding
	Tab     key.Binding
	Raw     key.Binding
	Refresh key.Binding
	Dismiss key.Binding
	Quit    key.Binding
}

// ShortHelp returns the bindings for the help bar.
func (k listKeys) ShortHelp() []key.Binding {
	bindings := []key.Binding{k.Up, k.Down, k.Tab, k.Raw, k.Refresh}
	if k.Dismiss.Enabled() {
		bindings = append(bindings, k.Dismiss)
	}
	return append(bindings, k.Quit)
}

// FullHelp returns the bindings grouped for expanded help.
func (k listKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Tab},
		{k.Raw, k.Refresh, k.Dismiss, k.Quit},
	}
}

// KeyMap returns the dashboard key bindings.
func KeyMap() listKeys {
	return listKeys{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch pane"),
		),
		Raw: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "raw json"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "dismiss"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
