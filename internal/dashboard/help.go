package dashboard

import "github.com/charmbracelet/bubbles/help"

// HelpBindings returns the help.KeyMap for the current state. The dismiss
// binding only shows while a toast is visible.
func HelpBindings(hasToast bool) help.KeyMap {
	km := KeyMap()
	km.Dismiss.SetEnabled(hasToast)
	return km
}
