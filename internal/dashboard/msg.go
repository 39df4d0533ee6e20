// Package dashboard implements a two-pane TUI for browsing the summary list
// served by the dashboard proxy. Separate from internal/tui which handles
// the one-shot summaries command.
package dashboard

import "github.com/smileynet/iotdash/internal/summary"

// Focus represents which pane has keyboard focus.
type Focus int

const (
	PaneLeft  Focus = iota // Left pane (summary list) has focus.
	PaneRight              // Right pane (detail viewport) has focus.
)

// DetailMode selects how the selected record is rendered in the right pane.
type DetailMode int

const (
	DetailFields DetailMode = iota // Known fields with count badges.
	DetailRaw                      // Indented JSON exactly as received.
)

// --- tea.Msg types ---

// SummariesUpdatedMsg carries the list published after a successful refresh.
type SummariesUpdatedMsg struct {
	Summaries []summary.Summary
}

// ToastMsg carries a user notification to show above the help bar.
type ToastMsg struct {
	Text string
}

// RefreshMsg asks the model to start a refresh.
// Emitted on 'r'; Model.Update handles it by calling the refresher.
type RefreshMsg struct{}

// toastExpiredMsg removes the toast with the given id.
type toastExpiredMsg struct {
	id int
}
