// Package notify routes user-facing notifications (error toasts) to
// whatever surface is showing them.
package notify

import "log/slog"

// Notifier shows a message to the user.
type Notifier interface {
	Error(msg string)
}

// Func adapts a plain function to a Notifier.
type Func func(msg string)

// Error calls f(msg).
func (f Func) Error(msg string) { f(msg) }

// LogNotifier records notifications in a structured log.
type LogNotifier struct {
	log *slog.Logger
}

// NewLogNotifier creates a LogNotifier. A nil logger uses slog.Default.
func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log.With("component", "notify")}
}

// Error logs msg at error level.
func (n *LogNotifier) Error(msg string) {
	n.log.Error("User notification", "message", msg)
}

// Multi fans each notification out to every non-nil notifier in order.
func Multi(ns ...Notifier) Notifier {
	var out []Notifier
	for _, n := range ns {
		if n != nil {
			out = append(out, n)
		}
	}
	return Func(func(msg string) {
		for _, n := range out {
			n.Error(msg)
		}
	})
}
