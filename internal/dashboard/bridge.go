package dashboard

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/iotdash/internal/bus"
	"github.com/smileynet/iotdash/internal/notify"
	"github.com/smileynet/iotdash/internal/summary"
)

// Sender delivers messages into a running program. *tea.Program implements it.
type Sender interface {
	Send(msg tea.Msg)
}

// Subscriber is the part of the event bus the dashboard listens on.
type Subscriber interface {
	Subscribe(topic string, h bus.Handler) (unsubscribe func())
}

// Attach forwards summaries:updated events to p as SummariesUpdatedMsg.
// The returned function detaches the subscription.
func Attach(events Subscriber, p Sender) func() {
	return events.Subscribe(summary.EventUpdated, func(payload any) {
		list, ok := payload.([]summary.Summary)
		if !ok {
			return
		}
		p.Send(SummariesUpdatedMsg{Summaries: list})
	})
}

// Toasts returns a Notifier that shows each message as a toast in p.
func Toasts(p Sender) notify.Notifier {
	return notify.Func(func(msg string) {
		p.Send(ToastMsg{Text: msg})
	})
}
