// Package tui renders the one-shot summaries command: a spinner while the
// first refresh is pending on a terminal, then the list as styled text,
// plain text or JSON.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/smileynet/iotdash/internal/summary"
)

// ErrAborted is returned when the user quits before the refresh completes.
var ErrAborted = errors.New("tui: aborted")

// NotificationError carries the user notification raised by a failed refresh.
type NotificationError struct {
	Message string
}

func (e *NotificationError) Error() string { return e.Message }

// Event is an event sent to a Display via the bridge channel.
// Implemented by UpdatedMsg and NotifiedMsg.
type Event interface {
	isEvent()
}

func (UpdatedMsg) isEvent()  {}
func (NotifiedMsg) isEvent() {}

// Display waits for the outcome of the first refresh.
type Display interface {
	Wait(ctx context.Context, events <-chan Event) ([]summary.Summary, error)
}

// DisplayOptions configures display creation.
type DisplayOptions struct {
	Writer     io.Writer // Progress destination (default: os.Stderr).
	ForcePlain bool      // Skip the spinner even on a TTY.
	URL        string    // Shown in the spinner line.
}

// NewDisplay returns a spinner display when Writer is a TTY, or a silent
// display otherwise. ForcePlain overrides TTY detection.
func NewDisplay(opts DisplayOptions) Display {
	if opts.Writer == nil {
		opts.Writer = os.Stderr
	}
	if opts.ForcePlain || !isTTY(opts.Writer) {
		return PlainDisplay{}
	}
	return &TUIDisplay{url: opts.URL, w: opts.Writer}
}

// isTTY reports whether w is connected to a terminal.
func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Bridge adapts bus events and notifications to a Display channel.
type Bridge struct {
	ch chan Event
}

// NewBridge creates a Bridge with a buffered event channel.
func NewBridge() *Bridge {
	return &Bridge{ch: make(chan Event, 16)}
}

// Events returns the read-only channel for Display.Wait to consume.
func (b *Bridge) Events() <-chan Event {
	return b.ch
}

// Updated is a bus handler for summaries:updated.
func (b *Bridge) Updated(payload any) {
	if list, ok := payload.([]summary.Summary); ok {
		b.send(UpdatedMsg{Summaries: list})
	}
}

// Error implements notify.Notifier.
func (b *Bridge) Error(msg string) {
	b.send(NotifiedMsg{Message: msg})
}

// send never blocks the refresh goroutine; only the first event matters and
// the buffer holds far more than one command produces.
func (b *Bridge) send(ev Event) {
	select {
	case b.ch <- ev:
	default:
	}
}

// PlainDisplay waits without drawing anything.
type PlainDisplay struct{}

// Wait returns on the first update or notification, or when ctx is done.
func (PlainDisplay) Wait(ctx context.Context, events <-chan Event) ([]summary.Summary, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil, ErrAborted
			}
			if list, done, err := outcome(ev); done {
				return list, err
			}
		}
	}
}

// outcome reports whether ev ends a wait and with what result.
func outcome(ev Event) ([]summary.Summary, bool, error) {
	switch msg := ev.(type) {
	case UpdatedMsg:
		return msg.Summaries, true, nil
	case NotifiedMsg:
		return nil, true, &NotificationError{Message: msg.Message}
	}
	return nil, false, nil
}

// replayThenWait settles on the first outcome in pending, otherwise waits
// on events like PlainDisplay.
func replayThenWait(ctx context.Context, pending []Event, events <-chan Event) ([]summary.Summary, error) {
	for _, ev := range pending {
		if list, done, err := outcome(ev); done {
			return list, err
		}
	}
	return PlainDisplay{}.Wait(ctx, events)
}

// TUIDisplay shows a spinner using a Bubble Tea program.
// Falls back to PlainDisplay if the program fails to start.
type TUIDisplay struct {
	url string
	w   io.Writer
}

// Wait runs the spinner until the first event arrives.
func (d *TUIDisplay) Wait(ctx context.Context, events <-chan Event) ([]summary.Summary, error) {
	p := tea.NewProgram(NewModel(d.url), tea.WithOutput(d.w), tea.WithContext(ctx))

	// Forward through an intermediate stop channel so the goroutine ends
	// before a fallback reads from events. Forwarded events are kept for the
	// fallback in case the program never processed them.
	stop := make(chan struct{})
	forwarded := make(chan struct{})
	var sent []Event
	go func() {
		defer close(forwarded)
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					p.Quit()
					return
				}
				sent = append(sent, ev)
				p.Send(ev)
			case <-stop:
				return
			}
		}
	}()

	final, err := p.Run()
	close(stop)
	<-forwarded

	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		_, _ = fmt.Fprintf(d.w, "spinner unavailable: %v\n", err)
		return replayThenWait(ctx, sent, events)
	}

	m := final.(Model)
	if !m.done {
		return nil, ErrAborted
	}
	return m.Result()
}
