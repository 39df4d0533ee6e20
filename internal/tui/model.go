package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/iotdash/internal/summary"
)

// UpdatedMsg bridges a summaries:updated event to the display.
type UpdatedMsg struct {
	Summaries []summary.Summary
}

// NotifiedMsg bridges a user notification to the display.
type NotifiedMsg struct {
	Message string
}

// Model is the Bubble Tea model shown while the first refresh is pending.
type Model struct {
	url     string
	spinner spinner.Model
	result  []summary.Summary
	err     error
	done    bool
}

// NewModel creates a Model for a fetch of url.
func NewModel(url string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return Model{url: url, spinner: s}
}

// Init starts the spinner tick.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case UpdatedMsg:
		m.done = true
		m.result = msg.Summaries
		return m, tea.Quit

	case NotifiedMsg:
		m.done = true
		m.err = &NotificationError{Message: msg.Message}
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.done = true
			m.err = ErrAborted
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the fetch status line.
func (m Model) View() string {
	switch {
	case !m.done:
		return fmt.Sprintf("  %s Fetching summaries from %s\n", m.spinner.View(), m.url)
	case m.err != nil:
		return fmt.Sprintf("  ✗ %s\n", m.err)
	default:
		return fmt.Sprintf("  ✓ %d summaries\n", len(m.result))
	}
}

// Result returns the outcome once the model is done.
func (m Model) Result() ([]summary.Summary, error) {
	return m.result, m.err
}
