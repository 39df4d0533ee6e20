package dashboard

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/smileynet/iotdash/internal/summary"
)

// helpBarHeight is the number of lines reserved for the help bar at the bottom.
const helpBarHeight = 1

// borderChrome is the number of lines consumed by top + bottom borders.
const borderChrome = 2

// maxToasts is the number of notifications kept on screen.
const maxToasts = 3

// DefaultToastTTL is how long a toast stays before it is dismissed.
const DefaultToastTTL = 8 * time.Second

type toast struct {
	id   int
	text string
}

// Model is the root Bubble Tea model for the dashboard TUI.
// It manages a two-pane layout: the summary list and the selected record.
type Model struct {
	focus      Focus
	detailMode DetailMode
	width      int
	height     int
	list       listState
	viewport   viewport.Model
	help       help.Model
	spinner    spinner.Model

	refresh    func()
	refreshing bool
	endpoint   string

	toasts   []toast
	toastSeq int
	toastTTL time.Duration
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithRefresher sets the function called on 'r'. It must not block.
func WithRefresher(fn func()) ModelOption {
	return func(m *Model) { m.refresh = fn }
}

// WithSummaries seeds the list, e.g. from a cache that is already loaded.
func WithSummaries(list []summary.Summary) ModelOption {
	return func(m *Model) {
		m.list = m.list.apply(list)
		m.refreshing = false
	}
}

// WithEndpoint sets the base URL shown in the list pane title.
func WithEndpoint(base string) ModelOption {
	return func(m *Model) { m.endpoint = base }
}

// WithToastTTL overrides DefaultToastTTL. Zero keeps toasts until dismissed.
func WithToastTTL(d time.Duration) ModelOption {
	return func(m *Model) { m.toastTTL = d }
}

// NewModel creates a dashboard Model with left-pane focus. The first refresh
// is assumed to be in flight, so the list shows a spinner until
// SummariesUpdatedMsg or ToastMsg arrives.
func NewModel(opts ...ModelOption) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	m := Model{
		focus:      PaneLeft,
		viewport:   viewport.New(0, 0),
		help:       help.New(),
		spinner:    s,
		refreshing: true,
		toastTTL:   DefaultToastTTL,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.syncDetail()
	return m
}

// Init starts the spinner tick.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resize()
		return m, nil

	case SummariesUpdatedMsg:
		m.list = m.list.apply(msg.Summaries)
		m.refreshing = false
		m.syncDetail()
		return m, nil

	case ToastMsg:
		m.refreshing = false
		return m.pushToast(msg.Text)

	case toastExpiredMsg:
		m.dropToast(msg.id)
		m.resize()
		return m, nil

	case RefreshMsg:
		if m.refresh != nil {
			m.refreshing = true
			m.refresh()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// handleKey processes global keys first, then routes to the focused pane.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab":
		if m.focus == PaneLeft {
			m.focus = PaneRight
		} else {
			m.focus = PaneLeft
		}
		return m, nil
	case "v":
		if m.detailMode == DetailFields {
			m.detailMode = DetailRaw
		} else {
			m.detailMode = DetailFields
		}
		m.syncDetail()
		return m, nil
	case "x":
		if n := len(m.toasts); n > 0 {
			m.dropToast(m.toasts[n-1].id)
			m.resize()
		}
		return m, nil
	case "r":
		return m, func() tea.Msg { return RefreshMsg{} }
	}

	if m.focus == PaneRight {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	prev := m.list.cursor
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	if m.list.cursor != prev {
		m.syncDetail()
	}
	return m, cmd
}

func (m Model) pushToast(text string) (tea.Model, tea.Cmd) {
	m.toastSeq++
	id := m.toastSeq
	m.toasts = append(m.toasts, toast{id: id, text: text})
	if len(m.toasts) > maxToasts {
		m.toasts = m.toasts[len(m.toasts)-maxToasts:]
	}
	m.resize()

	if m.toastTTL <= 0 {
		return m, nil
	}
	return m, tea.Tick(m.toastTTL, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

func (m *Model) dropToast(id int) {
	out := m.toasts[:0:0]
	for _, t := range m.toasts {
		if t.id != id {
			out = append(out, t)
		}
	}
	m.toasts = out
}

// syncDetail re-renders the selected record into the viewport.
func (m *Model) syncDetail() {
	s, ok := m.list.Selected()
	m.viewport.SetContent(renderDetail(s, ok, m.detailMode))
	m.viewport.GotoTop()
}

func (m *Model) resize() {
	_, rightWidth := PaneWidths(m.width)
	vpWidth := rightWidth - borderChrome
	if vpWidth < 0 {
		vpWidth = 0
	}
	m.viewport.Width = vpWidth
	m.viewport.Height = m.contentHeight()
}

// contentHeight returns the usable height for pane content,
// accounting for border chrome, toasts and the help bar.
func (m Model) contentHeight() int {
	h := m.height - borderChrome - helpBarHeight - len(m.toasts)
	if h < 1 {
		return 1
	}
	return h
}

// View renders the two-pane layout with toasts and help bar.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	leftWidth, rightWidth := PaneWidths(m.width)
	contentHeight := m.contentHeight()

	var leftStyle, rightStyle lipgloss.Style
	if m.focus == PaneLeft {
		leftStyle = FocusedBorder()
		rightStyle = UnfocusedBorder()
	} else {
		leftStyle = UnfocusedBorder()
		rightStyle = FocusedBorder()
	}

	leftStyle = leftStyle.
		Width(leftWidth - borderChrome).
		Height(contentHeight)
	rightStyle = rightStyle.
		Width(rightWidth - borderChrome).
		Height(contentHeight)

	leftPane := leftStyle.Render(m.viewLeft(leftWidth - borderChrome))
	rightPane := rightStyle.Render(m.viewport.View())
	panes := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, rightPane)

	rows := []string{panes}
	for _, t := range m.toasts {
		rows = append(rows, toastStyle.Render(truncate(t.text, m.width-2)))
	}
	rows = append(rows, m.help.View(HelpBindings(len(m.toasts) > 0)))

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// viewLeft renders the list pane with an optional endpoint title.
func (m Model) viewLeft(width int) string {
	body := m.list.View(width, m.contentHeight(), m.spinner.View(), m.refreshing)
	if m.endpoint == "" {
		return body
	}
	title := mutedText.Render(truncate(m.endpoint, width))
	return strings.Join([]string{title, "", body}, "\n")
}
