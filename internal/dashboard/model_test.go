package dashboard

import (
	"bytes"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"

	"github.com/smileynet/iotdash/internal/summary"
)

func newSizedModel(w, h int, opts ...ModelOption) Model {
	m := NewModel(opts...)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: w, Height: h})
	return updated.(Model)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

func TestNewModel_Defaults(t *testing.T) {
	m := NewModel()
	if m.focus != PaneLeft {
		t.Errorf("focus = %d, want PaneLeft (%d)", m.focus, PaneLeft)
	}
	if !m.refreshing {
		t.Error("new model should show the initial refresh as pending")
	}
	if m.detailMode != DetailFields {
		t.Errorf("detailMode = %d, want DetailFields", m.detailMode)
	}
}

func TestNewModel_WithSummaries(t *testing.T) {
	m := NewModel(WithSummaries(sampleSummaries()))
	if m.refreshing {
		t.Error("seeded model should not be refreshing")
	}
	if len(m.list.items) != 3 {
		t.Errorf("items = %d, want 3", len(m.list.items))
	}
}

func TestModel_InitStartsSpinner(t *testing.T) {
	if NewModel().Init() == nil {
		t.Error("Init should return the spinner tick")
	}
}

func TestModel_TabTogglesFocus(t *testing.T) {
	m := newSizedModel(90, 40)

	m, _ = update(t, m, keyMsg("tab"))
	if m.focus != PaneRight {
		t.Errorf("after first Tab: focus = %d, want PaneRight (%d)", m.focus, PaneRight)
	}

	m, _ = update(t, m, keyMsg("tab"))
	if m.focus != PaneLeft {
		t.Errorf("after second Tab: focus = %d, want PaneLeft (%d)", m.focus, PaneLeft)
	}
}

func TestModel_Quit(t *testing.T) {
	for _, k := range []tea.KeyMsg{keyMsg("q"), {Type: tea.KeyCtrlC}} {
		m := newSizedModel(90, 40)
		_, cmd := update(t, m, k)
		if cmd == nil {
			t.Fatalf("%s should return a quit command", k)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s command did not produce tea.QuitMsg", k)
		}
	}
}

func TestModel_WindowResizeUpdatesLayout(t *testing.T) {
	m := newSizedModel(80, 30)
	if m.width != 80 || m.height != 30 {
		t.Errorf("after first resize: %dx%d, want 80x30", m.width, m.height)
	}

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 50})
	if m.width != 120 || m.height != 50 {
		t.Errorf("after second resize: %dx%d, want 120x50", m.width, m.height)
	}
	if m.viewport.Width != 80-borderChrome {
		t.Errorf("viewport width = %d, want %d", m.viewport.Width, 80-borderChrome)
	}
}

func TestModel_ViewBeforeSize(t *testing.T) {
	if got := NewModel().View(); got != "Initializing..." {
		t.Errorf("View() = %q, want Initializing...", got)
	}
}

func TestModel_UpdatedMsgReplacesList(t *testing.T) {
	// Given: a model waiting on its first refresh
	m := newSizedModel(100, 30)

	// When: the summaries arrive
	m, _ = update(t, m, SummariesUpdatedMsg{Summaries: sampleSummaries()})

	// Then: the list is loaded, the spinner stops, the detail shows the first record
	if m.refreshing {
		t.Error("refreshing should clear on update")
	}
	view := m.View()
	for _, want := range []string{"Clients 17", "Lines", "Count:"} {
		if !containsPlainText(view, want) {
			t.Errorf("view should contain %q, got:\n%s", want, stripANSI(view))
		}
	}

	// When: a later refresh returns a different list
	m, _ = update(t, m, SummariesUpdatedMsg{Summaries: sampleSummaries()[2:]})

	// Then: the old rows are gone
	view = m.View()
	if containsPlainText(view, "Clients") {
		t.Errorf("replaced list should not contain Clients, got:\n%s", stripANSI(view))
	}
}

func TestModel_CursorMovesDetail(t *testing.T) {
	m := newSizedModel(100, 30, WithSummaries(sampleSummaries()))

	m, _ = update(t, m, keyMsg("j"))

	if !containsPlainText(m.viewport.View(), "Warnings:  2") {
		t.Errorf("detail should follow cursor, got:\n%s", stripANSI(m.viewport.View()))
	}
}

func TestModel_RightPaneKeysDoNotMoveCursor(t *testing.T) {
	m := newSizedModel(100, 30, WithSummaries(sampleSummaries()))
	m, _ = update(t, m, keyMsg("tab"))

	m, _ = update(t, m, keyMsg("j"))

	if m.list.cursor != 0 {
		t.Errorf("cursor = %d, want 0 while right pane has focus", m.list.cursor)
	}
}

func TestModel_ToggleRaw(t *testing.T) {
	m := newSizedModel(100, 30, WithSummaries(sampleSummaries()))

	m, _ = update(t, m, keyMsg("v"))

	if m.detailMode != DetailRaw {
		t.Fatalf("detailMode = %d, want DetailRaw", m.detailMode)
	}
	if !containsPlainText(m.viewport.View(), `"name": "clients"`) {
		t.Errorf("raw detail should show indented JSON, got:\n%s", stripANSI(m.viewport.View()))
	}

	m, _ = update(t, m, keyMsg("v"))
	if m.detailMode != DetailFields {
		t.Errorf("second v should return to fields, got %d", m.detailMode)
	}
}

func TestModel_RefreshKeyCallsRefresher(t *testing.T) {
	// Given: a loaded model with a refresher
	calls := 0
	m := newSizedModel(100, 30,
		WithSummaries(sampleSummaries()),
		WithRefresher(func() { calls++ }))

	// When: r is pressed and the resulting command is processed
	m, cmd := update(t, m, keyMsg("r"))
	if cmd == nil {
		t.Fatal("r should return a command")
	}
	msg := cmd()
	if _, ok := msg.(RefreshMsg); !ok {
		t.Fatalf("r command produced %T, want RefreshMsg", msg)
	}
	m, _ = update(t, m, msg)

	// Then: the refresher ran once and the spinner shows
	if calls != 1 {
		t.Errorf("refresher calls = %d, want 1", calls)
	}
	if !m.refreshing {
		t.Error("model should be refreshing after r")
	}
}

func TestModel_RefreshWithoutRefresherIsNoop(t *testing.T) {
	m := newSizedModel(100, 30, WithSummaries(sampleSummaries()))
	m, _ = update(t, m, RefreshMsg{})
	if m.refreshing {
		t.Error("refresh without a refresher should not show a spinner")
	}
}

func TestModel_ToastShowsAndExpires(t *testing.T) {
	// Given: a model waiting on its first refresh
	m := newSizedModel(120, 30)
	before := m.contentHeight()

	// When: a notification arrives
	m, cmd := update(t, m, ToastMsg{Text: summary.MsgInvalidData})

	// Then: it is shown, the spinner stops, and an expiry is scheduled
	if !containsPlainText(m.View(), "Error fetching Summaries (invalid data)") {
		t.Errorf("view should contain the toast, got:\n%s", stripANSI(m.View()))
	}
	if m.refreshing {
		t.Error("a notification ends the pending refresh")
	}
	if cmd == nil {
		t.Fatal("toast should schedule its expiry")
	}
	if m.contentHeight() != before-1 {
		t.Errorf("content height = %d, want %d", m.contentHeight(), before-1)
	}

	m, _ = update(t, m, toastExpiredMsg{id: m.toasts[0].id})
	if len(m.toasts) != 0 {
		t.Errorf("toasts = %d after expiry, want 0", len(m.toasts))
	}
}

func TestModel_ToastDismissAndCap(t *testing.T) {
	m := newSizedModel(120, 30, WithToastTTL(0))

	for i := 0; i < maxToasts+2; i++ {
		var cmd tea.Cmd
		m, cmd = update(t, m, ToastMsg{Text: strings.Repeat("e", i+1)})
		if cmd != nil {
			t.Fatal("zero TTL should not schedule expiry")
		}
	}
	if len(m.toasts) != maxToasts {
		t.Fatalf("toasts = %d, want %d", len(m.toasts), maxToasts)
	}
	if m.toasts[0].text != "eee" {
		t.Errorf("oldest kept toast = %q, want eee", m.toasts[0].text)
	}

	m, _ = update(t, m, keyMsg("x"))
	if len(m.toasts) != maxToasts-1 {
		t.Errorf("toasts = %d after dismiss, want %d", len(m.toasts), maxToasts-1)
	}
	if m.toasts[len(m.toasts)-1].text != "eeee" {
		t.Errorf("x should dismiss the newest toast, left %q", m.toasts[len(m.toasts)-1].text)
	}
}

func TestModel_EndpointTitle(t *testing.T) {
	m := newSizedModel(120, 30, WithEndpoint("http://dash.example.com/api"))
	if !containsPlainText(m.View(), "http://dash.example.com/api") {
		t.Errorf("view should show the endpoint, got:\n%s", stripANSI(m.View()))
	}
}

func TestModel_Teatest_UpdateThenQuit(t *testing.T) {
	m := NewModel(WithEndpoint("http://dash.example.com/api"))
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(100, 30))

	tm.Send(SummariesUpdatedMsg{Summaries: sampleSummaries()})
	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return bytes.Contains(b, []byte("Clients"))
	}, teatest.WithDuration(2*time.Second))

	tm.Send(ToastMsg{Text: summary.TransportMessage("http://dash.example.com/api/utils/summaries")})
	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))

	final := tm.FinalModel(t).(Model)
	if len(final.list.items) != 3 {
		t.Errorf("final items = %d, want 3", len(final.list.items))
	}
	if len(final.toasts) != 1 {
		t.Errorf("final toasts = %d, want 1", len(final.toasts))
	}
}
