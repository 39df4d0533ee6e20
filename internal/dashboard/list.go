package dashboard

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/iotdash/internal/summary"
)

// CursorMarker is the prefix shown on the selected row.
const CursorMarker = "▸ "

// listState manages the summary list and cursor for the left pane.
type listState struct {
	items  []summary.Summary
	cursor int
	loaded bool // At least one successful refresh has been applied.
}

// apply replaces the list. The cursor stays on the same index when it is
// still in range so a periodic refresh does not jump the selection.
func (ls listState) apply(items []summary.Summary) listState {
	ls.items = append([]summary.Summary(nil), items...)
	ls.loaded = true
	if ls.cursor >= len(ls.items) {
		ls.cursor = 0
	}
	return ls
}

// Update moves the cursor on navigation keys.
func (ls listState) Update(msg tea.Msg) (listState, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return ls, nil
	}

	switch km.String() {
	case "up", "k":
		if len(ls.items) > 0 {
			ls.cursor--
			if ls.cursor < 0 {
				ls.cursor = len(ls.items) - 1
			}
		}
		return ls, nil

	case "down", "j":
		if len(ls.items) > 0 {
			ls.cursor++
			if ls.cursor >= len(ls.items) {
				ls.cursor = 0
			}
		}
		return ls, nil
	}

	return ls, nil
}

// Selected returns the record at the cursor, or false if the list is empty.
func (ls listState) Selected() (summary.Summary, bool) {
	if len(ls.items) == 0 || ls.cursor < 0 || ls.cursor >= len(ls.items) {
		return nil, false
	}
	return ls.items[ls.cursor], true
}

// View renders the list pane. spinnerView is the current spinner frame and
// is shown while a refresh is pending.
func (ls listState) View(width, height int, spinnerView string, refreshing bool) string {
	if !ls.loaded {
		if refreshing {
			return fmt.Sprintf("%s Loading summaries...", spinnerView)
		}
		return "No summaries loaded\n\nPress r to retry"
	}

	if len(ls.items) == 0 {
		return "No summaries. Press r to refresh"
	}

	var b strings.Builder
	for i, s := range ls.items {
		if i > 0 {
			b.WriteByte('\n')
		}
		if i == ls.cursor {
			b.WriteString(CursorMarker)
		} else {
			b.WriteString("  ")
		}
		b.WriteString(rowLabel(s, width-len(CursorMarker)))
	}
	if refreshing {
		b.WriteString("\n\n" + spinnerView + " Refreshing...")
	}
	return b.String()
}

// rowLabel is the one-line form of a record: its label and badges when it
// has known fields, otherwise its compact JSON.
func rowLabel(s summary.Summary, width int) string {
	v, ok := s.View()
	if !ok {
		return mutedText.Render(truncate(s.String(), width))
	}
	line := truncate(v.Label(), width-8) + " " + CountBadge(CountTotal, v.Count)
	if v.WarningCount > 0 {
		line += " " + CountBadge(CountWarning, v.WarningCount)
	}
	if v.ErrorCount > 0 {
		line += " " + CountBadge(CountError, v.ErrorCount)
	}
	return line
}

// truncate shortens s to at most width runes, marking the cut with "…".
func truncate(s string, width int) string {
	if width < 1 {
		width = 1
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
