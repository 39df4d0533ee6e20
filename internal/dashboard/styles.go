package dashboard

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
)

// MinLeftWidth is the minimum character width for the left pane.
const MinLeftWidth = 28

// CountKind identifies which counter a badge shows.
type CountKind int

const (
	CountTotal CountKind = iota
	CountWarning
	CountError
)

var (
	mutedColor   = lipgloss.AdaptiveColor{Light: "240", Dark: "245"}
	warningColor = lipgloss.AdaptiveColor{Light: "208", Dark: "208"}
	errorColor   = lipgloss.AdaptiveColor{Light: "1", Dark: "9"}
	accentColor  = lipgloss.AdaptiveColor{Light: "4", Dark: "12"}

	mutedText  = lipgloss.NewStyle().Foreground(mutedColor)
	titleText  = lipgloss.NewStyle().Bold(true)
	toastStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "15", Dark: "15"}).
			Background(errorColor).
			Padding(0, 1)
)

// CountBadge returns a styled counter. Zero warning and error counts are
// muted so that only non-zero problems stand out.
func CountBadge(kind CountKind, n int) string {
	label := strconv.Itoa(n)
	style := lipgloss.NewStyle()
	switch {
	case n == 0 && kind != CountTotal:
		style = style.Foreground(mutedColor)
	case kind == CountWarning:
		style = style.Foreground(warningColor).Bold(true)
	case kind == CountError:
		style = style.Foreground(errorColor).Bold(true)
	default:
		style = style.Foreground(accentColor)
	}
	return style.Render(label)
}

// FocusedBorder returns a lipgloss style with an accent-colored rounded border.
func FocusedBorder() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor)
}

// UnfocusedBorder returns a lipgloss style with a dim rounded border.
func UnfocusedBorder() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.AdaptiveColor{Light: "240", Dark: "240"})
}

// PaneWidths calculates the left and right pane widths from a total width.
// Left pane gets 1/3 (minimum MinLeftWidth), right pane gets the rest.
func PaneWidths(totalWidth int) (left, right int) {
	if totalWidth <= 0 {
		return 0, 0
	}
	left = totalWidth / 3
	if left < MinLeftWidth {
		left = MinLeftWidth
	}
	right = totalWidth - left
	if right < 0 {
		right = 0
	}
	return left, right
}
