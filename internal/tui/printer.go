package tui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/smileynet/iotdash/internal/summary"
)

// Format selects how Print renders the list.
type Format int

const (
	FormatAuto   Format = iota // Styled on a TTY, plain otherwise.
	FormatPlain                // Tab-separated rows.
	FormatStyled               // Aligned columns with colored counts.
	FormatJSON                 // The list as an indented JSON array.
)

// PrintOptions configures Print.
type PrintOptions struct {
	Writer io.Writer // Default: os.Stdout.
	Format Format
}

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "208", Dark: "208"}).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "1", Dark: "9"}).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "245"})
)

// Print writes list to opts.Writer.
func Print(opts PrintOptions, list []summary.Summary) error {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}

	format := opts.Format
	if format == FormatAuto {
		format = FormatPlain
		if isTTY(w) {
			format = FormatStyled
		}
	}

	switch format {
	case FormatJSON:
		return printJSON(w, list)
	case FormatStyled:
		return printStyled(w, list)
	default:
		return printPlain(w, list)
	}
}

func printJSON(w io.Writer, list []summary.Summary) error {
	if list == nil {
		list = []summary.Summary{}
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("tui: encode summaries: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// printPlain writes one record per line: label, count, warnings and errors
// separated by tabs, or the compact JSON for records without known fields.
func printPlain(w io.Writer, list []summary.Summary) error {
	for _, s := range list {
		v, ok := s.View()
		var line string
		if ok {
			line = strings.Join([]string{
				v.Label(),
				strconv.Itoa(v.Count),
				strconv.Itoa(v.WarningCount),
				strconv.Itoa(v.ErrorCount),
			}, "\t")
		} else {
			line = s.String()
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func printStyled(w io.Writer, list []summary.Summary) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, mutedStyle.Render("No summaries"))
		return err
	}

	width := len("Summary")
	for _, s := range list {
		if v, ok := s.View(); ok && len(v.Label()) > width {
			width = len(v.Label())
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s  %s  %s\n",
		headerStyle.Render(pad("Summary", width)),
		headerStyle.Render(pad("Count", 6)),
		headerStyle.Render(pad("Warn", 6)),
		headerStyle.Render(pad("Err", 6)))
	for _, s := range list {
		v, ok := s.View()
		if !ok {
			b.WriteString(mutedStyle.Render(s.String()) + "\n")
			continue
		}
		fmt.Fprintf(&b, "%s  %s  %s  %s\n",
			pad(v.Label(), width),
			pad(strconv.Itoa(v.Count), 6),
			countCell(warningStyle, v.WarningCount),
			countCell(errorStyle, v.ErrorCount))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// countCell pads before styling so escape codes do not break alignment.
func countCell(style lipgloss.Style, n int) string {
	cell := pad(strconv.Itoa(n), 6)
	if n == 0 {
		return mutedStyle.Render(cell)
	}
	return style.Render(cell)
}

func pad(s string, width int) string {
	if n := width - len(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}
