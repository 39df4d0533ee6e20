package dashboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/smileynet/iotdash/internal/summary"
)

// renderDetail renders the right pane for the selected record.
func renderDetail(s summary.Summary, selected bool, mode DetailMode) string {
	if !selected {
		return mutedText.Render("Nothing selected")
	}

	v, ok := s.View()
	if mode == DetailRaw || !ok {
		return rawJSON(s)
	}

	var b strings.Builder
	b.WriteString(titleText.Render(v.Label()))
	b.WriteString("\n\n")
	if v.Name != "" {
		fmt.Fprintf(&b, "Name:      %s\n", v.Name)
	}
	fmt.Fprintf(&b, "Count:     %s\n", CountBadge(CountTotal, v.Count))
	fmt.Fprintf(&b, "Warnings:  %s\n", CountBadge(CountWarning, v.WarningCount))
	fmt.Fprintf(&b, "Errors:    %s\n", CountBadge(CountError, v.ErrorCount))
	b.WriteString("\n")
	b.WriteString(mutedText.Render("v: raw json"))
	return b.String()
}

// rawJSON indents the record for display. Bytes that do not indent are
// shown as received.
func rawJSON(s summary.Summary) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, s, "", "  "); err != nil {
		return s.String()
	}
	return buf.String()
}
