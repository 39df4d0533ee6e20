package dashboard

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/smileynet/iotdash/internal/summary"
)

// stripANSI removes ANSI escape sequences from a string.
func stripANSI(s string) string {
	var out []byte
	i := 0
	for i < len(s) {
		if s[i] == '\x1b' && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && (s[j] < 'A' || s[j] > 'Z') && (s[j] < 'a' || s[j] > 'z') {
				j++
			}
			if j < len(s) {
				j++
			}
			i = j
		} else {
			out = append(out, s[i])
			i++
		}
	}
	return string(out)
}

// containsPlainText checks if s contains sub after stripping ANSI escapes.
func containsPlainText(s, sub string) bool {
	return strings.Contains(stripANSI(s), sub)
}

func collectKeys(bindings []key.Binding) []string {
	var keys []string
	for _, b := range bindings {
		keys = append(keys, b.Keys()...)
	}
	return keys
}

func containsKey(keys []string, want string) bool {
	for _, k := range keys {
		if k == want {
			return true
		}
	}
	return false
}

func sampleSummaries() []summary.Summary {
	return []summary.Summary{
		summary.Summary(`{"name":"clients","title":"Clients","count":17,"warningCount":0,"errorCount":0}`),
		summary.Summary(`{"name":"lines","title":"Lines","count":8,"warningCount":2,"errorCount":1}`),
		summary.Summary(`{"name":"readers","count":3}`),
	}
}
