// Package summary fetches the dashboard proxy's summary list, validates its
// shape, caches the last good copy, and tells the rest of the application
// when it changes or when a fetch fails.
package summary

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Summary is one opaque record from the proxy. Its bytes are kept exactly as
// received; this package never interprets them.
type Summary json.RawMessage

// MarshalJSON returns the record's original bytes.
func (s Summary) MarshalJSON() ([]byte, error) {
	if len(s) == 0 {
		return []byte("null"), nil
	}
	return s, nil
}

// UnmarshalJSON stores a copy of data.
func (s *Summary) UnmarshalJSON(data []byte) error {
	if s == nil {
		return errors.New("summary: UnmarshalJSON on nil pointer")
	}
	*s = append(Summary(nil), data...)
	return nil
}

// String returns the raw JSON text.
func (s Summary) String() string { return string(s) }

// Sentinel errors for caller-checkable conditions.
var (
	// ErrInvalidShape reports a response body that is not a JSON array.
	ErrInvalidShape = errors.New("summary: invalid payload shape")
)

// TransportError reports a request that failed before a usable body was
// received: network failure, timeout, or a non-2xx status.
type TransportError struct {
	URL        string
	StatusCode int // Zero when no response was received.
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("summary: GET %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("summary: GET %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Decode validates that body is a JSON array and splits it into records.
// Any other shape (absent, null, object, string, number, boolean, or
// malformed JSON) fails with ErrInvalidShape.
func Decode(body []byte) ([]Summary, error) {
	trimmed := bytes.TrimSpace(body)
	if kind := jsonKind(trimmed); kind != "array" {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidShape, kind)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShape, err)
	}

	out := make([]Summary, len(raw))
	for i, r := range raw {
		out[i] = Summary(r)
	}
	return out, nil
}

// jsonKind names the top-level JSON type of b from its first byte.
func jsonKind(b []byte) string {
	if len(b) == 0 {
		return "empty body"
	}
	switch c := b[0]; {
	case c == '[':
		return "array"
	case c == '{':
		return "object"
	case c == '"':
		return "string"
	case c == 'n':
		return "null"
	case c == 't' || c == 'f':
		return "boolean"
	case c == '-' || (c >= '0' && c <= '9'):
		return "number"
	default:
		return "non-JSON body"
	}
}

// View is the presentation of a record as the dashboard proxy builds it.
// Display code uses it; the cache itself never decodes records.
type View struct {
	Name         string `json:"name"`
	Title        string `json:"title"`
	Count        int    `json:"count"`
	WarningCount int    `json:"warningCount"`
	ErrorCount   int    `json:"errorCount"`
}

// View decodes s best-effort. ok is false when s is not a JSON object.
func (s Summary) View() (v View, ok bool) {
	if jsonKind(bytes.TrimSpace(s)) != "object" {
		return View{}, false
	}
	if err := json.Unmarshal(s, &v); err != nil {
		return View{}, false
	}
	return v, true
}

// Label returns the best human-readable name for the record.
func (v View) Label() string {
	switch {
	case v.Title != "":
		return v.Title
	case v.Name != "":
		return v.Name
	default:
		return "(untitled)"
	}
}
