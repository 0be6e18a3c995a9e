package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// marshalStrings converts a string slice to JSON TEXT, "[]" for nil.
func marshalStrings(vals []string) (string, error) {
	if vals == nil {
		vals = []string{}
	}
	return encodeJSON(vals)
}

func unmarshalStrings(data string) ([]string, error) {
	out := []string{}
	if data == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, fmt.Errorf("unmarshal strings: %w", err)
	}
	return out, nil
}

// rawOr returns raw as text, or def when raw is empty.
func rawOr(raw json.RawMessage, def string) string {
	if len(bytes.TrimSpace(raw)) == 0 {
		return def
	}
	return string(raw)
}

// encodeJSON serializes v without HTML escaping and without the encoder's
// trailing newline.
func encodeJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
