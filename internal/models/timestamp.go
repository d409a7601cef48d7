package models

import (
	"strings"
	"time"
)

const (
	DisplayDateLayout = "Jan 02, 2006"
	DisplayTimeLayout = "03:04 PM"
)

// timestampLayouts are tried in order. Fractional seconds are accepted by
// time.Parse after a seconds field even when the layout omits them.
var timestampLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.RFC3339Nano,
}

// ParseTimestamp parses the ISO-8601 forms the backend emits. Values without a
// 'T' separator are rejected.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "T") {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CompareTimestamps orders two backend timestamps. Unparseable values fall back
// to lexical order, which matches chronological order for ISO-8601 in one zone.
func CompareTimestamps(a, b string) int {
	ta, okA := ParseTimestamp(a)
	tb, okB := ParseTimestamp(b)
	if okA && okB {
		return ta.Compare(tb)
	}
	return strings.Compare(a, b)
}

// FormatTimestamp renders t in the layout the backend accepts for query
// parameters and request bodies.
func FormatTimestamp(t time.Time) string {
	return t.Format("2006-01-02T15:04:05")
}
