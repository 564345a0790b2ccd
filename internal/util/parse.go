package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParsePositiveInt parses a positive integer. An empty string yields defaultValue.
func ParsePositiveInt(s string, defaultValue int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultValue, nil
	}
	val, err := strconv.Atoi(s)
	if err != nil || val <= 0 {
		return 0, fmt.Errorf("%q is not a positive integer", s)
	}
	return val, nil
}

// ParseTimeParam parses an RFC 3339 timestamp or a YYYY-MM-DD date (UTC midnight).
// An empty string yields the zero time.
func ParseTimeParam(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q: use RFC 3339 or YYYY-MM-DD", s)
}
