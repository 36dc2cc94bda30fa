package helper_util

import (
	"time"
)

// ParseTime parses an RFC3339 timestamp.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	return t, err
}

// ParseOptionalTime is ParseTime with the empty string meaning the zero time.
func ParseOptionalTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return ParseTime(s)
}
