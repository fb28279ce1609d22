package validation

import (
	"errors"
	"strings"
	"time"
)

// ErrCodeEmpty is returned when a station code is empty or whitespace-only after trim.
var ErrCodeEmpty = errors.New("station code is required")

// ErrCodeFormat is returned when a station code is not an 8-digit ANA code.
var ErrCodeFormat = errors.New("station code must be 8 digits")

// ErrRangeInverted is returned when an end date precedes its start date.
var ErrRangeInverted = errors.New("end date precedes start date")

// StationCode trims the input and enforces the ANA station code format
// (exactly 8 decimal digits). Returns the trimmed code or an error.
func StationCode(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", ErrCodeEmpty
	}
	if len(s) != 8 {
		return "", ErrCodeFormat
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return "", ErrCodeFormat
		}
	}
	return s, nil
}

// DateRange checks that end does not precede start. Bounds are inclusive
// calendar dates, so equal start and end is a valid one-day range.
func DateRange(start, end time.Time) error {
	if end.Before(start) {
		return ErrRangeInverted
	}
	return nil
}
