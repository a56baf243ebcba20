package timerecord

import (
	"fmt"
	"strings"
	"time"
)

const (
	ClockLayout = "15:04"
	DateLayout  = "2006-01-02"
)

// FormatClock renders t as HH:MM.
func FormatClock(t time.Time) string {
	return t.Format(ClockLayout)
}

// ParseClock converts an HH:MM (or H:MM, or HH:MM:SS) string to minutes after midnight.
func ParseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	if len(s) == len("15:04:05") {
		s = s[:5]
	}
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// NormalizeClock re-renders a parseable clock string as zero padded HH:MM.
func NormalizeClock(s string) (string, error) {
	m, err := ParseClock(s)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60), nil
}

// FormatMinutes renders a duration in minutes as H:MM.
func FormatMinutes(m int) string {
	return fmt.Sprintf("%d:%02d", m/60, m%60)
}

// ParseDate parses YYYY-MM-DD in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
}

// SameDate compares calendar dates regardless of location.
func SameDate(a, b time.Time) bool {
	return a.Format(DateLayout) == b.Format(DateLayout)
}
