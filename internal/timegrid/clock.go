package timegrid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// MinutesPerDay is 24 hours * 60 minutes.
	MinutesPerDay = 24 * 60
	// DayLayout is the calendar day format used across the API.
	DayLayout = "2006-01-02"
)

// ErrInvalidClock is returned for strings that carry no derivable time of day.
var ErrInvalidClock = errors.New("invalid time of day")

// ParseClock converts "HH:MM", "HH:MM:SS" or an RFC 3339 timestamp to minutes
// from midnight.
func ParseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidClock)
	}

	if strings.Contains(s, "T") {
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
		}
		return ts.Hour()*60 + ts.Minute(), nil
	}

	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 || len(parts[0]) > 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	if len(parts) == 3 {
		sec, err := strconv.Atoi(parts[2])
		if err != nil || sec < 0 || sec > 59 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
		}
	}
	return hour*60 + minute, nil
}

// FormatClock renders minutes from midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// StartHour returns the truncated hour of a start string, or false when the
// string carries no derivable hour.
func StartHour(s string) (int, bool) {
	m, err := ParseClock(s)
	if err != nil {
		return 0, false
	}
	return m / 60, true
}

// ParseDay validates a YYYY-MM-DD calendar day.
func ParseDay(s string) (time.Time, error) {
	d, err := time.Parse(DayLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q: expected YYYY-MM-DD", s)
	}
	return d, nil
}

// FormatDay renders a time as a YYYY-MM-DD calendar day.
func FormatDay(t time.Time) string {
	return t.Format(DayLayout)
}
