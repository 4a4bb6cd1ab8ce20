package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const MinutesPerDay = 24 * 60

// ParseClock parses a wall-clock "HH:MM" string into minutes since midnight.
func ParseClock(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}

	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}

	return h*60 + m, nil
}

// InClockRange reports whether point (minutes since midnight) falls inside
// the [start, end] window. A window with start > end spans midnight and
// matches points at or after start or at or before end.
func InClockRange(point, start, end int) bool {
	if start <= end {
		return point >= start && point <= end
	}
	return point >= start || point <= end
}

// ClockWindow is a wall-clock window that may wrap midnight.
type ClockWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Contains reports whether the given minutes-since-midnight point lies in
// the window. Malformed bounds never match.
func (w ClockWindow) Contains(point int) bool {
	start, err := ParseClock(w.Start)
	if err != nil {
		return false
	}
	end, err := ParseClock(w.End)
	if err != nil {
		return false
	}
	return InClockRange(point, start, end)
}

// ContainsHour reports whether any minute of the given hour lies in the window.
func (w ClockWindow) ContainsHour(hour int) bool {
	return w.Contains(hour * 60)
}

// Validate checks both bounds parse as "HH:MM".
func (w ClockWindow) Validate() error {
	if _, err := ParseClock(w.Start); err != nil {
		return err
	}
	if _, err := ParseClock(w.End); err != nil {
		return err
	}
	return nil
}
