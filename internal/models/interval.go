package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Interval is a half-open time window [Start, End) within one day,
// expressed in minutes from midnight. A booking that ends at 19:30
// does not overlap one that starts at 19:30.
type Interval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

const minutesPerDay = 24 * 60

// Valid reports whether the interval is well-formed and fits in a day.
func (i Interval) Valid() bool {
	return i.Start >= 0 && i.Start < i.End && i.End <= minutesPerDay
}

// Overlaps reports whether two half-open intervals share any time.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start < other.End && other.Start < i.End
}

// Within reports whether the interval fits entirely inside outer.
func (i Interval) Within(outer Interval) bool {
	return i.Start >= outer.Start && i.End <= outer.End
}

func (i Interval) StartClock() string {
	return formatMinutes(i.Start)
}

func (i Interval) EndClock() string {
	return formatMinutes(i.End)
}

func (i Interval) String() string {
	return fmt.Sprintf("[%s, %s)", i.StartClock(), i.EndClock())
}

// ParseInterval builds an interval from "HH:MM" clock strings.
// It does not check Start < End: ordering is a validation concern,
// not a parsing one.
func ParseInterval(start, end string) (Interval, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Interval{}, fmt.Errorf("parse start time: %w", err)
	}
	e, err := ParseClock(end)
	if err != nil {
		return Interval{}, fmt.Errorf("parse end time: %w", err)
	}
	return Interval{Start: s, End: e}, nil
}

// ParseClock converts "HH:MM" to minutes from midnight. "24:00" is
// accepted as an end-of-day boundary.
func ParseClock(clock string) (int, error) {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid clock value %q, want HH:MM", clock)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q: %v", clock, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q: %v", clock, err)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("clock value %q out of range", clock)
	}
	return h*60 + m, nil
}

func formatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
