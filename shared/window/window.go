// Package window holds the clock arithmetic behind table availability. A
// reservation for 18:00 holds its table from 16:00 to 20:00, and two bookings
// collide when those spans overlap.
package window

import (
	"fmt"
	"time"
)

const (
	// MinutesPerDay is the exclusive upper bound for a Clock value.
	MinutesPerDay = 24 * 60

	// HoldMinutes is how long a reservation holds a table on each side of
	// its start time.
	HoldMinutes = 120
)

// Clock is a time of day in minutes since midnight.
type Clock int

// ParseClock parses a zero padded HH:MM string into a Clock.
func ParseClock(value string) (Clock, error) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q: %w", value, err)
	}

	return Clock(parsed.Hour()*60 + parsed.Minute()), nil
}

// MustParseClock is ParseClock for trusted inputs, panicking on failure.
func MustParseClock(value string) Clock {
	clock, err := ParseClock(value)
	if err != nil {
		panic(err)
	}

	return clock
}

// String formats the clock back to zero padded HH:MM. The stored form stays
// lexically comparable to other clocks of the same day.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// At anchors the clock onto the given date, keeping that date's location.
func (c Clock) At(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), int(c)/60, int(c)%60, 0, 0, date.Location())
}

// Window is a half open [Start, End) span within a single day.
type Window struct {
	Start Clock
	End   Clock
}

// Booking builds the hold window around a reservation start time, clamped to
// the bounds of the day. A window that touches midnight does not wrap into the
// neighboring day.
func Booking(start Clock) Window {
	windowStart := start - HoldMinutes
	if windowStart < 0 {
		windowStart = 0
	}

	windowEnd := start + HoldMinutes
	if windowEnd > MinutesPerDay {
		windowEnd = MinutesPerDay
	}

	return Window{Start: windowStart, End: windowEnd}
}

// Overlaps reports whether two half open windows share any minute. Windows
// that merely touch at an endpoint do not overlap.
func (w Window) Overlaps(other Window) bool {
	return w.Start < other.End && other.Start < w.End
}

// Covers reports whether the clock falls inside the window.
func (w Window) Covers(c Clock) bool {
	return c >= w.Start && c < w.End
}
