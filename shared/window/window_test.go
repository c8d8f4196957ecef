package window_test

import (
	"quicktable/shared/window"
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected window.Clock
		wantErr  bool
	}{
		{
			name:     "evening time",
			input:    "18:00",
			expected: window.Clock(18 * 60),
		},
		{
			name:     "midnight",
			input:    "00:00",
			expected: window.Clock(0),
		},
		{
			name:     "last minute of day",
			input:    "23:59",
			expected: window.Clock(23*60 + 59),
		},
		{
			name:    "missing zero padding",
			input:   "9:30",
			wantErr: true,
		},
		{
			name:    "out of range hour",
			input:   "24:00",
			wantErr: true,
		},
		{
			name:    "garbage",
			input:   "dinner",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock, err := window.ParseClock(tt.input)

			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q, got %v", tt.input, clock)
				}

				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if clock != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, clock)
			}
		})
	}
}

func TestClockString(t *testing.T) {
	if got := window.MustParseClock("09:05").String(); got != "09:05" {
		t.Errorf("expected 09:05, got %s", got)
	}

	if got := window.Clock(0).String(); got != "00:00" {
		t.Errorf("expected 00:00, got %s", got)
	}
}

func TestBooking(t *testing.T) {
	tests := []struct {
		name  string
		start string
		wantS string
		wantE window.Clock
	}{
		{
			name:  "mid day window",
			start: "18:00",
			wantS: "16:00",
			wantE: window.MustParseClock("20:00"),
		},
		{
			name:  "clamped at start of day",
			start: "01:00",
			wantS: "00:00",
			wantE: window.MustParseClock("03:00"),
		},
		{
			name:  "clamped at end of day",
			start: "23:00",
			wantS: "21:00",
			wantE: window.MinutesPerDay,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := window.Booking(window.MustParseClock(tt.start))

			if w.Start != window.MustParseClock(tt.wantS) {
				t.Errorf("expected start %s, got %s", tt.wantS, w.Start)
			}

			if w.End != tt.wantE {
				t.Errorf("expected end %d, got %d", tt.wantE, w.End)
			}
		})
	}
}

func TestOverlaps(t *testing.T) {
	base := window.Booking(window.MustParseClock("18:00")) // 16:00-20:00

	tests := []struct {
		name     string
		other    string
		expected bool
	}{
		{
			name:     "same start collides",
			other:    "18:00",
			expected: true,
		},
		{
			name:     "one hour later collides",
			other:    "19:00",
			expected: true,
		},
		{
			name:     "ninety minutes after still collides",
			other:    "21:30",
			expected: true,
		},
		{
			name:     "windows touching at the boundary do not collide",
			other:    "22:00",
			expected: false,
		},
		{
			name:     "well before does not collide",
			other:    "12:00",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := window.Booking(window.MustParseClock(tt.other))

			if got := base.Overlaps(other); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}

			// Overlap is symmetric.
			if got := other.Overlaps(base); got != tt.expected {
				t.Errorf("expected symmetric %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestCovers(t *testing.T) {
	w := window.Booking(window.MustParseClock("18:00"))

	if !w.Covers(window.MustParseClock("16:00")) {
		t.Error("expected window to cover its start")
	}

	if w.Covers(window.MustParseClock("20:00")) {
		t.Error("expected window to exclude its end")
	}
}

func TestClockAt(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	date := time.Date(2025, time.March, 10, 0, 0, 0, 0, loc)

	got := window.MustParseClock("18:30").At(date)
	want := time.Date(2025, time.March, 10, 18, 30, 0, 0, loc)

	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}
