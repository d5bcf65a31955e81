package model

import (
	"fmt"
	"time"
)

const minutesPerDay = 24 * 60

// ClockTime is a wall-clock time of day in minutes after midnight.
// It carries no date and no timezone.
type ClockTime int

// NewClockTime builds a ClockTime from hour and minute
func NewClockTime(hour, minute int) ClockTime {
	return ClockTime(hour*60 + minute)
}

// ParseClockTime parses "HH:MM" or "HH:MM:SS" (seconds are dropped).
func ParseClockTime(s string) (ClockTime, error) {
	var layout string
	switch len(s) {
	case 5:
		layout = "15:04"
	case 8:
		layout = "15:04:05"
	default:
		return 0, fmt.Errorf("invalid time of day %q", s)
	}

	t, err := time.Parse(layout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return NewClockTime(t.Hour(), t.Minute()), nil
}

func (c ClockTime) Hour() int   { return int(c.normalize()) / 60 }
func (c ClockTime) Minute() int { return int(c.normalize()) % 60 }

// Add returns c shifted by the given number of minutes, wrapping at midnight.
func (c ClockTime) Add(minutes int) ClockTime {
	return (c + ClockTime(minutes)).normalize()
}

// On places the clock time on the given calendar date.
func (c ClockTime) On(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, c.Hour(), c.Minute(), 0, 0, date.Location())
}

// Duration returns the offset from midnight.
func (c ClockTime) Duration() time.Duration {
	return time.Duration(c.normalize()) * time.Minute
}

// ClockFromDuration converts an offset from midnight into a ClockTime.
func ClockFromDuration(d time.Duration) ClockTime {
	return ClockTime(int(d / time.Minute)).normalize()
}

// String formats as HH:MM
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// LongString formats as HH:MM:SS
func (c ClockTime) LongString() string {
	return fmt.Sprintf("%02d:%02d:00", c.Hour(), c.Minute())
}

func (c ClockTime) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *ClockTime) UnmarshalText(b []byte) error {
	parsed, err := ParseClockTime(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c ClockTime) normalize() ClockTime {
	v := int(c) % minutesPerDay
	if v < 0 {
		v += minutesPerDay
	}
	return ClockTime(v)
}
