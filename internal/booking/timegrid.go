package booking

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Operating hours of the clinic. Slots start on the half hour between
// OpeningTime and ClosingTime inclusive.
var (
	OpeningTime = civil.Time{Hour: 7}
	ClosingTime = civil.Time{Hour: 20, Minute: 30}
)

const (
	SlotDuration   = 30 * time.Minute
	MaxSlotsPerDay = 28
)

// TimeGrid returns the legal start times for d in ascending order.
// The content does not depend on d; callers pair it with d.
func TimeGrid(d civil.Date) []civil.Time {
	step := int(SlotDuration / time.Minute)
	grid := make([]civil.Time, 0, MaxSlotsPerDay)
	for m := minutesOf(OpeningTime); m <= minutesOf(ClosingTime); m += step {
		grid = append(grid, civil.Time{Hour: m / 60, Minute: m % 60})
	}
	return grid
}

func minutesOf(t civil.Time) int {
	return t.Hour*60 + t.Minute
}

func compareTime(a, b civil.Time) int {
	ad := time.Duration(minutesOf(a))*time.Minute + time.Duration(a.Second)*time.Second + time.Duration(a.Nanosecond)
	bd := time.Duration(minutesOf(b))*time.Minute + time.Duration(b.Second)*time.Second + time.Duration(b.Nanosecond)
	switch {
	case ad < bd:
		return -1
	case ad > bd:
		return 1
	}
	return 0
}

func compareDate(a, b civil.Date) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

// Clock returns the current instant. Tests inject a fixed clock.
type Clock func() time.Time

// FixedClock always returns t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// ParseDate parses a civil date in YYYY-MM-DD form.
func ParseDate(s string) (civil.Date, error) {
	d, err := civil.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return civil.Date{}, invalid(ErrInvalidSlotDate, "Date %q must use the YYYY-MM-DD format!", s)
	}
	return d, nil
}

// ParseTime parses a time of day in HH:MM or HH:MM:SS form.
func ParseTime(s string) (civil.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.TimeOf(t), nil
		}
	}
	return civil.Time{}, invalid(ErrInvalidSlotTime, "Time %q must use the HH:MM format!", s)
}

// FormatTime renders t as HH:MM.
func FormatTime(t civil.Time) string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}
