package utils

import (
	"fmt"
	"time"
)

// TruncateToDay drops the time-of-day portion, keeping the location.
func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// AddDays returns the date n calendar days after t.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// FormatDayDate renders a date the way the timeline displays it.
func FormatDayDate(t time.Time) string {
	return t.Format("Mon, Jan 2")
}

// SameDate reports whether two timestamps fall on the same calendar day.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

const (
	slotStartHour  = 9
	slotSpacingHrs = 2
	slotLastHour   = 21
)

// SlotTime returns the suggested time for the activity at the given
// position within a day, using evenly spaced slots from 09:00. Positions
// past the last evening slot all land on it.
func SlotTime(index int) string {
	hour := slotStartHour + index*slotSpacingHrs
	if hour > slotLastHour {
		hour = slotLastHour
	}
	return fmt.Sprintf("%02d:00", hour)
}
