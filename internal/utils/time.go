package utils

import (
	"time"
)

// StartOfDay returns local midnight of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns midnight of the Monday of t's week.
func StartOfWeek(t time.Time) time.Time {
	day := StartOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// UTCDayBounds returns [00:00:00.000, 23:59:59.999] of t's UTC day.
func UTCDayBounds(t time.Time) (time.Time, time.Time) {
	start := StartOfDay(t.UTC())
	end := start.Add(24*time.Hour - time.Millisecond)
	return start, end
}
