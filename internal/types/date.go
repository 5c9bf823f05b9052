package types

import (
	"time"
)

// Billing computations work on calendar dates, represented as a time.Time
// at midnight UTC.

// NewDate returns the calendar date y-m-d
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ToLocalDate converts an instant to the calendar date observed in loc.
// A nil location means UTC.
func ToLocalDate(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return NewDate(y, m, d)
}

// TruncateToDate drops the clock part of t keeping its own calendar date
func TruncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// DaysInMonth returns the number of days of the given month
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// WithDayOfMonth moves t to the given day of its month, clamped to the last day of that month
func WithDayOfMonth(t time.Time, day int) time.Time {
	y, m, _ := t.Date()
	if last := DaysInMonth(y, m); day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return time.Date(y, m, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// AdvanceByPeriods moves date by n billing periods. Month based periods keep
// the day of month clamped to the month length.
func AdvanceByPeriods(date time.Time, period BillingPeriod, n int) time.Time {
	if months := period.NumberOfMonths(); months > 0 {
		return AddClampedDate(date, 0, months*n, 0)
	}
	return date.AddDate(0, 0, period.NumberOfDays()*n)
}

// AddClampedDate adds years, months and days to t. When the resulting month is
// shorter than the original day of month the day is clamped to the last valid day.
func AddClampedDate(t time.Time, years, months, days int) time.Time {
	y, m, d := t.Date()
	h, min, sec := t.Clock()

	newY := y + years
	newM := time.Month(int(m) + months)

	// If we move beyond December, it adjusts correctly,
	// for example adding 2 months to November will land on January next year.
	for newM > 12 {
		newM -= 12
		newY++
	}
	for newM < 1 {
		newM += 12
		newY--
	}

	if lastDay := DaysInMonth(newY, newM); d > lastDay {
		d = lastDay
	}

	return time.Date(newY, newM, d, h, min, sec, t.Nanosecond(), t.Location()).AddDate(0, 0, days)
}
