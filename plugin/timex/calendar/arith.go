package calendar

import (
	"time"
)

// Span is a calendar-aware amount of time. Years and months are calendar units, weeks and
// days are calendar days, and the clock fields are applied to the wall clock last.
type Span struct {
	Years   int
	Months  int
	Weeks   int
	Days    int
	Hours   int
	Minutes int
	Seconds int
}

// IsZero reports whether every component is zero.
func (s Span) IsZero() bool {
	return s == Span{}
}

// AddMonthsClamped moves t by months calendar months, keeping the wall clock. When the
// day of month does not exist in the target month the last day of that month is used,
// so January 31st plus one month is February 28th (29th in leap years).
func AddMonthsClamped(t time.Time, months int) time.Time {
	if months == 0 {
		return t
	}
	total := int(t.Month()) - 1 + months
	year := t.Year() + floorDiv(total, 12)
	month := time.Month(floorMod(total, 12) + 1)
	day := t.Day()
	if last := DaysInMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// Add applies span to t forward (sign > 0) or backward (sign < 0).
// Order: years and months (clamped), then weeks and days, then the clock fields.
func Add(t time.Time, span Span, sign int) time.Time {
	if sign < 0 {
		sign = -1
	} else {
		sign = 1
	}
	t = AddMonthsClamped(t, sign*(span.Years*12+span.Months))
	if days := span.Weeks*daysPerWeek + span.Days; days != 0 {
		t = t.AddDate(0, 0, sign*days)
	}
	if span.Hours == 0 && span.Minutes == 0 && span.Seconds == 0 {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(),
		t.Hour()+sign*span.Hours,
		t.Minute()+sign*span.Minutes,
		t.Second()+sign*span.Seconds,
		t.Nanosecond(), t.Location())
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}
