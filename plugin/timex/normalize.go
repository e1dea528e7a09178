package timex

import (
	"time"

	"github.com/hrygo/timexkit/plugin/timex/calendar"
)

// Normalize returns the canonical form of e:
//   - durations fold weeks into days, seconds into minutes, minutes into hours and
//     months into years; hours are never folded into days
//   - 12-hour clock readings become 24-hour readings
//   - dates that cannot exist on the calendar fail with INVALID_CALENDAR_DATE
//
// Normalize is idempotent.
func Normalize(e Expression) (Expression, error) {
	if !e.IsValid() {
		return Expression{}, Malformed("invalid expression")
	}
	if e.present {
		return e, nil
	}
	switch e.kind {
	case KindDate, KindDateTime:
		if err := CheckCalendar(e.date); err != nil {
			return Expression{}, err
		}
		if e.kind == KindDateTime {
			e.time = normalizeTime(e.time)
		}
	case KindTime:
		e.time = normalizeTime(e.time)
	case KindDuration:
		e.dur = normalizeDuration(e.dur)
	case KindRange:
		start, err := Normalize(*e.start)
		if err != nil {
			return Expression{}, err
		}
		e.start = &start
		if e.hasSpan {
			e.dur = normalizeDuration(e.dur)
		} else {
			end, err := Normalize(*e.end)
			if err != nil {
				return Expression{}, err
			}
			e.end = &end
		}
	}
	return e, nil
}

func normalizeDuration(d DurationPart) DurationPart {
	d.Days += d.Weeks * 7
	d.Weeks = 0
	d.Minutes += d.Seconds / 60
	d.Seconds %= 60
	d.Hours += d.Minutes / 60
	d.Minutes %= 60
	d.Years += d.Months / 12
	d.Months %= 12
	return d
}

func normalizeTime(t TimePart) TimePart {
	if t.Meridiem == MeridiemNone {
		return t
	}
	h := t.Hour.v % 12
	if t.Meridiem == PM {
		h += 12
	}
	t.Hour = Val(h)
	t.Meridiem = MeridiemNone
	return t
}

// CheckCalendar rejects date fields that no calendar period satisfies.
func CheckCalendar(d DatePart) error {
	y, hasYear := d.Year.Get()
	m, hasMonth := d.Month.Get()
	day, hasDay := d.Day.Get()

	switch {
	case hasYear && hasMonth && hasDay:
		if !calendar.ValidDate(y, time.Month(m), day) {
			return InvalidDate("%04d-%02d-%02d does not exist", y, m, day)
		}
	case hasMonth && hasDay:
		if day > calendar.MaxDaysInMonth(time.Month(m)) {
			return InvalidDate("month %02d never has day %02d", m, day)
		}
	}

	if w, ok := d.WeekOfYear.Get(); ok && hasYear && w > calendar.ISOWeeksInYear(y) {
		return InvalidDate("%04d has no ISO week %02d", y, w)
	}
	if n, ok := d.WeekOfMonth.Get(); ok {
		if hasYear {
			if _, exists := calendar.WeekOfMonthStart(y, time.Month(m), n, time.UTC); !exists {
				return InvalidDate("%04d-%02d has no week %d", y, m, n)
			}
		} else if n > calendar.MaxWeeksInMonth(time.Month(m)) {
			return InvalidDate("month %02d never has week %d", m, n)
		}
	}
	return nil
}
