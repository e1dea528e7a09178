package timex

import (
	"time"

	"github.com/hrygo/timexkit/plugin/timex/calendar"
)

// DatePart holds the calendar fields of a date. Weekday holds a time.Weekday value.
type DatePart struct {
	Year        Field
	Month       Field
	Day         Field
	Weekday     Field
	WeekOfYear  Field
	WeekOfMonth Field
	Quarter     Field
	Season      calendar.Season
	Weekend     bool
	Relative    Relative
}

// TimePart holds the clock fields of a time of day.
type TimePart struct {
	Hour      Field
	Minute    Field
	Second    Field
	PartOfDay PartOfDay
	Meridiem  Meridiem
}

// DurationPart is an amount of time. Components are non-negative and independent.
type DurationPart struct {
	Years   int
	Months  int
	Weeks   int
	Days    int
	Hours   int
	Minutes int
	Seconds int
}

// IsZero reports whether every component is zero.
func (d DurationPart) IsZero() bool {
	return d == DurationPart{}
}

// Span converts the duration for calendar arithmetic.
func (d DurationPart) Span() calendar.Span {
	return calendar.Span{
		Years:   d.Years,
		Months:  d.Months,
		Weeks:   d.Weeks,
		Days:    d.Days,
		Hours:   d.Hours,
		Minutes: d.Minutes,
		Seconds: d.Seconds,
	}
}

// Granularity returns the finest non-zero component.
func (d DurationPart) Granularity() Granularity {
	switch {
	case d.Seconds > 0:
		return GranSecond
	case d.Minutes > 0:
		return GranMinute
	case d.Hours > 0:
		return GranHour
	case d.Days > 0:
		return GranDay
	case d.Weeks > 0:
		return GranWeek
	case d.Months > 0:
		return GranMonth
	case d.Years > 0:
		return GranYear
	}
	return GranSecond
}

// Expression is one immutable TIMEX value. Build it with the New* constructors or Parse;
// the zero value is not a valid expression.
type Expression struct {
	kind    Kind
	mod     Modifier
	present bool
	date    DatePart
	time    TimePart
	dur     DurationPart

	// range endpoints; exactly one of end and hasSpan is used
	start   *Expression
	end     *Expression
	hasSpan bool
}

// NewDate builds a date expression.
func NewDate(d DatePart) (Expression, error) {
	if err := validateDate(d); err != nil {
		return Expression{}, err
	}
	return Expression{kind: KindDate, date: d}, nil
}

// NewTime builds a time-of-day expression.
func NewTime(t TimePart) (Expression, error) {
	if err := validateTime(t); err != nil {
		return Expression{}, err
	}
	return Expression{kind: KindTime, time: t}, nil
}

// NewDateTime builds a date with a time of day.
func NewDateTime(d DatePart, t TimePart) (Expression, error) {
	if err := validateDate(d); err != nil {
		return Expression{}, err
	}
	if err := validateTime(t); err != nil {
		return Expression{}, err
	}
	return Expression{kind: KindDateTime, date: d, time: t}, nil
}

// NewDuration builds a duration expression.
func NewDuration(d DurationPart) (Expression, error) {
	if err := validateDuration(d); err != nil {
		return Expression{}, err
	}
	return Expression{kind: KindDuration, dur: d}, nil
}

// Present is the reference instant itself (PRESENT_REF).
func Present() Expression {
	return Expression{kind: KindDateTime, present: true}
}

// NewRangeEnd builds a range from two point expressions.
func NewRangeEnd(start, end Expression) (Expression, error) {
	if err := validateEndpoint(start); err != nil {
		return Expression{}, err
	}
	if err := validateEndpoint(end); err != nil {
		return Expression{}, err
	}
	return Expression{kind: KindRange, start: &start, end: &end}, nil
}

// NewRangeSpan builds a range from a start point and a duration.
func NewRangeSpan(start, span Expression) (Expression, error) {
	if err := validateEndpoint(start); err != nil {
		return Expression{}, err
	}
	if span.kind != KindDuration || span.mod != ModNone {
		return Expression{}, Malformed("range span must be an unmodified duration, got %s", span.kind)
	}
	return Expression{kind: KindRange, start: &start, dur: span.dur, hasSpan: true}, nil
}

// WithModifier returns a copy of e carrying m.
func (e Expression) WithModifier(m Modifier) Expression {
	e.mod = m
	return e
}

// Kind returns the expression's shape.
func (e Expression) Kind() Kind { return e.kind }

// Modifier returns the attached modifier, ModNone if there is none.
func (e Expression) Modifier() Modifier { return e.mod }

// IsPresent reports whether e is PRESENT_REF.
func (e Expression) IsPresent() bool { return e.present }

// IsValid reports whether e was built by a constructor.
func (e Expression) IsValid() bool { return e.kind != 0 }

// Date returns the date fields of a date or datetime expression.
func (e Expression) Date() (DatePart, bool) {
	if e.present || (e.kind != KindDate && e.kind != KindDateTime) {
		return DatePart{}, false
	}
	return e.date, true
}

// Time returns the clock fields of a time or datetime expression.
func (e Expression) Time() (TimePart, bool) {
	if e.present || (e.kind != KindTime && e.kind != KindDateTime) {
		return TimePart{}, false
	}
	return e.time, true
}

// Duration returns the components of a duration expression.
func (e Expression) Duration() (DurationPart, bool) {
	if e.kind != KindDuration {
		return DurationPart{}, false
	}
	return e.dur, true
}

// Start returns the start point of a range.
func (e Expression) Start() (Expression, bool) {
	if e.kind != KindRange {
		return Expression{}, false
	}
	return *e.start, true
}

// End returns the explicit end point of a range.
func (e Expression) End() (Expression, bool) {
	if e.kind != KindRange || e.end == nil {
		return Expression{}, false
	}
	return *e.end, true
}

// Span returns the duration of a start+duration range.
func (e Expression) Span() (DurationPart, bool) {
	if e.kind != KindRange || !e.hasSpan {
		return DurationPart{}, false
	}
	return e.dur, true
}

// Equal reports structural equality.
func (e Expression) Equal(o Expression) bool {
	if e.kind != o.kind || e.mod != o.mod || e.present != o.present || e.hasSpan != o.hasSpan {
		return false
	}
	if e.date != o.date || e.time != o.time || e.dur != o.dur {
		return false
	}
	if e.kind != KindRange {
		return true
	}
	if !e.start.Equal(*o.start) {
		return false
	}
	if e.hasSpan {
		return true
	}
	return e.end.Equal(*o.end)
}

// Granularity returns the most specific unit the expression pins down.
// Ranges report the granularity of their start.
func (e Expression) Granularity() Granularity {
	switch {
	case e.present:
		return GranSecond
	case e.kind == KindDate:
		return e.date.Granularity()
	case e.kind == KindTime || e.kind == KindDateTime:
		return e.time.Granularity()
	case e.kind == KindDuration:
		return e.dur.Granularity()
	case e.kind == KindRange:
		return e.start.Granularity()
	}
	return GranUnknown
}

// Granularity returns the finest unit the date fields pin down.
func (d DatePart) Granularity() Granularity {
	if d.Relative.IsSet() {
		switch d.Relative.Unit {
		case UnitDay:
			return GranDay
		case UnitWeek:
			if d.Weekday.IsSet() {
				return GranDay
			}
			return GranWeek
		case UnitWeekend:
			return GranWeekend
		case UnitMonth:
			return GranMonth
		case UnitQuarter:
			return GranQuarter
		}
		return GranYear
	}
	switch {
	case d.Day.IsSet() || d.Weekday.IsSet():
		return GranDay
	case d.Weekend:
		return GranWeekend
	case d.WeekOfYear.IsSet() || d.WeekOfMonth.IsSet():
		return GranWeek
	case d.Month.IsSet():
		return GranMonth
	case d.Quarter.IsSet():
		return GranQuarter
	case d.Season != 0:
		return GranSeason
	}
	return GranYear
}

// Granularity returns the finest unit the clock fields pin down.
func (t TimePart) Granularity() Granularity {
	switch {
	case t.Second.IsSet():
		return GranSecond
	case t.Minute.IsSet():
		return GranMinute
	case t.Hour.IsSet():
		return GranHour
	}
	return GranPartOfDay
}

// DayOfWeek returns the weekday field as a time.Weekday.
func (d DatePart) DayOfWeek() (time.Weekday, bool) {
	n, ok := d.Weekday.Get()
	return time.Weekday(n), ok
}

// IsDefinite reports whether the date pins down a single calendar period without a
// reference: it is absolute and the year is known.
func (d DatePart) IsDefinite() bool {
	if d.Relative.IsSet() || !d.Year.IsSet() {
		return false
	}
	if (d.Weekday.IsSet() || d.Weekend) && !d.WeekOfYear.IsSet() && !d.WeekOfMonth.IsSet() {
		return false
	}
	return true
}

func validateDate(d DatePart) error {
	switch {
	case !d.Year.inRange(0, 9999):
		return Malformed("year %d out of range", d.Year.v)
	case !d.Month.inRange(1, 12):
		return Malformed("month %d out of range", d.Month.v)
	case !d.Day.inRange(1, 31):
		return Malformed("day %d out of range", d.Day.v)
	case !d.Weekday.inRange(0, 6):
		return Malformed("weekday %d out of range", d.Weekday.v)
	case !d.WeekOfYear.inRange(1, 53):
		return Malformed("week of year %d out of range", d.WeekOfYear.v)
	case !d.WeekOfMonth.inRange(1, 6):
		return Malformed("week of month %d out of range", d.WeekOfMonth.v)
	case !d.Quarter.inRange(1, 4):
		return Malformed("quarter %d out of range", d.Quarter.v)
	case d.Season < 0 || d.Season > calendar.Winter:
		return Malformed("unknown season %d", int(d.Season))
	}

	if d.Relative.IsSet() {
		if _, ok := unitTokens[d.Relative.Unit]; !ok {
			return Malformed("unknown relative unit %d", int(d.Relative.Unit))
		}
		if d.Relative.Offset > MaxComponent || d.Relative.Offset < -MaxComponent {
			return Malformed("relative offset %d exceeds %d", d.Relative.Offset, MaxComponent)
		}
		if d.Year.IsSet() || d.Month.IsSet() || d.Day.IsSet() || d.WeekOfYear.IsSet() ||
			d.WeekOfMonth.IsSet() || d.Quarter.IsSet() || d.Season != 0 || d.Weekend {
			return Malformed("relative date cannot carry calendar fields")
		}
		if d.Weekday.IsSet() && d.Relative.Unit != UnitWeek {
			return Malformed("weekday on a relative date requires unit W")
		}
		return nil
	}

	hasWeekday := d.Weekday.IsSet()
	switch {
	case hasWeekday && d.Day.IsSet():
		return Malformed("day of week conflicts with day of month")
	case d.Weekend && hasWeekday:
		return Malformed("weekend conflicts with day of week")
	case d.Weekend && d.Day.IsSet():
		return Malformed("weekend conflicts with day of month")
	case d.WeekOfYear.IsSet() && (d.Month.IsSet() || d.Day.IsSet() || d.Quarter.IsSet() || d.Season != 0 || d.WeekOfMonth.IsSet()):
		return Malformed("week of year cannot be combined with month, day, quarter or season")
	case d.WeekOfMonth.IsSet() && !d.Month.IsSet():
		return Malformed("week of month requires a month")
	case d.WeekOfMonth.IsSet() && d.Day.IsSet():
		return Malformed("week of month conflicts with day of month")
	case d.Quarter.IsSet() && d.Season != 0:
		return Malformed("quarter conflicts with season")
	case (d.Quarter.IsSet() || d.Season != 0) && (d.Month.IsSet() || d.Day.IsSet() || d.WeekOfYear.IsSet() || hasWeekday || d.Weekend):
		return Malformed("quarter and season cannot be combined with month, week or day")
	case (hasWeekday || d.Weekend) && d.Month.IsSet() && !d.WeekOfMonth.IsSet():
		return Malformed("day of week within a month requires a week of month")
	case d.Day.IsSet() && !d.Month.IsSet() && d.Year.IsSet():
		return Malformed("day of month without month requires an unspecified year")
	case d == (DatePart{}):
		return Malformed("empty date")
	}
	return nil
}

func validateTime(t TimePart) error {
	switch {
	case !t.Hour.inRange(0, 23):
		return Malformed("hour %d out of range", t.Hour.v)
	case !t.Minute.inRange(0, 59):
		return Malformed("minute %d out of range", t.Minute.v)
	case !t.Second.inRange(0, 59):
		return Malformed("second %d out of range", t.Second.v)
	case t.PartOfDay < PartNone || t.PartOfDay > Daytime:
		return Malformed("unknown part of day %d", int(t.PartOfDay))
	case t.Meridiem < MeridiemNone || t.Meridiem > PM:
		return Malformed("unknown meridiem %d", int(t.Meridiem))
	case t.Minute.IsSet() && !t.Hour.IsSet():
		return Malformed("minute requires an hour")
	case t.Second.IsSet() && !t.Minute.IsSet():
		return Malformed("second requires a minute")
	case t.PartOfDay != PartNone && (t.Hour.IsSet() || t.Meridiem != MeridiemNone):
		return Malformed("part of day conflicts with clock time")
	case t.PartOfDay == PartNone && !t.Hour.IsSet():
		return Malformed("empty time")
	case t.Meridiem != MeridiemNone && !t.Hour.inRange(1, 12):
		return Malformed("%s requires an hour between 1 and 12", t.Meridiem)
	}
	return nil
}

// MaxComponent is the largest duration component or relative offset the grammar can spell.
const MaxComponent = 999_999_999

func validateDuration(d DurationPart) error {
	for _, v := range []int{d.Years, d.Months, d.Weeks, d.Days, d.Hours, d.Minutes, d.Seconds} {
		if v < 0 {
			return Malformed("duration components must be non-negative")
		}
		if v > MaxComponent {
			return Malformed("duration component %d exceeds %d", v, MaxComponent)
		}
	}
	return nil
}

func validateEndpoint(e Expression) error {
	switch {
	case e.kind != KindDate && e.kind != KindTime && e.kind != KindDateTime:
		return Malformed("range endpoint must be a date or time, got %s", e.kind)
	case e.mod != ModNone:
		return Malformed("range endpoint cannot carry a modifier")
	}
	return nil
}
