package resolver

import (
	"math"
	"time"

	"github.com/hrygo/timexkit/plugin/timex"
	"github.com/hrygo/timexkit/plugin/timex/calendar"
)

const (
	// cycles probed in each direction; Feb 29 and ISO week 53 recur within 8 years
	searchLimit = 16
	// occurrences returned for one expression inside a reference range
	maxEnumerated = 64
)

// period is a resolved calendar span before it becomes a Resolution.
type period struct {
	start, end time.Time
	gran       timex.Granularity
}

func (p period) resolution(src timex.Expression) Resolution {
	kind := Range
	switch p.gran {
	case timex.GranDay, timex.GranHour, timex.GranMinute, timex.GranSecond:
		kind = Instant
	}
	return Resolution{Kind: kind, Start: p.start, End: p.end, Granularity: p.gran, Source: src}
}

// plan is how a point expression resolves: either one fixed period or a cycle of
// occurrences.
type plan struct {
	fixed *period
	cyc   *cycle
}

// cycle enumerates the occurrences of a partially specified date. Index i names one
// year, month or week; at(i) is the occurrence in it, if any. Occurrences increase with i.
type cycle struct {
	index  func(time.Time) int
	at     func(int) (period, bool)
	lo, hi int
}

// past returns the latest occurrence starting at or before ref.
func (c cycle) past(ref time.Time) (period, bool) {
	top := min(c.index(ref)+1, c.hi)
	for i := top; i >= c.lo && i > top-searchLimit; i-- {
		if p, ok := c.at(i); ok && !p.start.After(ref) {
			return p, true
		}
	}
	return period{}, false
}

// future returns the earliest occurrence starting after ref.
func (c cycle) future(ref time.Time) (period, bool) {
	bottom := max(c.index(ref)-1, c.lo)
	for i := bottom; i <= c.hi && i < bottom+searchLimit; i++ {
		if p, ok := c.at(i); ok && p.start.After(ref) {
			return p, true
		}
	}
	return period{}, false
}

// atOrAfter returns the earliest occurrence starting at or after t.
func (c cycle) atOrAfter(t time.Time) (period, bool) {
	return c.future(t.Add(-time.Nanosecond))
}

// within returns the occurrences starting inside span, chronologically.
func (c cycle) within(span Span) ([]period, error) {
	var out []period
	from := max(c.index(span.Start)-1, c.lo)
	to := min(c.index(span.End)+1, c.hi)
	for i := from; i <= to; i++ {
		p, ok := c.at(i)
		if !ok || !span.Contains(p.start) {
			continue
		}
		if len(out) == maxEnumerated {
			return nil, timex.Unsupported("more than %d occurrences inside the reference range", maxEnumerated)
		}
		out = append(out, p)
	}
	return out, nil
}

// planPoint decides how a date, time, datetime or PRESENT_REF resolves. ref supplies the
// day of time-only expressions and the instant of PRESENT_REF; anchor is where relative
// dates count from.
func planPoint(e timex.Expression, ref, anchor time.Time) (plan, error) {
	if e.IsPresent() {
		return plan{fixed: &period{start: ref, end: ref.Add(time.Second), gran: timex.GranSecond}}, nil
	}

	tp, hasTime := e.Time()
	d, hasDate := e.Date()
	if !hasDate {
		day := period{start: calendar.StartOfDay(ref), gran: timex.GranDay}
		p, err := applyTime(day, tp)
		if err != nil {
			return plan{}, err
		}
		return plan{fixed: &p}, nil
	}

	if err := timex.CheckCalendar(d); err != nil {
		return plan{}, err
	}

	finish := func(p period) (period, error) {
		if !hasTime {
			return p, nil
		}
		return applyTime(p, tp)
	}
	if hasTime && d.Granularity() != timex.GranDay {
		return plan{}, timex.Unsupported("time of day on a %s", d.Granularity())
	}

	if d.Relative.IsSet() {
		p, err := finish(relativePeriod(d, anchor))
		if err != nil {
			return plan{}, err
		}
		return plan{fixed: &p}, nil
	}

	loc := ref.Location()
	if d.IsDefinite() {
		y, _ := d.Year.Get()
		p, ok := periodInYear(d, y, loc)
		if !ok {
			return plan{}, timex.InvalidDate("%s does not exist", e)
		}
		p, err := finish(p)
		if err != nil {
			return plan{}, err
		}
		return plan{fixed: &p}, nil
	}

	c := occurrenceCycle(d, loc)
	if hasTime {
		at := c.at
		c.at = func(i int) (period, bool) {
			p, ok := at(i)
			if !ok {
				return p, false
			}
			p, err := applyTime(p, tp)
			return p, err == nil
		}
	}
	return plan{cyc: &c}, nil
}

// applyTime narrows a day to a clock reading or part of day.
func applyTime(day period, tp timex.TimePart) (period, error) {
	if day.gran != timex.GranDay {
		return period{}, timex.Unsupported("time of day on a %s", day.gran)
	}
	s := day.start
	if tp.PartOfDay != timex.PartNone {
		from, to := tp.PartOfDay.Hours()
		return period{
			start: time.Date(s.Year(), s.Month(), s.Day(), from, 0, 0, 0, s.Location()),
			end:   time.Date(s.Year(), s.Month(), s.Day(), to, 0, 0, 0, s.Location()),
			gran:  timex.GranPartOfDay,
		}, nil
	}

	h := tp.Hour.Or(0)
	switch tp.Meridiem {
	case timex.AM:
		h %= 12
	case timex.PM:
		h = h%12 + 12
	}
	start := time.Date(s.Year(), s.Month(), s.Day(), h, tp.Minute.Or(0), tp.Second.Or(0), 0, s.Location())
	var (
		unit calendar.Span
		gran timex.Granularity
	)
	switch {
	case tp.Second.IsSet():
		unit, gran = calendar.Span{Seconds: 1}, timex.GranSecond
	case tp.Minute.IsSet():
		unit, gran = calendar.Span{Minutes: 1}, timex.GranMinute
	default:
		unit, gran = calendar.Span{Hours: 1}, timex.GranHour
	}
	return period{start: start, end: calendar.Add(start, unit, 1), gran: gran}, nil
}

func relativePeriod(d timex.DatePart, anchor time.Time) period {
	n := d.Relative.Offset
	switch d.Relative.Unit {
	case timex.UnitDay:
		day := calendar.StartOfDay(anchor).AddDate(0, 0, n)
		return period{start: day, end: day.AddDate(0, 0, 1), gran: timex.GranDay}
	case timex.UnitWeek:
		monday := calendar.StartOfWeek(anchor).AddDate(0, 0, 7*n)
		if wd, ok := d.DayOfWeek(); ok {
			return dayInWeek(monday, wd)
		}
		return period{start: monday, end: monday.AddDate(0, 0, 7), gran: timex.GranWeek}
	case timex.UnitWeekend:
		monday := calendar.StartOfWeek(anchor).AddDate(0, 0, 7*n)
		return weekendOf(monday)
	case timex.UnitMonth:
		start := calendar.StartOfMonth(anchor).AddDate(0, n, 0)
		return period{start: start, end: start.AddDate(0, 1, 0), gran: timex.GranMonth}
	case timex.UnitQuarter:
		start := calendar.QuarterStart(anchor.Year(), calendar.QuarterOf(anchor.Month()), anchor.Location()).AddDate(0, 3*n, 0)
		return period{start: start, end: start.AddDate(0, 3, 0), gran: timex.GranQuarter}
	}
	start := calendar.StartOfYear(anchor).AddDate(n, 0, 0)
	return period{start: start, end: start.AddDate(1, 0, 0), gran: timex.GranYear}
}

func dayInWeek(monday time.Time, wd time.Weekday) period {
	day := monday.AddDate(0, 0, calendar.ISOWeekday(wd)-1)
	return period{start: day, end: day.AddDate(0, 0, 1), gran: timex.GranDay}
}

func weekendOf(monday time.Time) period {
	sat := calendar.WeekendStart(monday)
	return period{start: sat, end: sat.AddDate(0, 0, 2), gran: timex.GranWeekend}
}

// week narrows a Monday-start week to the day or weekend the date names.
func week(monday time.Time, d timex.DatePart) period {
	if wd, ok := d.DayOfWeek(); ok {
		return dayInWeek(monday, wd)
	}
	if d.Weekend {
		return weekendOf(monday)
	}
	return period{start: monday, end: monday.AddDate(0, 0, 7), gran: timex.GranWeek}
}

// periodInYear builds the period a date names once its year is known. ok is false when
// the date does not exist in that year.
func periodInYear(d timex.DatePart, year int, loc *time.Location) (period, bool) {
	switch {
	case d.WeekOfYear.IsSet():
		monday, ok := calendar.ISOWeekStart(year, d.WeekOfYear.Or(0), loc)
		if !ok {
			return period{}, false
		}
		return week(monday, d), true
	case d.Quarter.IsSet():
		start := calendar.QuarterStart(year, d.Quarter.Or(0), loc)
		return period{start: start, end: start.AddDate(0, 3, 0), gran: timex.GranQuarter}, true
	case d.Season != 0:
		start, end := calendar.SeasonBounds(year, d.Season, loc)
		return period{start: start, end: end, gran: timex.GranSeason}, true
	case d.Month.IsSet():
		month := time.Month(d.Month.Or(0))
		if n, ok := d.WeekOfMonth.Get(); ok {
			monday, ok := calendar.WeekOfMonthStart(year, month, n, loc)
			if !ok {
				return period{}, false
			}
			return week(monday, d), true
		}
		if day, ok := d.Day.Get(); ok {
			if !calendar.ValidDate(year, month, day) {
				return period{}, false
			}
			start := calendar.Date(year, month, day, loc)
			return period{start: start, end: start.AddDate(0, 0, 1), gran: timex.GranDay}, true
		}
		start := calendar.Date(year, month, 1, loc)
		return period{start: start, end: start.AddDate(0, 1, 0), gran: timex.GranMonth}, true
	}
	start := calendar.Date(year, time.January, 1, loc)
	return period{start: start, end: start.AddDate(1, 0, 0), gran: timex.GranYear}, true
}

// occurrenceCycle picks the cycle of a date that is missing its year: a yearly cycle
// when the month, quarter, season or ISO week is known, a monthly cycle for a bare day
// of month, and a weekly cycle for a bare weekday or weekend.
func occurrenceCycle(d timex.DatePart, loc *time.Location) cycle {
	unbounded := cycle{lo: math.MinInt, hi: math.MaxInt}

	switch {
	case d.Month.IsSet() || d.Quarter.IsSet() || d.Season != 0 || d.WeekOfYear.IsSet():
		c := unbounded
		c.index = func(t time.Time) int { return t.Year() }
		if d.WeekOfYear.IsSet() {
			c.index = func(t time.Time) int {
				y, _ := t.ISOWeek()
				return y
			}
		}
		c.at = func(y int) (period, bool) { return periodInYear(d, y, loc) }
		return c

	case d.Day.IsSet():
		day := d.Day.Or(0)
		c := unbounded
		c.index = func(t time.Time) int { return t.Year()*12 + int(t.Month()) - 1 }
		c.at = func(i int) (period, bool) {
			y, m := floorDiv(i, 12), time.Month(floorMod(i, 12)+1)
			if !calendar.ValidDate(y, m, day) {
				return period{}, false
			}
			start := calendar.Date(y, m, day, loc)
			return period{start: start, end: start.AddDate(0, 0, 1), gran: timex.GranDay}, true
		}
		return c
	}

	c := unbounded
	c.index = weekIndex
	c.at = func(i int) (period, bool) { return week(mondayOf(i, loc), d), true }
	if y, ok := d.Year.Get(); ok {
		c.lo = weekIndex(calendar.Date(y, time.January, 1, loc))
		c.hi = weekIndex(calendar.Date(y, time.December, 31, loc))
		at := c.at
		c.at = func(i int) (period, bool) {
			p, _ := at(i)
			return p, p.start.Year() == y
		}
	}
	return c
}

// epochMonday is 1970-01-05, the first Monday of the Unix epoch, in days since epoch.
const epochMonday = 4

func daysSinceEpoch(t time.Time) int {
	civil := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return int(floorDiv64(civil.Unix(), 86400))
}

// weekIndex numbers Monday-start weeks from the epoch.
func weekIndex(t time.Time) int {
	return floorDiv(daysSinceEpoch(t)-epochMonday, 7)
}

func mondayOf(i int, loc *time.Location) time.Time {
	civil := time.Unix(int64(epochMonday+7*i)*86400, 0).UTC()
	return calendar.Date(civil.Year(), civil.Month(), civil.Day(), loc)
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}

func floorDiv64(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
