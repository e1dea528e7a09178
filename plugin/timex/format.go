package timex

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hrygo/timexkit/plugin/timex/calendar"
)

// String returns the canonical TIMEX text of e.
func (e Expression) String() string {
	return Serialize(e)
}

// Serialize returns the canonical TIMEX text. Parse(Serialize(e)) is equal to e for every
// constructed expression. The zero Expression serializes to "".
func Serialize(e Expression) string {
	if !e.IsValid() {
		return ""
	}
	var b strings.Builder
	b.WriteString(e.mod.Prefix())
	writeBody(&b, e)
	return b.String()
}

func writeBody(b *strings.Builder, e Expression) {
	switch {
	case e.present:
		b.WriteString(presentToken)
	case e.kind == KindDate:
		writeDate(b, e.date)
	case e.kind == KindTime:
		writeTime(b, e.time)
	case e.kind == KindDateTime:
		writeDate(b, e.date)
		writeTime(b, e.time)
	case e.kind == KindDuration:
		writeDuration(b, e.dur)
	case e.kind == KindRange:
		b.WriteByte('(')
		writeBody(b, *e.start)
		b.WriteByte(',')
		if e.hasSpan {
			writeDuration(b, e.dur)
		} else {
			writeBody(b, *e.end)
		}
		b.WriteByte(')')
	}
}

func writeDate(b *strings.Builder, d DatePart) {
	if d.Relative.IsSet() {
		b.WriteString("REF")
		if d.Relative.Offset < 0 {
			b.WriteByte('-')
			b.WriteString(strconv.Itoa(-d.Relative.Offset))
		} else {
			b.WriteByte('+')
			b.WriteString(strconv.Itoa(d.Relative.Offset))
		}
		b.WriteString(d.Relative.Unit.String())
		if wd, ok := d.Weekday.Get(); ok {
			fmt.Fprintf(b, "-%d", isoDay(wd))
		}
		return
	}

	if y, ok := d.Year.Get(); ok {
		fmt.Fprintf(b, "%04d", y)
	} else {
		b.WriteString("XXXX")
	}

	switch {
	case d.Quarter.IsSet():
		fmt.Fprintf(b, "-Q%d", d.Quarter.v)
	case d.Season != 0:
		b.WriteByte('-')
		b.WriteString(d.Season.String())
	case d.WeekOfMonth.IsSet():
		fmt.Fprintf(b, "-%02d-W%02d", d.Month.v, d.WeekOfMonth.v)
		writeWeekDay(b, d)
	case d.WeekOfYear.IsSet():
		fmt.Fprintf(b, "-W%02d", d.WeekOfYear.v)
		writeWeekDay(b, d)
	case d.Weekday.IsSet() || d.Weekend:
		b.WriteString("-WXX")
		writeWeekDay(b, d)
	case d.Day.IsSet():
		if m, ok := d.Month.Get(); ok {
			fmt.Fprintf(b, "-%02d", m)
		} else {
			b.WriteString("-XX")
		}
		fmt.Fprintf(b, "-%02d", d.Day.v)
	case d.Month.IsSet():
		fmt.Fprintf(b, "-%02d", d.Month.v)
	}
}

func writeWeekDay(b *strings.Builder, d DatePart) {
	switch {
	case d.Weekend:
		b.WriteString("-WE")
	case d.Weekday.IsSet():
		fmt.Fprintf(b, "-%d", isoDay(d.Weekday.v))
	}
}

func isoDay(wd int) int {
	return calendar.ISOWeekday(time.Weekday(wd))
}

func writeTime(b *strings.Builder, t TimePart) {
	b.WriteByte('T')
	if t.PartOfDay != PartNone {
		b.WriteString(t.PartOfDay.String())
		return
	}
	fmt.Fprintf(b, "%02d", t.Hour.v)
	if m, ok := t.Minute.Get(); ok {
		fmt.Fprintf(b, ":%02d", m)
	}
	if s, ok := t.Second.Get(); ok {
		fmt.Fprintf(b, ":%02d", s)
	}
	b.WriteString(t.Meridiem.String())
}

func writeDuration(b *strings.Builder, d DurationPart) {
	if d.IsZero() {
		b.WriteString("PT0S")
		return
	}
	b.WriteByte('P')
	for _, c := range []struct {
		n    int
		unit byte
	}{{d.Years, 'Y'}, {d.Months, 'M'}, {d.Weeks, 'W'}, {d.Days, 'D'}} {
		if c.n > 0 {
			b.WriteString(strconv.Itoa(c.n))
			b.WriteByte(c.unit)
		}
	}
	if d.Hours == 0 && d.Minutes == 0 && d.Seconds == 0 {
		return
	}
	b.WriteByte('T')
	for _, c := range []struct {
		n    int
		unit byte
	}{{d.Hours, 'H'}, {d.Minutes, 'M'}, {d.Seconds, 'S'}} {
		if c.n > 0 {
			b.WriteString(strconv.Itoa(c.n))
			b.WriteByte(c.unit)
		}
	}
}
