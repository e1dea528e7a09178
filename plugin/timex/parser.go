package timex

import (
	"strings"

	"github.com/hrygo/timexkit/plugin/timex/calendar"
)

const presentToken = "PRESENT_REF"

// Parse decodes one TIMEX string. Grammar violations and invalid field combinations are
// MALFORMED_EXPRESSION errors; two stacked modifiers are UNSUPPORTED_COMBINATION.
func Parse(text string) (Expression, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Expression{}, Malformed("empty expression")
	}

	mod, rest := splitModifier(text)
	if mod != ModNone {
		if next, _ := splitModifier(rest); next != ModNone {
			return Expression{}, Unsupported("contradictory modifiers in %q", text)
		}
	}

	var (
		e   Expression
		err error
	)
	switch {
	case strings.HasPrefix(rest, "("):
		e, err = parseRange(rest)
	case strings.HasPrefix(rest, "P") && rest != presentToken:
		e, err = parseDuration(rest)
	default:
		e, err = parsePoint(rest)
	}
	if err != nil {
		return Expression{}, err
	}
	return e.WithModifier(mod), nil
}

// MustParse is Parse for literals known to be valid. It panics on error.
func MustParse(text string) Expression {
	e, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return e
}

func splitModifier(s string) (Modifier, string) {
	// two-character prefixes first
	for _, m := range []Modifier{ModOnOrBefore, ModOnOrAfter, ModBefore, ModAfter, ModApprox} {
		if p := m.Prefix(); strings.HasPrefix(s, p) {
			return m, s[len(p):]
		}
	}
	return ModNone, s
}

func parseRange(s string) (Expression, error) {
	if !strings.HasSuffix(s, ")") {
		return Expression{}, Malformed("unterminated range %q", s)
	}
	parts := strings.Split(s[1:len(s)-1], ",")
	if len(parts) < 2 || len(parts) > 3 {
		return Expression{}, Malformed("range %q needs two or three elements", s)
	}

	start, err := parsePoint(parts[0])
	if err != nil {
		return Expression{}, err
	}

	if len(parts) == 3 {
		// (start,end,duration): the duration is redundant with the end
		if _, err := parseDuration(parts[2]); err != nil {
			return Expression{}, err
		}
		end, err := parsePoint(parts[1])
		if err != nil {
			return Expression{}, err
		}
		return NewRangeEnd(start, end)
	}

	if strings.HasPrefix(parts[1], "P") && parts[1] != presentToken {
		span, err := parseDuration(parts[1])
		if err != nil {
			return Expression{}, err
		}
		return NewRangeSpan(start, span)
	}
	end, err := parsePoint(parts[1])
	if err != nil {
		return Expression{}, err
	}
	return NewRangeEnd(start, end)
}

func parseDuration(s string) (Expression, error) {
	sc := &scanner{src: s}
	if !sc.accept("P") {
		return Expression{}, Malformed("duration %q must start with P", s)
	}

	var (
		d     DurationPart
		count int
	)
	dateUnits := []struct {
		unit byte
		dst  *int
	}{{'Y', &d.Years}, {'M', &d.Months}, {'W', &d.Weeks}, {'D', &d.Days}}
	timeUnits := []struct {
		unit byte
		dst  *int
	}{{'H', &d.Hours}, {'M', &d.Minutes}, {'S', &d.Seconds}}

	next := 0
	for !sc.eof() && sc.peekByte() != 'T' {
		n, ok := sc.number()
		if !ok {
			return Expression{}, Malformed("bad duration component in %q", s)
		}
		u := sc.next()
		for next < len(dateUnits) && dateUnits[next].unit != u {
			next++
		}
		if next == len(dateUnits) {
			return Expression{}, Malformed("unexpected duration unit %q in %q", string(u), s)
		}
		*dateUnits[next].dst = n
		next++
		count++
	}

	if sc.accept("T") {
		next = 0
		timeCount := 0
		for !sc.eof() {
			n, ok := sc.number()
			if !ok {
				return Expression{}, Malformed("bad duration component in %q", s)
			}
			u := sc.next()
			for next < len(timeUnits) && timeUnits[next].unit != u {
				next++
			}
			if next == len(timeUnits) {
				return Expression{}, Malformed("unexpected duration unit %q in %q", string(u), s)
			}
			*timeUnits[next].dst = n
			next++
			timeCount++
		}
		if timeCount == 0 {
			return Expression{}, Malformed("empty time section in duration %q", s)
		}
		count += timeCount
	}

	if count == 0 {
		return Expression{}, Malformed("duration %q has no components", s)
	}
	return NewDuration(d)
}

// parsePoint parses a date, time, datetime or PRESENT_REF without modifier.
func parsePoint(s string) (Expression, error) {
	if s == presentToken {
		return Present(), nil
	}
	if s == "" {
		return Expression{}, Malformed("empty point")
	}
	if _, rest := splitModifier(s); rest != s {
		return Expression{}, Malformed("modifier not allowed inside %q", s)
	}

	sc := &scanner{src: s}
	if sc.peekByte() == 'T' {
		sc.next()
		t, err := parseTime(sc)
		if err != nil {
			return Expression{}, err
		}
		return NewTime(t)
	}

	d, err := parseDate(sc)
	if err != nil {
		return Expression{}, err
	}
	if sc.eof() {
		return NewDate(d)
	}
	if !sc.accept("T") {
		return Expression{}, Malformed("unexpected %q in %q", sc.rest(), s)
	}
	t, err := parseTime(sc)
	if err != nil {
		return Expression{}, err
	}
	return NewDateTime(d, t)
}

func parseDate(sc *scanner) (DatePart, error) {
	var d DatePart
	if sc.accept("REF") {
		return parseRelative(sc)
	}

	if !sc.accept("XXXX") {
		y, ok := sc.fixed(4)
		if !ok {
			return d, Malformed("bad year in %q", sc.src)
		}
		d.Year = Val(y)
	}
	if sc.eof() || sc.peekByte() == 'T' {
		return d, nil
	}
	if !sc.accept("-") {
		return d, Malformed("unexpected %q in %q", sc.rest(), sc.src)
	}

	// seasons first: WI would otherwise read as a week
	if len(sc.rest()) >= 2 {
		if s, ok := calendar.ParseSeason(sc.rest()[:2]); ok {
			sc.pos += 2
			d.Season = s
			return d, nil
		}
	}

	switch {
	case sc.accept("W"):
		if !sc.accept("XX") {
			w, ok := sc.fixed(2)
			if !ok {
				return d, Malformed("bad week in %q", sc.src)
			}
			d.WeekOfYear = Val(w)
		}
		if err := parseWeekDay(sc, &d); err != nil {
			return d, err
		}
		if !d.WeekOfYear.IsSet() && !d.Weekday.IsSet() && !d.Weekend {
			return d, Malformed("unspecified week needs a day in %q", sc.src)
		}
		return d, nil
	case sc.accept("Q"):
		q, ok := sc.fixed(1)
		if !ok {
			return d, Malformed("bad quarter in %q", sc.src)
		}
		d.Quarter = Val(q)
		return d, nil
	case sc.accept("XX"):
		if !sc.accept("-") {
			return d, Malformed("unspecified month needs a day in %q", sc.src)
		}
		day, ok := sc.fixed(2)
		if !ok {
			return d, Malformed("bad day in %q", sc.src)
		}
		d.Day = Val(day)
		return d, nil
	}

	m, ok := sc.fixed(2)
	if !ok {
		return d, Malformed("bad month in %q", sc.src)
	}
	d.Month = Val(m)
	if sc.eof() || sc.peekByte() == 'T' {
		return d, nil
	}
	if !sc.accept("-") {
		return d, Malformed("unexpected %q in %q", sc.rest(), sc.src)
	}
	if sc.accept("W") {
		w, ok := sc.number()
		if !ok {
			return d, Malformed("bad week of month in %q", sc.src)
		}
		d.WeekOfMonth = Val(w)
		return d, parseWeekDay(sc, &d)
	}
	day, ok := sc.fixed(2)
	if !ok {
		return d, Malformed("bad day in %q", sc.src)
	}
	d.Day = Val(day)
	return d, nil
}

// parseWeekDay reads an optional "-d" (ISO weekday) or "-WE" suffix.
func parseWeekDay(sc *scanner, d *DatePart) error {
	if !sc.accept("-") {
		return nil
	}
	if sc.accept("WE") {
		d.Weekend = true
		return nil
	}
	n, ok := sc.fixed(1)
	if !ok {
		return Malformed("bad day of week in %q", sc.src)
	}
	wd, ok := calendar.WeekdayFromISO(n)
	if !ok {
		return Malformed("day of week %d out of range", n)
	}
	d.Weekday = Val(int(wd))
	return nil
}

func parseRelative(sc *scanner) (DatePart, error) {
	var d DatePart
	sign := 1
	switch {
	case sc.accept("+"):
	case sc.accept("-"):
		sign = -1
	default:
		return d, Malformed("relative date needs a sign in %q", sc.src)
	}
	n, ok := sc.number()
	if !ok {
		return d, Malformed("bad relative offset in %q", sc.src)
	}

	// WE before W
	switch {
	case sc.accept("WE"):
		d.Relative.Unit = UnitWeekend
	case sc.accept("W"):
		d.Relative.Unit = UnitWeek
	case sc.accept("D"):
		d.Relative.Unit = UnitDay
	case sc.accept("M"):
		d.Relative.Unit = UnitMonth
	case sc.accept("Q"):
		d.Relative.Unit = UnitQuarter
	case sc.accept("Y"):
		d.Relative.Unit = UnitYear
	default:
		return d, Malformed("bad relative unit in %q", sc.src)
	}
	d.Relative.Offset = sign * n

	if sc.accept("-") {
		iso, ok := sc.fixed(1)
		if !ok {
			return d, Malformed("bad day of week in %q", sc.src)
		}
		wd, ok := calendar.WeekdayFromISO(iso)
		if !ok {
			return d, Malformed("day of week %d out of range", iso)
		}
		d.Weekday = Val(int(wd))
	}
	return d, nil
}

func parseTime(sc *scanner) (TimePart, error) {
	var t TimePart
	if len(sc.rest()) == 2 {
		if p, ok := parsePartOfDay(sc.rest()); ok {
			sc.pos += 2
			t.PartOfDay = p
			return t, nil
		}
	}

	h, ok := sc.fixed(2)
	if !ok {
		return t, Malformed("bad hour in %q", sc.src)
	}
	t.Hour = Val(h)
	if sc.accept(":") {
		m, ok := sc.fixed(2)
		if !ok {
			return t, Malformed("bad minute in %q", sc.src)
		}
		t.Minute = Val(m)
		if sc.accept(":") {
			s, ok := sc.fixed(2)
			if !ok {
				return t, Malformed("bad second in %q", sc.src)
			}
			t.Second = Val(s)
		}
	}
	switch {
	case sc.accept("AM"):
		t.Meridiem = AM
	case sc.accept("PM"):
		t.Meridiem = PM
	}
	if !sc.eof() {
		return t, Malformed("unexpected %q in %q", sc.rest(), sc.src)
	}
	return t, nil
}

type scanner struct {
	src string
	pos int
}

func (s *scanner) eof() bool { return s.pos >= len(s.src) }

func (s *scanner) rest() string { return s.src[s.pos:] }

func (s *scanner) peekByte() byte {
	if s.eof() {
		return 0
	}
	return s.src[s.pos]
}

func (s *scanner) next() byte {
	if s.eof() {
		return 0
	}
	b := s.src[s.pos]
	s.pos++
	return b
}

func (s *scanner) accept(prefix string) bool {
	if strings.HasPrefix(s.rest(), prefix) {
		s.pos += len(prefix)
		return true
	}
	return false
}

// fixed reads exactly n decimal digits.
func (s *scanner) fixed(n int) (int, bool) {
	if len(s.src)-s.pos < n {
		return 0, false
	}
	v := 0
	for i := 0; i < n; i++ {
		c := s.src[s.pos+i]
		if c < '0' || c > '9' {
			return 0, false
		}
		v = v*10 + int(c-'0')
	}
	s.pos += n
	return v, true
}

// number reads one or more decimal digits.
func (s *scanner) number() (int, bool) {
	start := s.pos
	v := 0
	for !s.eof() && s.src[s.pos] >= '0' && s.src[s.pos] <= '9' {
		if s.pos-start >= 9 {
			return 0, false
		}
		v = v*10 + int(s.src[s.pos]-'0')
		s.pos++
	}
	return v, s.pos > start
}
