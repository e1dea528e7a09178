package timex

// Field is an optional integer. The zero value is unset.
type Field struct {
	v  int
	ok bool
}

// Val returns a set Field holding n.
func Val(n int) Field {
	return Field{v: n, ok: true}
}

// Get returns the value and whether it is set.
func (f Field) Get() (int, bool) {
	return f.v, f.ok
}

// IsSet reports whether the field holds a value.
func (f Field) IsSet() bool {
	return f.ok
}

// Or returns the value, or def when unset.
func (f Field) Or(def int) int {
	if !f.ok {
		return def
	}
	return f.v
}

func (f Field) inRange(lo, hi int) bool {
	return !f.ok || (f.v >= lo && f.v <= hi)
}

// merge returns the union of two fields, failing when both are set and disagree.
func (f Field) merge(o Field) (Field, bool) {
	switch {
	case !f.ok:
		return o, true
	case !o.ok:
		return f, true
	case f.v == o.v:
		return f, true
	}
	return Field{}, false
}

// Kind is the shape of an expression.
type Kind int

const (
	KindDate Kind = iota + 1
	KindTime
	KindDateTime
	KindDuration
	KindRange
)

func (k Kind) String() string {
	switch k {
	case KindDate:
		return "date"
	case KindTime:
		return "time"
	case KindDateTime:
		return "datetime"
	case KindDuration:
		return "duration"
	case KindRange:
		return "range"
	}
	return "invalid"
}

// Modifier is a qualifier attached by surrounding text ("before", "around", ...).
type Modifier int

const (
	ModNone Modifier = iota
	ModBefore
	ModAfter
	ModOnOrBefore
	ModOnOrAfter
	ModApprox
)

var modifierNames = map[Modifier]string{
	ModNone:       "",
	ModBefore:     "before",
	ModAfter:      "after",
	ModOnOrBefore: "on_or_before",
	ModOnOrAfter:  "on_or_after",
	ModApprox:     "approx",
}

var modifierPrefixes = map[Modifier]string{
	ModBefore:     "<",
	ModAfter:      ">",
	ModOnOrBefore: "<=",
	ModOnOrAfter:  ">=",
	ModApprox:     "~",
}

func (m Modifier) String() string {
	return modifierNames[m]
}

// Prefix returns the grammar prefix of the modifier.
func (m Modifier) Prefix() string {
	return modifierPrefixes[m]
}

// Directional reports whether the modifier turns a point into an open-ended range.
func (m Modifier) Directional() bool {
	switch m {
	case ModBefore, ModAfter, ModOnOrBefore, ModOnOrAfter:
		return true
	}
	return false
}

// ParseModifier accepts a modifier name as returned by String.
func ParseModifier(name string) (Modifier, bool) {
	for m, n := range modifierNames {
		if n == name {
			return m, true
		}
	}
	return ModNone, false
}

// Granularity is the most specific unit an expression pins down, coarse to fine.
type Granularity int

const (
	GranUnknown Granularity = iota
	GranYear
	GranSeason
	GranQuarter
	GranMonth
	GranWeek
	GranWeekend
	GranDay
	GranPartOfDay
	GranHour
	GranMinute
	GranSecond
)

func (g Granularity) String() string {
	switch g {
	case GranYear:
		return "year"
	case GranSeason:
		return "season"
	case GranQuarter:
		return "quarter"
	case GranMonth:
		return "month"
	case GranWeek:
		return "week"
	case GranWeekend:
		return "weekend"
	case GranDay:
		return "day"
	case GranPartOfDay:
		return "part_of_day"
	case GranHour:
		return "hour"
	case GranMinute:
		return "minute"
	case GranSecond:
		return "second"
	}
	return "unknown"
}

// PartOfDay is a named slice of a day.
type PartOfDay int

const (
	PartNone PartOfDay = iota
	Morning
	Afternoon
	Evening
	Night
	Daytime
)

var partTokens = map[PartOfDay]string{
	Morning:   "MO",
	Afternoon: "AF",
	Evening:   "EV",
	Night:     "NI",
	Daytime:   "DT",
}

func (p PartOfDay) String() string {
	return partTokens[p]
}

// Hours returns the [from, to) hours of day the part covers.
func (p PartOfDay) Hours() (int, int) {
	switch p {
	case Morning:
		return 8, 12
	case Afternoon:
		return 12, 16
	case Evening:
		return 16, 20
	case Night:
		return 20, 24
	case Daytime:
		return 8, 18
	}
	return 0, 0
}

func parsePartOfDay(token string) (PartOfDay, bool) {
	for p, t := range partTokens {
		if t == token {
			return p, true
		}
	}
	return PartNone, false
}

// Meridiem is an AM/PM marker on a 12-hour clock reading.
type Meridiem int

const (
	MeridiemNone Meridiem = iota
	AM
	PM
)

func (m Meridiem) String() string {
	switch m {
	case AM:
		return "AM"
	case PM:
		return "PM"
	}
	return ""
}

// Unit is the step of a relative date.
type Unit int

const (
	UnitNone Unit = iota
	UnitDay
	UnitWeek
	UnitWeekend
	UnitMonth
	UnitQuarter
	UnitYear
)

var unitTokens = map[Unit]string{
	UnitDay:     "D",
	UnitWeek:    "W",
	UnitWeekend: "WE",
	UnitMonth:   "M",
	UnitQuarter: "Q",
	UnitYear:    "Y",
}

func (u Unit) String() string {
	return unitTokens[u]
}

// Relative is an offset of whole units from the reference: REF+1W is next week.
type Relative struct {
	Unit   Unit
	Offset int
}

// IsSet reports whether the date is relative.
func (r Relative) IsSet() bool {
	return r.Unit != UnitNone
}
