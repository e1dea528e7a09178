package timex

// Set is an ordered collection of alternative readings of one mention. All members share
// one Kind, there are no duplicates, and earlier members are preferred.
type Set struct {
	members []Expression
}

// NewSet builds a set from exprs in order, dropping duplicates.
func NewSet(exprs ...Expression) (Set, error) {
	var s Set
	for _, e := range exprs {
		if !e.IsValid() {
			return Set{}, Malformed("invalid expression in set")
		}
		if len(s.members) > 0 && s.members[0].kind != e.kind {
			return Set{}, Incompatible("cannot mix %s and %s in one set", s.members[0].kind, e.kind)
		}
		if !s.contains(e) {
			s.members = append(s.members, e)
		}
	}
	return s, nil
}

// ParseSet parses each text and collects the results into a Set.
func ParseSet(texts ...string) (Set, error) {
	exprs := make([]Expression, 0, len(texts))
	for _, t := range texts {
		e, err := Parse(t)
		if err != nil {
			return Set{}, err
		}
		exprs = append(exprs, e)
	}
	return NewSet(exprs...)
}

// Combine reconciles two readings of the same mention. When their fields agree the result
// holds the single merged expression; otherwise both survive in order.
func Combine(a, b Expression) (Set, error) {
	if a.kind != b.kind {
		return Set{}, Incompatible("cannot combine %s with %s", a.kind, b.kind)
	}
	if m, ok := merge(a, b); ok {
		return NewSet(m)
	}
	return NewSet(a, b)
}

// Union returns the members of s followed by the new members of o.
func (s Set) Union(o Set) (Set, error) {
	all := make([]Expression, 0, len(s.members)+len(o.members))
	all = append(all, s.members...)
	all = append(all, o.members...)
	return NewSet(all...)
}

// Intersect returns every successful pairwise merge of s and o, in s-major order.
func (s Set) Intersect(o Set) (Set, error) {
	if s.Len() > 0 && o.Len() > 0 && s.Kind() != o.Kind() {
		return Set{}, Incompatible("cannot intersect %s with %s", s.Kind(), o.Kind())
	}
	var out []Expression
	for _, a := range s.members {
		for _, b := range o.members {
			if m, ok := merge(a, b); ok {
				out = append(out, m)
			}
		}
	}
	return NewSet(out...)
}

// Members returns a copy of the members.
func (s Set) Members() []Expression {
	return append([]Expression(nil), s.members...)
}

// Len returns the number of members.
func (s Set) Len() int { return len(s.members) }

// At returns the i-th member.
func (s Set) At(i int) Expression { return s.members[i] }

// Kind returns the members' kind, or 0 for an empty set.
func (s Set) Kind() Kind {
	if len(s.members) == 0 {
		return 0
	}
	return s.members[0].kind
}

// Strings serializes every member.
func (s Set) Strings() []string {
	out := make([]string, len(s.members))
	for i, e := range s.members {
		out[i] = e.String()
	}
	return out
}

func (s Set) contains(e Expression) bool {
	for _, m := range s.members {
		if m.Equal(e) {
			return true
		}
	}
	return false
}

// merge unifies two expressions of the same kind field by field. It fails when any field
// is set on both sides with different values or the union breaks a model rule.
func merge(a, b Expression) (Expression, bool) {
	if a.kind != b.kind || a.present != b.present {
		return Expression{}, false
	}
	mod := a.mod
	switch {
	case mod == ModNone:
		mod = b.mod
	case b.mod != ModNone && b.mod != mod:
		return Expression{}, false
	}
	if a.present {
		return a.WithModifier(mod), true
	}

	var (
		out Expression
		err error
	)
	switch a.kind {
	case KindDate:
		d, ok := mergeDate(a.date, b.date)
		if !ok {
			return Expression{}, false
		}
		out, err = NewDate(d)
	case KindTime:
		t, ok := mergeTime(a.time, b.time)
		if !ok {
			return Expression{}, false
		}
		out, err = NewTime(t)
	case KindDateTime:
		d, ok := mergeDate(a.date, b.date)
		if !ok {
			return Expression{}, false
		}
		t, ok := mergeTime(a.time, b.time)
		if !ok {
			return Expression{}, false
		}
		out, err = NewDateTime(d, t)
	case KindDuration:
		d, ok := mergeDuration(a.dur, b.dur)
		if !ok {
			return Expression{}, false
		}
		out, err = NewDuration(d)
	case KindRange:
		out, err = mergeRange(a, b)
	default:
		return Expression{}, false
	}
	if err != nil {
		return Expression{}, false
	}
	return out.WithModifier(mod), true
}

func mergeDate(a, b DatePart) (DatePart, bool) {
	var (
		out DatePart
		ok  = true
	)
	fields := []struct {
		dst  *Field
		x, y Field
	}{
		{&out.Year, a.Year, b.Year},
		{&out.Month, a.Month, b.Month},
		{&out.Day, a.Day, b.Day},
		{&out.Weekday, a.Weekday, b.Weekday},
		{&out.WeekOfYear, a.WeekOfYear, b.WeekOfYear},
		{&out.WeekOfMonth, a.WeekOfMonth, b.WeekOfMonth},
		{&out.Quarter, a.Quarter, b.Quarter},
	}
	for _, f := range fields {
		var merged bool
		*f.dst, merged = f.x.merge(f.y)
		ok = ok && merged
	}

	switch {
	case a.Season == 0:
		out.Season = b.Season
	case b.Season == 0 || a.Season == b.Season:
		out.Season = a.Season
	default:
		ok = false
	}
	out.Weekend = a.Weekend || b.Weekend

	switch {
	case !a.Relative.IsSet():
		out.Relative = b.Relative
	case !b.Relative.IsSet() || a.Relative == b.Relative:
		out.Relative = a.Relative
	default:
		ok = false
	}
	return out, ok
}

func mergeTime(a, b TimePart) (TimePart, bool) {
	var (
		out TimePart
		ok  bool
		all = true
	)
	out.Hour, ok = a.Hour.merge(b.Hour)
	all = all && ok
	out.Minute, ok = a.Minute.merge(b.Minute)
	all = all && ok
	out.Second, ok = a.Second.merge(b.Second)
	all = all && ok

	switch {
	case a.PartOfDay == PartNone:
		out.PartOfDay = b.PartOfDay
	case b.PartOfDay == PartNone || a.PartOfDay == b.PartOfDay:
		out.PartOfDay = a.PartOfDay
	default:
		all = false
	}
	switch {
	case a.Meridiem == MeridiemNone:
		out.Meridiem = b.Meridiem
	case b.Meridiem == MeridiemNone || a.Meridiem == b.Meridiem:
		out.Meridiem = a.Meridiem
	default:
		all = false
	}
	return out, all
}

// mergeDuration treats zero components as unspecified.
func mergeDuration(a, b DurationPart) (DurationPart, bool) {
	pick := func(x, y int) (int, bool) {
		switch {
		case x == 0:
			return y, true
		case y == 0 || x == y:
			return x, true
		}
		return 0, false
	}
	var (
		out DurationPart
		ok  = true
	)
	for _, c := range []struct {
		dst  *int
		x, y int
	}{
		{&out.Years, a.Years, b.Years},
		{&out.Months, a.Months, b.Months},
		{&out.Weeks, a.Weeks, b.Weeks},
		{&out.Days, a.Days, b.Days},
		{&out.Hours, a.Hours, b.Hours},
		{&out.Minutes, a.Minutes, b.Minutes},
		{&out.Seconds, a.Seconds, b.Seconds},
	} {
		v, merged := pick(c.x, c.y)
		*c.dst = v
		ok = ok && merged
	}
	return out, ok
}

func mergeRange(a, b Expression) (Expression, error) {
	if a.hasSpan != b.hasSpan {
		return Expression{}, Incompatible("range shapes differ")
	}
	start, ok := merge(*a.start, *b.start)
	if !ok {
		return Expression{}, Incompatible("range starts disagree")
	}
	if a.hasSpan {
		d, ok := mergeDuration(a.dur, b.dur)
		if !ok {
			return Expression{}, Incompatible("range spans disagree")
		}
		span, err := NewDuration(d)
		if err != nil {
			return Expression{}, err
		}
		return NewRangeSpan(start, span)
	}
	end, ok := merge(*a.end, *b.end)
	if !ok {
		return Expression{}, Incompatible("range ends disagree")
	}
	return NewRangeEnd(start, end)
}
