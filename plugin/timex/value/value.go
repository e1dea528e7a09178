// Package value turns resolver results into the flat records returned to callers.
package value

import (
	"strconv"
	"strings"
	"time"

	"github.com/hrygo/timexkit/plugin/timex"
	"github.com/hrygo/timexkit/plugin/timex/resolver"
)

// Output layouts.
const (
	DateLayout     = "2006-01-02"
	TimeLayout     = "15:04:05"
	DateTimeLayout = "2006-01-02 15:04:05"
)

// Type tags.
const (
	TypeDate          = "date"
	TypeTime          = "time"
	TypeDateTime      = "datetime"
	TypeDateRange     = "daterange"
	TypeTimeRange     = "timerange"
	TypeDateTimeRange = "datetimerange"
	TypeDuration      = "duration"
)

// Record is one resolved value. Value is set for points and durations, Start and End for
// ranges; a side bounded only by the resolver horizon is left empty in the strings and
// kept in StartTime/EndTime.
type Record struct {
	Timex       string    `json:"timex" yaml:"timex"`
	Type        string    `json:"type" yaml:"type"`
	Value       string    `json:"value,omitempty" yaml:"value,omitempty"`
	Start       string    `json:"start,omitempty" yaml:"start,omitempty"`
	End         string    `json:"end,omitempty" yaml:"end,omitempty"`
	Mod         string    `json:"mod,omitempty" yaml:"mod,omitempty"`
	Approximate bool      `json:"approximate,omitempty" yaml:"approximate,omitempty"`
	IsAmbiguous bool      `json:"isAmbiguous" yaml:"isAmbiguous"`
	StartTime   time.Time `json:"-" yaml:"-"`
	EndTime     time.Time `json:"-" yaml:"-"`
}

// Records converts one resolver result. With single set only the preferred candidate is
// kept; IsAmbiguous still reports whether there were others.
func Records(res resolver.Result, single bool) []Record {
	ambiguous := res.Ambiguous()
	cands := res.Candidates
	if single && len(cands) > 1 {
		cands = cands[:1]
	}
	out := make([]Record, len(cands))
	for i, c := range cands {
		out[i] = record(c, ambiguous)
	}
	return out
}

// Resolve resolves e and converts the result.
func Resolve(e timex.Expression, ctx resolver.Context) ([]Record, error) {
	res, err := resolver.Resolve(e, ctx)
	if err != nil {
		return nil, err
	}
	return Records(res, ctx.SingleResult), nil
}

// ResolveText parses, resolves and converts text.
func ResolveText(text string, ctx resolver.Context) ([]Record, error) {
	e, err := timex.Parse(text)
	if err != nil {
		return nil, err
	}
	return Resolve(e, ctx)
}

// MemberError is the failure of one alternative of a set.
type MemberError struct {
	Timex string
	Err   error
}

// SetError lists the alternatives of a set that failed to resolve.
type SetError struct {
	Failed []MemberError
}

func (e *SetError) Error() string {
	parts := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		parts[i] = f.Timex + ": " + f.Err.Error()
	}
	return strings.Join(parts, "; ")
}

func (e *SetError) Unwrap() []error {
	errs := make([]error, len(e.Failed))
	for i, f := range e.Failed {
		errs[i] = f.Err
	}
	return errs
}

// ResolveSet resolves every alternative of one mention. The mention is ambiguous when
// the members produce more than one candidate in total. Records of the members that
// resolved are returned together with a *SetError naming those that did not.
func ResolveSet(s timex.Set, ctx resolver.Context) ([]Record, error) {
	var (
		merged resolver.Result
		failed []MemberError
	)
	for _, res := range resolver.ResolveSet(s, ctx) {
		if res.Err != nil {
			failed = append(failed, MemberError{Timex: res.Source.String(), Err: res.Err})
			continue
		}
		merged.Candidates = append(merged.Candidates, res.Candidates...)
	}
	recs := Records(merged, ctx.SingleResult)
	if len(failed) > 0 {
		return recs, &SetError{Failed: failed}
	}
	return recs, nil
}

func record(c resolver.Resolution, ambiguous bool) Record {
	r := Record{
		Timex:       c.Source.String(),
		Mod:         c.Mod.String(),
		Approximate: c.Approximate,
		IsAmbiguous: ambiguous,
		StartTime:   c.Start,
		EndTime:     c.End,
	}

	if c.Source.Kind() == timex.KindDuration {
		lo, hi := c.Origin, c.Start
		if hi.Before(lo) {
			lo, hi = hi, lo
		}
		r.Type = TypeDuration
		r.Value = strconv.FormatInt(int64(hi.Sub(lo)/time.Second), 10)
		r.Start = lo.Format(DateTimeLayout)
		r.End = hi.Format(DateTimeLayout)
		r.StartTime, r.EndTime = lo, hi
		return r
	}

	point := pointKind(c.Source)
	if c.Kind == resolver.Instant {
		switch point {
		case timex.KindDate:
			r.Type, r.Value = TypeDate, c.Start.Format(DateLayout)
		case timex.KindTime:
			r.Type, r.Value = TypeTime, c.Start.Format(TimeLayout)
		default:
			r.Type, r.Value = TypeDateTime, c.Start.Format(DateTimeLayout)
		}
		return r
	}

	layout := DateTimeLayout
	switch point {
	case timex.KindDate:
		r.Type, layout = TypeDateRange, DateLayout
	case timex.KindTime:
		r.Type, layout = TypeTimeRange, TimeLayout
	default:
		r.Type = TypeDateTimeRange
	}
	if !c.OpenStart {
		r.Start = c.Start.Format(layout)
	}
	if !c.OpenEnd {
		r.End = c.End.Format(layout)
	}
	return r
}

// pointKind is the kind of the points an expression is made of.
func pointKind(e timex.Expression) timex.Kind {
	if start, ok := e.Start(); ok {
		return start.Kind()
	}
	return e.Kind()
}
