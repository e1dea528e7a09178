// Package resolver turns TIMEX expressions into concrete calendar values relative to a
// reference instant.
//
// Fuzzy expressions (a bare weekday, a month and day without a year) always produce both
// the latest occurrence starting at or before the reference and the earliest one after
// it; the Context policy only orders them. A directional modifier collapses the pair:
// before picks the upcoming occurrence, after picks the previous one.
package resolver

import (
	"time"

	"github.com/hrygo/timexkit/plugin/timex"
	"github.com/hrygo/timexkit/plugin/timex/calendar"
)

// Resolve returns every candidate e denotes under ctx, preferred first.
func Resolve(e timex.Expression, ctx Context) (Result, error) {
	if !e.IsValid() {
		return Result{}, timex.Malformed("invalid expression")
	}
	if err := ctx.Validate(); err != nil {
		return Result{}, err
	}
	r := &resolver{ctx: ctx}
	cands, err := r.resolve(e)
	if err != nil {
		return Result{}, err
	}
	return Result{Source: e, Candidates: cands}, nil
}

// ResolveText parses text and resolves it.
func ResolveText(text string, ctx Context) (Result, error) {
	e, err := timex.Parse(text)
	if err != nil {
		return Result{}, err
	}
	return Resolve(e, ctx)
}

// ResolveSet resolves every member of s independently. A failing member does not stop the
// others; its Result carries the error.
func ResolveSet(s timex.Set, ctx Context) []Result {
	out := make([]Result, 0, s.Len())
	for _, e := range s.Members() {
		res, err := Resolve(e, ctx)
		if err != nil {
			res = Result{Source: e, Err: err}
		}
		out = append(out, res)
	}
	return out
}

type resolver struct {
	ctx Context
}

func (r *resolver) resolve(e timex.Expression) ([]Resolution, error) {
	mod := e.Modifier()
	if mod.Directional() && (e.Kind() == timex.KindDuration || e.Kind() == timex.KindRange) {
		return nil, timex.Unsupported("%s cannot apply to a %s", mod, e.Kind())
	}

	switch e.Kind() {
	case timex.KindDuration:
		return r.approx(r.duration(e), mod), nil
	case timex.KindRange:
		cands, err := r.rangeOf(e)
		if err != nil {
			return nil, err
		}
		return r.approx(cands, mod), nil
	}

	past, future, all, err := r.point(e)
	if err != nil {
		return nil, err
	}
	switch {
	case mod == timex.ModNone:
		return all, nil
	case mod == timex.ModApprox:
		return r.approx(all, mod), nil
	}

	if past != nil || future != nil {
		pick := future
		if mod == timex.ModAfter || mod == timex.ModOnOrAfter {
			pick = past
		}
		if pick == nil {
			pick = past
			if pick == nil {
				pick = future
			}
		}
		all = []Resolution{*pick}
	}
	out := make([]Resolution, len(all))
	for i, c := range all {
		out[i] = r.open(c, mod)
	}
	return out, nil
}

// point resolves a date, time or datetime. past and future are set when the result came
// from a fuzzy search around the reference instant.
func (r *resolver) point(e timex.Expression) (past, future *Resolution, all []Resolution, err error) {
	p, err := planPoint(e, r.ctx.Reference, r.ctx.anchor())
	if err != nil {
		return nil, nil, nil, err
	}
	if p.fixed != nil {
		return nil, nil, []Resolution{p.fixed.resolution(e)}, nil
	}

	if rr := r.ctx.ReferenceRange; rr != nil {
		periods, err := p.cyc.within(*rr)
		if err != nil {
			return nil, nil, nil, err
		}
		all = make([]Resolution, len(periods))
		for i, per := range periods {
			all[i] = per.resolution(e)
		}
		return nil, nil, all, nil
	}

	ref := r.ctx.Reference
	if per, ok := p.cyc.past(ref); ok {
		res := per.resolution(e)
		past = &res
	}
	if per, ok := p.cyc.future(ref); ok {
		res := per.resolution(e)
		future = &res
	}
	return past, future, r.ctx.policy().Order(ref, past, future), nil
}

// duration adds or subtracts e from the reference instant.
func (r *resolver) duration(e timex.Expression) []Resolution {
	d, _ := e.Duration()
	sign := 1
	if r.ctx.Direction == Backward {
		sign = -1
	}
	ref := r.ctx.Reference
	at := calendar.Add(ref, d.Span(), sign)
	return []Resolution{{
		Kind:        Instant,
		Start:       at,
		End:         at,
		Granularity: d.Granularity(),
		Origin:      ref,
		Source:      e,
	}}
}

// rangeOf resolves both ends of a range. Every start candidate is paired with the
// earliest end at or after it; starts with no such end are dropped.
func (r *resolver) rangeOf(e timex.Expression) ([]Resolution, error) {
	startExpr, _ := e.Start()
	_, _, starts, err := r.point(startExpr)
	if err != nil {
		return nil, err
	}

	var endFor func(time.Time) (time.Time, bool, error)
	if span, ok := e.Span(); ok {
		endFor = func(s time.Time) (time.Time, bool, error) {
			return calendar.Add(s, span.Span(), 1), true, nil
		}
	} else {
		endExpr, _ := e.End()
		endFor, err = r.endResolver(endExpr)
		if err != nil {
			return nil, err
		}
	}

	out := make([]Resolution, 0, len(starts))
	for _, s := range starts {
		end, ok, err := endFor(s.Start)
		if err != nil {
			return nil, err
		}
		if !ok || end.Before(s.Start) {
			continue
		}
		out = append(out, Resolution{
			Kind:        Range,
			Start:       s.Start,
			End:         end,
			Granularity: s.Granularity,
			Source:      e,
		})
	}
	if len(out) == 0 && len(starts) > 0 {
		return nil, timex.InvertedRange("%s ends before it starts", e)
	}
	return out, nil
}

// endResolver returns a function giving the end instant of a range for a given start.
// Time-only ends fall on the start's day and fuzzy ends take their first occurrence at or
// after the start. Everything else resolves once, independently of the start.
func (r *resolver) endResolver(end timex.Expression) (func(time.Time) (time.Time, bool, error), error) {
	if end.Kind() == timex.KindTime {
		return func(s time.Time) (time.Time, bool, error) {
			p, err := planPoint(end, s, r.ctx.anchor())
			if err != nil {
				return time.Time{}, false, err
			}
			return p.fixed.start, true, nil
		}, nil
	}

	p, err := planPoint(end, r.ctx.Reference, r.ctx.anchor())
	if err != nil {
		return nil, err
	}
	if p.fixed != nil {
		at := p.fixed.start
		return func(time.Time) (time.Time, bool, error) { return at, true, nil }, nil
	}
	cyc := p.cyc
	return func(s time.Time) (time.Time, bool, error) {
		per, ok := cyc.atOrAfter(s)
		return per.start, ok, nil
	}, nil
}

func (r *resolver) approx(cands []Resolution, mod timex.Modifier) []Resolution {
	if mod != timex.ModApprox {
		return cands
	}
	for i := range cands {
		cands[i].Mod = mod
		cands[i].Approximate = true
	}
	return cands
}

// open turns a resolved value into the half-open range a directional modifier denotes.
func (r *resolver) open(c Resolution, mod timex.Modifier) Resolution {
	h := r.ctx.horizon()
	lo, hi := c.Start, c.End
	out := c
	out.Kind = Range
	out.Mod = mod
	switch mod {
	case timex.ModBefore:
		out.Start, out.End, out.OpenStart = calendar.Add(lo, h, -1), lo, true
	case timex.ModOnOrBefore:
		out.Start, out.End, out.OpenStart = calendar.Add(lo, h, -1), hi, true
	case timex.ModAfter:
		out.Start, out.End, out.OpenEnd = hi, calendar.Add(hi, h, 1), true
	case timex.ModOnOrAfter:
		out.Start, out.End, out.OpenEnd = lo, calendar.Add(lo, h, 1), true
	}
	return out
}
