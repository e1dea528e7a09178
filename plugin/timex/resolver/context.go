package resolver

import (
	"strings"
	"time"

	"github.com/hrygo/timexkit/plugin/timex"
	"github.com/hrygo/timexkit/plugin/timex/calendar"
)

// DefaultHorizon bounds the open side of before/after ranges.
func DefaultHorizon() calendar.Span {
	return calendar.Span{Years: 100}
}

// Bias orders the two candidates of a fuzzy expression. Either candidate may be nil.
type Bias interface {
	Name() string
	Order(ref time.Time, past, future *Resolution) []Resolution
}

type biasPast struct{}

func (biasPast) Name() string { return "past" }

func (biasPast) Order(_ time.Time, past, future *Resolution) []Resolution {
	return pair(past, future)
}

type biasFuture struct{}

func (biasFuture) Name() string { return "future" }

func (biasFuture) Order(_ time.Time, past, future *Resolution) []Resolution {
	return pair(future, past)
}

type biasNearest struct{}

func (biasNearest) Name() string { return "nearest" }

// Order prefers the candidate starting closer to ref; ties go to the past.
func (biasNearest) Order(ref time.Time, past, future *Resolution) []Resolution {
	if past != nil && future != nil && future.Start.Sub(ref) < ref.Sub(past.Start) {
		return pair(future, past)
	}
	return pair(past, future)
}

// Built-in policies. BiasPast is the default: the most recent occurrence comes first.
var (
	BiasPast    Bias = biasPast{}
	BiasFuture  Bias = biasFuture{}
	BiasNearest Bias = biasNearest{}
)

// PolicyByName returns the built-in policy named past, future or nearest.
func PolicyByName(name string) (Bias, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "past":
		return BiasPast, true
	case "future":
		return BiasFuture, true
	case "nearest":
		return BiasNearest, true
	}
	return nil, false
}

func pair(first, second *Resolution) []Resolution {
	out := make([]Resolution, 0, 2)
	if first != nil {
		out = append(out, *first)
	}
	if second != nil {
		out = append(out, *second)
	}
	return out
}

// Direction says which way a bare duration moves from the reference.
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// ParseDirection accepts forward or backward.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "forward":
		return Forward, true
	case "backward":
		return Backward, true
	}
	return Forward, false
}

// Span is a half-open interval [Start, End).
type Span struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls in the span.
func (s Span) Contains(t time.Time) bool {
	return !t.Before(s.Start) && t.Before(s.End)
}

// Context carries everything resolution depends on besides the expression.
type Context struct {
	// Reference is "now". Its location is the location of every result.
	Reference time.Time
	// ReferenceRange, when set, anchors relative dates at its start and limits fuzzy
	// expressions to the occurrences starting inside it.
	ReferenceRange *Span
	// Policy orders fuzzy candidates. Nil means BiasPast.
	Policy Bias
	// Direction applies to bare durations.
	Direction Direction
	// SingleResult asks the value layer for the preferred candidate only.
	SingleResult bool
	// Horizon bounds before/after ranges. Zero means DefaultHorizon.
	Horizon calendar.Span
}

// Validate rejects contexts no expression can be resolved against.
func (c Context) Validate() error {
	if c.ReferenceRange != nil && c.ReferenceRange.End.Before(c.ReferenceRange.Start) {
		return timex.InvertedRange("reference range ends before it starts")
	}
	h := c.Horizon
	if h.Years < 0 || h.Months < 0 || h.Weeks < 0 || h.Days < 0 || h.Hours < 0 || h.Minutes < 0 || h.Seconds < 0 {
		return timex.Unsupported("horizon components must be non-negative")
	}
	return nil
}

func (c Context) policy() Bias {
	if c.Policy == nil {
		return BiasPast
	}
	return c.Policy
}

func (c Context) horizon() calendar.Span {
	if c.Horizon.IsZero() {
		return DefaultHorizon()
	}
	return c.Horizon
}

// anchor is where relative dates count from.
func (c Context) anchor() time.Time {
	if c.ReferenceRange != nil {
		return c.ReferenceRange.Start
	}
	return c.Reference
}
