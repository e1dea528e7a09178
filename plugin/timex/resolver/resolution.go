package resolver

import (
	"sort"
	"time"

	"github.com/hrygo/timexkit/plugin/timex"
)

// ResultKind tells whether a resolution is a point or an interval.
type ResultKind int

const (
	Instant ResultKind = iota + 1
	Range
)

func (k ResultKind) String() string {
	switch k {
	case Instant:
		return "instant"
	case Range:
		return "range"
	}
	return "invalid"
}

// Resolution is one concrete calendar value.
//
// Start and End bound the denoted period [Start, End). An Instant covers one unit of its
// granularity (a day for dates, an hour for T10). A resolved duration is an Instant with
// End == Start and Origin set to the point it was measured from.
type Resolution struct {
	Kind        ResultKind
	Start       time.Time
	End         time.Time
	Granularity timex.Granularity
	Mod         timex.Modifier
	Approximate bool
	// OpenStart and OpenEnd mark sides bounded only by the horizon.
	OpenStart bool
	OpenEnd   bool
	Origin    time.Time
	Source    timex.Expression
}

// Result holds every candidate for one expression in preference order.
type Result struct {
	Source     timex.Expression
	Candidates []Resolution
	// Err is set by ResolveSet when this member failed.
	Err error
}

// Ambiguous reports whether more than one candidate was found.
func (r Result) Ambiguous() bool {
	return len(r.Candidates) > 1
}

// First returns the preferred candidate.
func (r Result) First() (Resolution, bool) {
	if len(r.Candidates) == 0 {
		return Resolution{}, false
	}
	return r.Candidates[0], true
}

// Sorted returns the candidates in chronological order, leaving r untouched.
func (r Result) Sorted() []Resolution {
	out := append([]Resolution(nil), r.Candidates...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}
