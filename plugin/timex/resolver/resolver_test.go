package resolver

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/timexkit/plugin/timex"
	"github.com/hrygo/timexkit/plugin/timex/calendar"
)

// 2021-06-15 is a Tuesday.
var ref = time.Date(2021, 6, 15, 0, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func starts(res Result) []time.Time {
	out := make([]time.Time, len(res.Candidates))
	for i, c := range res.Candidates {
		out[i] = c.Start
	}
	return out
}

func mustResolve(t *testing.T, text string, ctx Context) Result {
	t.Helper()
	res, err := ResolveText(text, ctx)
	require.NoError(t, err, text)
	return res
}

func TestExplicitDate(t *testing.T) {
	contexts := []Context{
		{Reference: ref},
		{Reference: ref, Policy: BiasFuture},
		{Reference: day(1999, 1, 1), Direction: Backward},
		{Reference: ref, ReferenceRange: &Span{Start: day(2030, 1, 1), End: day(2031, 1, 1)}},
	}
	for _, ctx := range contexts {
		res := mustResolve(t, "2021-06-15", ctx)
		require.Len(t, res.Candidates, 1)
		assert.False(t, res.Ambiguous())

		c := res.Candidates[0]
		assert.Equal(t, Instant, c.Kind)
		assert.Equal(t, timex.GranDay, c.Granularity)
		assert.Equal(t, day(2021, 6, 15), c.Start)
		assert.Equal(t, day(2021, 6, 16), c.End)
	}
}

func TestBareWeekday(t *testing.T) {
	res := mustResolve(t, "XXXX-WXX-3", Context{Reference: ref})
	assert.True(t, res.Ambiguous())
	assert.Equal(t, []time.Time{day(2021, 6, 9), day(2021, 6, 16)}, starts(res))

	res = mustResolve(t, "XXXX-WXX-3", Context{Reference: ref, Policy: BiasFuture})
	assert.Equal(t, []time.Time{day(2021, 6, 16), day(2021, 6, 9)}, starts(res))

	// Wednesday the 16th is one day away, the 9th six days
	res = mustResolve(t, "XXXX-WXX-3", Context{Reference: ref, Policy: BiasNearest})
	assert.Equal(t, []time.Time{day(2021, 6, 16), day(2021, 6, 9)}, starts(res))

	// the reference day itself counts as past
	res = mustResolve(t, "XXXX-WXX-2", Context{Reference: ref})
	assert.Equal(t, []time.Time{day(2021, 6, 15), day(2021, 6, 22)}, starts(res))
}

func TestBareWeekdaySymmetry(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	for _, loc := range []*time.Location{time.UTC, ny} {
		base := time.Date(2021, 3, 8, 0, 0, 0, 0, loc)
		for k := 0; k < 40; k++ {
			now := base.Add(time.Duration(k) * 13 * time.Hour)
			for iso := 1; iso <= 7; iso++ {
				wd, _ := calendar.WeekdayFromISO(iso)
				e, err := timex.NewDate(timex.DatePart{Weekday: timex.Val(int(wd))})
				require.NoError(t, err)

				res, err := Resolve(e, Context{Reference: now})
				require.NoError(t, err)
				require.Len(t, res.Candidates, 2)

				past, future := res.Candidates[0], res.Candidates[1]
				assert.Equal(t, wd, past.Start.Weekday())
				assert.Equal(t, wd, future.Start.Weekday())
				assert.False(t, past.Start.After(now), "past %s after %s", past.Start, now)
				assert.True(t, future.Start.After(now), "future %s not after %s", future.Start, now)
				assert.Equal(t, past.Start.AddDate(0, 0, 7), future.Start)

				for _, mod := range []timex.Modifier{timex.ModBefore, timex.ModAfter, timex.ModOnOrBefore, timex.ModOnOrAfter} {
					res, err := Resolve(e.WithModifier(mod), Context{Reference: now})
					require.NoError(t, err)
					assert.Len(t, res.Candidates, 1)
				}
			}
		}
	}
}

func TestDirectionalModifiers(t *testing.T) {
	tests := []struct {
		text      string
		start     time.Time
		end       time.Time
		openStart bool
		openEnd   bool
	}{
		// before Friday: the coming Friday
		{"<XXXX-WXX-5", day(1921, 6, 18), day(2021, 6, 18), true, false},
		{"<=XXXX-WXX-5", day(1921, 6, 18), day(2021, 6, 19), true, false},
		// after Monday: the Monday just gone
		{">XXXX-WXX-1", day(2021, 6, 15), day(2121, 6, 15), false, true},
		{">=XXXX-WXX-1", day(2021, 6, 14), day(2121, 6, 14), false, true},
		{"<2021", day(1921, 1, 1), day(2021, 1, 1), true, false},
		{">2021-06", day(2021, 7, 1), day(2121, 7, 1), false, true},
		{"<=2021-06-15", day(1921, 6, 15), day(2021, 6, 16), true, false},
		{">T10", time.Date(2021, 6, 15, 11, 0, 0, 0, time.UTC), time.Date(2121, 6, 15, 11, 0, 0, 0, time.UTC), false, true},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			res := mustResolve(t, tt.text, Context{Reference: ref})
			require.Len(t, res.Candidates, 1)
			c := res.Candidates[0]
			assert.Equal(t, Range, c.Kind)
			assert.Equal(t, tt.start, c.Start)
			assert.Equal(t, tt.end, c.End)
			assert.Equal(t, tt.openStart, c.OpenStart)
			assert.Equal(t, tt.openEnd, c.OpenEnd)
			assert.Equal(t, tt.text, c.Source.String())
			assert.True(t, c.Mod.Directional())
		})
	}
}

func TestCustomHorizon(t *testing.T) {
	res := mustResolve(t, "<2021-06-15", Context{Reference: ref, Horizon: calendar.Span{Years: 1}})
	assert.Equal(t, day(2020, 6, 15), res.Candidates[0].Start)
	assert.Equal(t, timex.ModBefore, res.Candidates[0].Mod)
}

func TestNegativeHorizonRejected(t *testing.T) {
	tests := []calendar.Span{
		{Years: -5},
		{Days: -1},
		{Years: 1, Seconds: -1},
	}
	for _, h := range tests {
		_, err := ResolveText("<2021-06-15", Context{Reference: ref, Horizon: h})
		assert.True(t, timex.IsCode(err, timex.ErrCodeUnsupported), "horizon %+v: %v", h, err)
	}
}

func TestApproximate(t *testing.T) {
	res := mustResolve(t, "~2021-06", Context{Reference: ref})
	require.Len(t, res.Candidates, 1)
	c := res.Candidates[0]
	assert.True(t, c.Approximate)
	assert.Equal(t, timex.ModApprox, c.Mod)
	assert.Equal(t, day(2021, 6, 1), c.Start)
	assert.Equal(t, day(2021, 7, 1), c.End)

	res = mustResolve(t, "~XXXX-WXX-3", Context{Reference: ref})
	assert.Len(t, res.Candidates, 2)
	assert.True(t, res.Candidates[1].Approximate)

	res = mustResolve(t, "~P3D", Context{Reference: ref})
	assert.True(t, res.Candidates[0].Approximate)
}

func TestDuration(t *testing.T) {
	res := mustResolve(t, "P3D", Context{Reference: ref})
	require.Len(t, res.Candidates, 1)
	c := res.Candidates[0]
	assert.Equal(t, Instant, c.Kind)
	assert.Equal(t, day(2021, 6, 18), c.Start)
	assert.Equal(t, ref, c.Origin)

	res = mustResolve(t, "P3D", Context{Reference: ref, Direction: Backward})
	assert.Equal(t, day(2021, 6, 12), res.Candidates[0].Start)

	res = mustResolve(t, "P1M", Context{Reference: day(2021, 1, 31)})
	assert.Equal(t, day(2021, 2, 28), res.Candidates[0].Start)
	res = mustResolve(t, "P1M", Context{Reference: day(2020, 1, 31)})
	assert.Equal(t, day(2020, 2, 29), res.Candidates[0].Start)

	res = mustResolve(t, "PT0S", Context{Reference: ref})
	assert.Equal(t, ref, res.Candidates[0].Start)
}

func TestDurationKeepsWallClockAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	before := time.Date(2021, 3, 13, 12, 0, 0, 0, ny)

	res := mustResolve(t, "P1D", Context{Reference: before})
	assert.Equal(t, time.Date(2021, 3, 14, 12, 0, 0, 0, ny), res.Candidates[0].Start)
	assert.Equal(t, 23*time.Hour, res.Candidates[0].Start.Sub(before))
}

func TestPartialDates(t *testing.T) {
	tests := []struct {
		text string
		want []time.Time
	}{
		{"XXXX-06-15", []time.Time{day(2021, 6, 15), day(2022, 6, 15)}},
		{"XXXX-02-29", []time.Time{day(2020, 2, 29), day(2024, 2, 29)}},
		{"XXXX-XX-31", []time.Time{day(2021, 5, 31), day(2021, 7, 31)}},
		{"XXXX-06", []time.Time{day(2021, 6, 1), day(2022, 6, 1)}},
		{"XXXX-Q1", []time.Time{day(2021, 1, 1), day(2022, 1, 1)}},
		{"XXXX-WI", []time.Time{day(2020, 12, 1), day(2021, 12, 1)}},
		{"XXXX-W53", []time.Time{day(2020, 12, 28), day(2026, 12, 28)}},
		{"XXXX-06-W03-3", []time.Time{day(2020, 6, 17), day(2021, 6, 16)}},
		{"XXXX-WXX-WE", []time.Time{day(2021, 6, 12), day(2021, 6, 19)}},
		{"2021-WXX-3", []time.Time{day(2021, 6, 9), day(2021, 6, 16)}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			res := mustResolve(t, tt.text, Context{Reference: ref})
			assert.Equal(t, tt.want, starts(res))
			assert.True(t, res.Ambiguous())
		})
	}
}

func TestYearBoundedWeekday(t *testing.T) {
	res := mustResolve(t, "2021-WXX-3", Context{Reference: day(2030, 1, 1)})
	assert.Equal(t, []time.Time{day(2021, 12, 29)}, starts(res))
	assert.False(t, res.Ambiguous())

	res = mustResolve(t, "2021-WXX-3", Context{Reference: day(2010, 1, 1)})
	assert.Equal(t, []time.Time{day(2021, 1, 6)}, starts(res))
}

func TestCalendarPeriods(t *testing.T) {
	tests := []struct {
		text  string
		start time.Time
		end   time.Time
		gran  timex.Granularity
	}{
		{"2021", day(2021, 1, 1), day(2022, 1, 1), timex.GranYear},
		{"2021-06", day(2021, 6, 1), day(2021, 7, 1), timex.GranMonth},
		{"2021-Q3", day(2021, 7, 1), day(2021, 10, 1), timex.GranQuarter},
		{"2021-SU", day(2021, 6, 1), day(2021, 9, 1), timex.GranSeason},
		{"2021-WI", day(2021, 12, 1), day(2022, 3, 1), timex.GranSeason},
		{"2021-W23", day(2021, 6, 7), day(2021, 6, 14), timex.GranWeek},
		{"2021-W23-WE", day(2021, 6, 12), day(2021, 6, 14), timex.GranWeekend},
		{"2021-06-W03", day(2021, 6, 14), day(2021, 6, 21), timex.GranWeek},
		{"2021-06-W01-1", day(2021, 5, 31), day(2021, 6, 1), timex.GranDay},
		{"REF+1D", day(2021, 6, 16), day(2021, 6, 17), timex.GranDay},
		{"REF-1W", day(2021, 6, 7), day(2021, 6, 14), timex.GranWeek},
		{"REF+0W-5", day(2021, 6, 18), day(2021, 6, 19), timex.GranDay},
		{"REF+1WE", day(2021, 6, 26), day(2021, 6, 28), timex.GranWeekend},
		{"REF-1M", day(2021, 5, 1), day(2021, 6, 1), timex.GranMonth},
		{"REF+1Q", day(2021, 7, 1), day(2021, 10, 1), timex.GranQuarter},
		{"REF-1Y", day(2020, 1, 1), day(2021, 1, 1), timex.GranYear},
		{"T10", time.Date(2021, 6, 15, 10, 0, 0, 0, time.UTC), time.Date(2021, 6, 15, 11, 0, 0, 0, time.UTC), timex.GranHour},
		{"T08PM", time.Date(2021, 6, 15, 20, 0, 0, 0, time.UTC), time.Date(2021, 6, 15, 21, 0, 0, 0, time.UTC), timex.GranHour},
		{"TEV", time.Date(2021, 6, 15, 16, 0, 0, 0, time.UTC), time.Date(2021, 6, 15, 20, 0, 0, 0, time.UTC), timex.GranPartOfDay},
		{"TNI", time.Date(2021, 6, 15, 20, 0, 0, 0, time.UTC), day(2021, 6, 16), timex.GranPartOfDay},
		{"2021-06-15T10:30", time.Date(2021, 6, 15, 10, 30, 0, 0, time.UTC), time.Date(2021, 6, 15, 10, 31, 0, 0, time.UTC), timex.GranMinute},
		{"REF+1DT09:00:05", time.Date(2021, 6, 16, 9, 0, 5, 0, time.UTC), time.Date(2021, 6, 16, 9, 0, 6, 0, time.UTC), timex.GranSecond},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			res := mustResolve(t, tt.text, Context{Reference: ref})
			require.Len(t, res.Candidates, 1)
			c := res.Candidates[0]
			assert.Equal(t, tt.start, c.Start)
			assert.Equal(t, tt.end, c.End)
			assert.Equal(t, tt.gran, c.Granularity)
		})
	}
}

func TestPresent(t *testing.T) {
	now := time.Date(2021, 6, 15, 10, 11, 12, 0, time.UTC)
	res := mustResolve(t, "PRESENT_REF", Context{Reference: now})
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, now, res.Candidates[0].Start)
	assert.Equal(t, timex.GranSecond, res.Candidates[0].Granularity)
}

func TestRelativeUsesReferenceRangeStart(t *testing.T) {
	ctx := Context{Reference: ref, ReferenceRange: &Span{Start: day(2021, 7, 1), End: day(2021, 8, 1)}}
	res := mustResolve(t, "REF+1D", ctx)
	assert.Equal(t, []time.Time{day(2021, 7, 2)}, starts(res))
}

func TestTimeOnFuzzyDay(t *testing.T) {
	now := time.Date(2021, 6, 16, 9, 0, 0, 0, time.UTC)
	res := mustResolve(t, "XXXX-WXX-3T10", Context{Reference: now})
	assert.Equal(t, []time.Time{
		time.Date(2021, 6, 9, 10, 0, 0, 0, time.UTC),
		time.Date(2021, 6, 16, 10, 0, 0, 0, time.UTC),
	}, starts(res))
}

func TestRanges(t *testing.T) {
	t.Run("explicit", func(t *testing.T) {
		res := mustResolve(t, "(2021-06-01,2021-06-05)", Context{Reference: ref})
		require.Len(t, res.Candidates, 1)
		assert.Equal(t, Range, res.Candidates[0].Kind)
		assert.Equal(t, day(2021, 6, 1), res.Candidates[0].Start)
		assert.Equal(t, day(2021, 6, 5), res.Candidates[0].End)
	})

	t.Run("start and duration", func(t *testing.T) {
		res := mustResolve(t, "(2021-06-15,P3D)", Context{Reference: ref})
		assert.Equal(t, day(2021, 6, 18), res.Candidates[0].End)
	})

	t.Run("zero duration is instantaneous", func(t *testing.T) {
		res := mustResolve(t, "(2021-06-15,PT0S)", Context{Reference: ref})
		assert.Equal(t, res.Candidates[0].Start, res.Candidates[0].End)
	})

	t.Run("inverted", func(t *testing.T) {
		_, err := ResolveText("(2021-06-05,2021-06-01)", Context{Reference: ref})
		require.Error(t, err)
		assert.True(t, timex.IsCode(err, timex.ErrCodeInvertedRange))

		_, err = ResolveText("(T22,T02)", Context{Reference: ref})
		assert.True(t, timex.IsCode(err, timex.ErrCodeInvertedRange))
	})

	t.Run("fuzzy endpoints pair up", func(t *testing.T) {
		res := mustResolve(t, "(XXXX-WXX-1,XXXX-WXX-5)", Context{Reference: ref})
		require.Len(t, res.Candidates, 2)
		assert.Equal(t, day(2021, 6, 14), res.Candidates[0].Start)
		assert.Equal(t, day(2021, 6, 18), res.Candidates[0].End)
		assert.Equal(t, day(2021, 6, 21), res.Candidates[1].Start)
		assert.Equal(t, day(2021, 6, 25), res.Candidates[1].End)
	})

	t.Run("until now drops future starts", func(t *testing.T) {
		now := time.Date(2021, 6, 15, 10, 0, 0, 0, time.UTC)
		res := mustResolve(t, "(XXXX-WXX-1,PRESENT_REF)", Context{Reference: now})
		require.Len(t, res.Candidates, 1)
		assert.Equal(t, day(2021, 6, 14), res.Candidates[0].Start)
		assert.Equal(t, now, res.Candidates[0].End)
	})

	t.Run("time range", func(t *testing.T) {
		res := mustResolve(t, "(T08,T12:30)", Context{Reference: ref})
		assert.Equal(t, time.Date(2021, 6, 15, 8, 0, 0, 0, time.UTC), res.Candidates[0].Start)
		assert.Equal(t, time.Date(2021, 6, 15, 12, 30, 0, 0, time.UTC), res.Candidates[0].End)
		assert.Equal(t, timex.GranHour, res.Candidates[0].Granularity)
	})

	t.Run("end is never before start", func(t *testing.T) {
		for _, text := range []string{
			"(XXXX-WXX-5,XXXX-WXX-1)",
			"(XXXX-06,XXXX-02)",
			"(2021-W23,P1W)",
			"(XXXX-XX-31,XXXX-XX-01)",
			"~(REF-1W,PRESENT_REF)",
		} {
			res := mustResolve(t, text, Context{Reference: ref})
			require.NotEmpty(t, res.Candidates, text)
			for _, c := range res.Candidates {
				assert.False(t, c.End.Before(c.Start), "%s: %s > %s", text, c.Start, c.End)
			}
		}
	})
}

func TestReferenceRange(t *testing.T) {
	june := &Span{Start: day(2021, 6, 1), End: day(2021, 7, 1)}
	res := mustResolve(t, "XXXX-WXX-3", Context{Reference: ref, ReferenceRange: june})
	assert.Equal(t, []time.Time{
		day(2021, 6, 2), day(2021, 6, 9), day(2021, 6, 16), day(2021, 6, 23), day(2021, 6, 30),
	}, starts(res))

	res = mustResolve(t, "XXXX-WXX-3", Context{Reference: ref, ReferenceRange: &Span{Start: day(2021, 6, 1), End: day(2021, 6, 2)}})
	assert.Empty(t, res.Candidates)

	_, err := ResolveText("XXXX-WXX-3", Context{Reference: ref, ReferenceRange: &Span{Start: day(2021, 1, 1), End: day(2023, 1, 1)}})
	assert.True(t, timex.IsCode(err, timex.ErrCodeUnsupported))

	_, err = ResolveText("XXXX-WXX-3", Context{Reference: ref, ReferenceRange: &Span{Start: day(2021, 7, 1), End: day(2021, 6, 1)}})
	assert.True(t, timex.IsCode(err, timex.ErrCodeInvertedRange))
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		text string
		code timex.ErrorCode
	}{
		{"2021-02-29", timex.ErrCodeInvalidDate},
		{"2021-W53", timex.ErrCodeInvalidDate},
		{"XXXX-02-30", timex.ErrCodeInvalidDate},
		{"2021-02-W05", timex.ErrCodeInvalidDate},
		{"XXXX-02-W06", timex.ErrCodeInvalidDate},
		{"2021-W23T10", timex.ErrCodeUnsupported},
		{"REF+1MT10", timex.ErrCodeUnsupported},
		{"<P3D", timex.ErrCodeUnsupported},
		{">(2021-06-01,P3D)", timex.ErrCodeUnsupported},
		{"2021-13", timex.ErrCodeMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			_, err := ResolveText(tt.text, Context{Reference: ref})
			require.Error(t, err)
			assert.True(t, timex.IsCode(err, tt.code), "got %v", err)
		})
	}

	_, err := Resolve(timex.Expression{}, Context{Reference: ref})
	assert.True(t, timex.IsCode(err, timex.ErrCodeMalformed))
}

func TestResolveSet(t *testing.T) {
	set, err := timex.ParseSet("2021-02-29", "XXXX-WXX-3")
	require.NoError(t, err)

	results := ResolveSet(set, Context{Reference: ref})
	require.Len(t, results, 2)
	assert.True(t, timex.IsCode(results[0].Err, timex.ErrCodeInvalidDate))
	assert.NoError(t, results[1].Err)
	assert.Len(t, results[1].Candidates, 2)
}

func TestPolicies(t *testing.T) {
	for _, name := range []string{"past", "future", "nearest", ""} {
		p, ok := PolicyByName(name)
		require.True(t, ok)
		if name != "" {
			assert.Equal(t, name, p.Name())
		}
	}
	_, ok := PolicyByName("sideways")
	assert.False(t, ok)

	d, ok := ParseDirection("backward")
	assert.True(t, ok)
	assert.Equal(t, Backward, d)
	_, ok = ParseDirection("up")
	assert.False(t, ok)

	past := &Resolution{Start: day(2021, 6, 14)}
	future := &Resolution{Start: day(2021, 6, 16)}
	// equidistant: the past wins
	assert.Equal(t, day(2021, 6, 14), BiasNearest.Order(day(2021, 6, 15), past, future)[0].Start)
	assert.Len(t, BiasFuture.Order(ref, nil, future), 1)
}

func TestSorted(t *testing.T) {
	res := mustResolve(t, "XXXX-WXX-3", Context{Reference: ref, Policy: BiasFuture})
	sorted := res.Sorted()
	assert.Equal(t, day(2021, 6, 9), sorted[0].Start)
	assert.Equal(t, day(2021, 6, 16), res.Candidates[0].Start)
}
