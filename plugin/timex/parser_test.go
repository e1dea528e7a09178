package timex

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/timexkit/plugin/timex/calendar"
)

var canonical = []string{
	"2021-06-15",
	"2021-06",
	"2021",
	"0999-01-01",
	"XXXX-06-15",
	"XXXX-06",
	"XXXX-XX-15",
	"XXXX-WXX-3",
	"XXXX-WXX-7",
	"2021-WXX-1",
	"XXXX-WXX-WE",
	"2021-W23",
	"2021-W23-1",
	"XXXX-W23-WE",
	"2021-06-W02",
	"XXXX-06-W02-5",
	"2021-06-W01-WE",
	"2021-Q3",
	"XXXX-Q1",
	"2021-WI",
	"XXXX-SU",
	"REF+1D",
	"REF-3W",
	"REF+0W-5",
	"REF+1WE",
	"REF-1M",
	"REF+2Q",
	"REF-1Y",
	"T10",
	"T10:30",
	"T10:30:15",
	"T08PM",
	"T12:30AM",
	"TMO",
	"TDT",
	"2021-06-15T10:30",
	"XXXX-WXX-3TEV",
	"REF+1DT09",
	"PRESENT_REF",
	"P3D",
	"P1Y2M3W4DT5H6M7S",
	"PT0S",
	"PT90M",
	"(2021-06-01,2021-06-05)",
	"(XXXX-WXX-1,P4D)",
	"(T08,T12)",
	"(XXXX-WXX-1,PRESENT_REF)",
	"<2021-06-15",
	">=XXXX-WXX-3",
	"~P3D",
	"<=2021",
	">T10",
	"~(2021-06-01,P1W)",
}

func TestParseRoundTrip(t *testing.T) {
	for _, text := range canonical {
		t.Run(text, func(t *testing.T) {
			e, err := Parse(text)
			require.NoError(t, err)
			assert.Equal(t, text, e.String())

			again, err := Parse(e.String())
			require.NoError(t, err)
			assert.True(t, e.Equal(again))
		})
	}
}

func TestParseFields(t *testing.T) {
	t.Run("full date", func(t *testing.T) {
		e := MustParse("2021-06-15")
		assert.Equal(t, KindDate, e.Kind())
		d, ok := e.Date()
		require.True(t, ok)
		assert.Equal(t, 2021, d.Year.Or(0))
		assert.Equal(t, 6, d.Month.Or(0))
		assert.Equal(t, 15, d.Day.Or(0))
		assert.True(t, d.IsDefinite())
	})

	t.Run("bare weekday", func(t *testing.T) {
		e := MustParse("XXXX-WXX-3")
		d, ok := e.Date()
		require.True(t, ok)
		wd, ok := d.DayOfWeek()
		require.True(t, ok)
		assert.Equal(t, time.Wednesday, wd)
		assert.False(t, d.Year.IsSet())
		assert.False(t, d.IsDefinite())
	})

	t.Run("iso sunday is weekday zero", func(t *testing.T) {
		d, _ := MustParse("XXXX-WXX-7").Date()
		assert.Equal(t, 0, d.Weekday.Or(-1))
	})

	t.Run("season", func(t *testing.T) {
		d, _ := MustParse("2021-WI").Date()
		assert.Equal(t, calendar.Winter, d.Season)
		assert.False(t, d.WeekOfYear.IsSet())
	})

	t.Run("relative", func(t *testing.T) {
		d, _ := MustParse("REF-2W-1").Date()
		assert.Equal(t, Relative{Unit: UnitWeek, Offset: -2}, d.Relative)
		wd, _ := d.DayOfWeek()
		assert.Equal(t, time.Monday, wd)
	})

	t.Run("datetime", func(t *testing.T) {
		e := MustParse("2021-06-15T10:30")
		assert.Equal(t, KindDateTime, e.Kind())
		tp, ok := e.Time()
		require.True(t, ok)
		assert.Equal(t, 10, tp.Hour.Or(0))
		assert.Equal(t, 30, tp.Minute.Or(0))
		assert.False(t, tp.Second.IsSet())
	})

	t.Run("present", func(t *testing.T) {
		e := MustParse("PRESENT_REF")
		assert.True(t, e.IsPresent())
		assert.Equal(t, KindDateTime, e.Kind())
		_, ok := e.Date()
		assert.False(t, ok)
	})

	t.Run("duration", func(t *testing.T) {
		d, ok := MustParse("P1Y2M3W4DT5H6M7S").Duration()
		require.True(t, ok)
		assert.Equal(t, DurationPart{Years: 1, Months: 2, Weeks: 3, Days: 4, Hours: 5, Minutes: 6, Seconds: 7}, d)

		d, _ = MustParse("PT1M").Duration()
		assert.Equal(t, DurationPart{Minutes: 1}, d)
		d, _ = MustParse("P1M").Duration()
		assert.Equal(t, DurationPart{Months: 1}, d)
	})

	t.Run("range with span", func(t *testing.T) {
		e := MustParse("(XXXX-WXX-1,P4D)")
		assert.Equal(t, KindRange, e.Kind())
		start, ok := e.Start()
		require.True(t, ok)
		assert.Equal(t, "XXXX-WXX-1", start.String())
		span, ok := e.Span()
		require.True(t, ok)
		assert.Equal(t, 4, span.Days)
		_, ok = e.End()
		assert.False(t, ok)
	})

	t.Run("three element range keeps the end", func(t *testing.T) {
		e := MustParse("(XXXX-WXX-1,XXXX-WXX-5,P4D)")
		end, ok := e.End()
		require.True(t, ok)
		assert.Equal(t, "XXXX-WXX-5", end.String())
		assert.Equal(t, "(XXXX-WXX-1,XXXX-WXX-5)", e.String())
	})

	t.Run("modifier", func(t *testing.T) {
		assert.Equal(t, ModOnOrBefore, MustParse("<=2021").Modifier())
		assert.Equal(t, ModOnOrAfter, MustParse(">=2021").Modifier())
		assert.Equal(t, ModBefore, MustParse("<2021").Modifier())
		assert.Equal(t, ModAfter, MustParse(">2021").Modifier())
		assert.Equal(t, ModApprox, MustParse("~2021").Modifier())
		assert.Equal(t, ModNone, MustParse("2021").Modifier())
	})

	t.Run("surrounding space", func(t *testing.T) {
		assert.Equal(t, "2021-06-15", MustParse("  2021-06-15 ").String())
	})
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		text string
		code ErrorCode
	}{
		{"", ErrCodeMalformed},
		{"hello", ErrCodeMalformed},
		{"2021-13", ErrCodeMalformed},
		{"2021-00", ErrCodeMalformed},
		{"2021-06-32", ErrCodeMalformed},
		{"2021-06-15X", ErrCodeMalformed},
		{"2021-06-15T", ErrCodeMalformed},
		{"2021-W54", ErrCodeMalformed},
		{"2021-W5", ErrCodeMalformed},
		{"XXXX-WXX", ErrCodeMalformed},
		{"XXXX-WXX-8", ErrCodeMalformed},
		{"XXXX-WXX-0", ErrCodeMalformed},
		{"2021-XX-15", ErrCodeMalformed},
		{"XXXX-XX", ErrCodeMalformed},
		{"2021-Q5", ErrCodeMalformed},
		{"2021-06-W7", ErrCodeMalformed},
		{"T24", ErrCodeMalformed},
		{"T10:60", ErrCodeMalformed},
		{"T10:30:60", ErrCodeMalformed},
		{"T13PM", ErrCodeMalformed},
		{"T00AM", ErrCodeMalformed},
		{"TXX", ErrCodeMalformed},
		{"P", ErrCodeMalformed},
		{"PT", ErrCodeMalformed},
		{"P1DT", ErrCodeMalformed},
		{"P1D1Y", ErrCodeMalformed},
		{"P1D1D", ErrCodeMalformed},
		{"P-1D", ErrCodeMalformed},
		{"P1X", ErrCodeMalformed},
		{"REF1D", ErrCodeMalformed},
		{"REF+1X", ErrCodeMalformed},
		{"REF+1D-3", ErrCodeMalformed},
		{"(2021-06-01)", ErrCodeMalformed},
		{"(2021,2022", ErrCodeMalformed},
		{"(<2021,2022)", ErrCodeMalformed},
		{"(2021,2022,2023)", ErrCodeMalformed},
		{"(P1D,2022)", ErrCodeMalformed},
		{"(2021,2022,P1D,P2D)", ErrCodeMalformed},
		{"<~2021", ErrCodeUnsupported},
		{"<>2021", ErrCodeUnsupported},
		{"~~P1D", ErrCodeUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			_, err := Parse(tt.text)
			require.Error(t, err)
			assert.True(t, IsCode(err, tt.code), "got %v", err)
		})
	}
}

func TestMustParsePanics(t *testing.T) {
	assert.Panics(t, func() { MustParse("2021-13") })
}
