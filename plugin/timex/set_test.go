package timex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombine(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want []string
	}{
		{"complementary fields merge", "XXXX-06", "2021", []string{"2021-06"}},
		{"month day and year", "XXXX-06-15", "2021", []string{"2021-06-15"}},
		{"identical collapse", "XXXX-WXX-3", "XXXX-WXX-3", []string{"XXXX-WXX-3"}},
		{"conflicting weekdays stay apart", "XXXX-WXX-3", "XXXX-WXX-5", []string{"XXXX-WXX-3", "XXXX-WXX-5"}},
		{"invalid merge stays apart", "XXXX-WXX-3", "XXXX-XX-15", []string{"XXXX-WXX-3", "XXXX-XX-15"}},
		{"modifier carried over", "<2021", "XXXX-06", []string{"<2021-06"}},
		{"conflicting modifiers stay apart", "<2021", ">2021", []string{"<2021", ">2021"}},
		{"time fields merge", "T10", "T10:30", []string{"T10:30"}},
		{"datetime merge", "XXXX-WXX-3T10", "2021-WXX-3T10:30", []string{"2021-WXX-3T10:30"}},
		{"durations merge", "P1D", "PT3H", []string{"P1DT3H"}},
		{"durations conflict", "P1D", "P2D", []string{"P1D", "P2D"}},
		{"ranges merge endpoints", "(XXXX-06-01,XXXX-06-05)", "(2021,2021)", []string{"(2021-06-01,2021-06-05)"}},
		{"range shapes differ", "(2021-06-01,P3D)", "(2021-06-01,2021-06-04)", []string{"(2021-06-01,P3D)", "(2021-06-01,2021-06-04)"}},
		{"present merges with present", "PRESENT_REF", "~PRESENT_REF", []string{"~PRESENT_REF"}},
		{"present stays apart from a datetime", "PRESENT_REF", "2021-06-15T10", []string{"PRESENT_REF", "2021-06-15T10"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Combine(MustParse(tt.a), MustParse(tt.b))
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Strings())
		})
	}
}

func TestCombineIncompatible(t *testing.T) {
	_, err := Combine(MustParse("2021-06-15"), MustParse("T10"))
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrCodeIncompatible))

	_, err = Combine(MustParse("P1D"), MustParse("(2021,2022)"))
	assert.True(t, IsCode(err, ErrCodeIncompatible))
}

func TestSetAlgebra(t *testing.T) {
	a, err := ParseSet("XXXX-06", "XXXX-07")
	require.NoError(t, err)
	b, err := ParseSet("2021")
	require.NoError(t, err)

	inter, err := a.Intersect(b)
	require.NoError(t, err)
	assert.Equal(t, []string{"2021-06", "2021-07"}, inter.Strings())

	c, err := ParseSet("XXXX-07", "XXXX-08", "XXXX-07")
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	union, err := a.Union(c)
	require.NoError(t, err)
	assert.Equal(t, []string{"XXXX-06", "XXXX-07", "XXXX-08"}, union.Strings())
	assert.Equal(t, KindDate, union.Kind())
	assert.Equal(t, "XXXX-08", union.At(2).String())

	none, err := a.Intersect(c)
	require.NoError(t, err)
	assert.Equal(t, []string{"XXXX-07"}, none.Strings())

	members := union.Members()
	members[0] = MustParse("2000")
	assert.Equal(t, "XXXX-06", union.At(0).String())

	var empty Set
	assert.Equal(t, Kind(0), empty.Kind())
	u, err := empty.Union(b)
	require.NoError(t, err)
	assert.Equal(t, []string{"2021"}, u.Strings())
}

func TestSetKindMismatch(t *testing.T) {
	_, err := ParseSet("2021", "T10")
	assert.True(t, IsCode(err, ErrCodeIncompatible))

	dates, _ := ParseSet("2021")
	times, _ := ParseSet("T10")
	_, err = dates.Union(times)
	assert.True(t, IsCode(err, ErrCodeIncompatible))
	_, err = dates.Intersect(times)
	assert.True(t, IsCode(err, ErrCodeIncompatible))

	_, err = ParseSet("2021", "2021-13")
	assert.True(t, IsCode(err, ErrCodeMalformed))

	_, err = NewSet(Expression{})
	assert.True(t, IsCode(err, ErrCodeMalformed))
}
