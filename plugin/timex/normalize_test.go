package timex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"P1W", "P7D"},
		{"P2W3D", "P17D"},
		{"PT90M", "PT1H30M"},
		{"PT3600S", "PT1H"},
		{"PT61S", "PT1M1S"},
		{"P14M", "P1Y2M"},
		{"P1DT24H", "P1DT24H"},
		{"PT0S", "PT0S"},
		{"T08PM", "T20"},
		{"T12AM", "T00"},
		{"T12:30PM", "T12:30"},
		{"2021-06-15T07:15AM", "2021-06-15T07:15"},
		{"2020-02-29", "2020-02-29"},
		{"XXXX-02-29", "XXXX-02-29"},
		{"2020-W53", "2020-W53"},
		{"(T08PM,PT90M)", "(T20,PT1H30M)"},
		{"(XXXX-WXX-1,XXXX-WXX-5)", "(XXXX-WXX-1,XXXX-WXX-5)"},
		{"~P1W", "~P7D"},
		{"PRESENT_REF", "PRESENT_REF"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Normalize(MustParse(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestNormalizeEquivalentDurations(t *testing.T) {
	week, err := Normalize(MustParse("P1W"))
	require.NoError(t, err)
	days, err := Normalize(MustParse("P7D"))
	require.NoError(t, err)
	assert.True(t, week.Equal(days))
}

func TestNormalizeRejectsImpossibleDates(t *testing.T) {
	for _, text := range []string{
		"2021-02-29",
		"2021-02-30T10",
		"XXXX-02-30",
		"2021-04-31",
		"2021-W53",
		"2021-02-W05",
		"XXXX-02-W06",
		"XXXX-02-W06-1",
		"(2021-02-29,2021-03-01)",
		"(2021-03-01,2021-02-30)",
	} {
		t.Run(text, func(t *testing.T) {
			_, err := Normalize(MustParse(text))
			require.Error(t, err)
			assert.True(t, IsCode(err, ErrCodeInvalidDate), "got %v", err)
		})
	}

	_, err := Normalize(Expression{})
	assert.True(t, IsCode(err, ErrCodeMalformed))

	for _, text := range []string{"XXXX-02-W05", "XXXX-03-W06"} {
		_, err := Normalize(MustParse(text))
		assert.NoError(t, err, text)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, text := range canonical {
		t.Run(text, func(t *testing.T) {
			once, err := Normalize(MustParse(text))
			require.NoError(t, err)
			twice, err := Normalize(once)
			require.NoError(t, err)
			assert.True(t, once.Equal(twice))

			parsed, err := Parse(once.String())
			require.NoError(t, err)
			assert.True(t, once.Equal(parsed))
		})
	}
}
