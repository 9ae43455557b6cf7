package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string // empty means nil expected
	}{
		{"formatted", "(212) 555-1234", "2125551234"},
		{"dashes", "212-555-0000", "2125550000"},
		{"plain digits", "2125551234", "2125551234"},
		{"seven digits", "555-1234", ""},
		{"eleven digits", "1-212-555-1234", ""},
		{"empty", "", ""},
		{"letters only", "call me", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizePhone(tc.in)
			if tc.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tc.want, *got)
		})
	}
}

func TestLineBreaksRoundTrip(t *testing.T) {
	original := "half price wings\nkaraoke at nine\ntrivia tuesdays"

	stored := EncodeLineBreaks(original)
	assert.NotContains(t, stored, "\n")
	assert.Equal(t, original, DecodeLineBreaks(stored))
}

func TestEncodeLineBreaksHandlesCarriageReturns(t *testing.T) {
	assert.Equal(t, "a<br>b", EncodeLineBreaks("a\r\nb"))
	assert.Equal(t, "a<br>b", EncodeLineBreaks("a\nb"))
}

func TestValidTagValue(t *testing.T) {
	assert.True(t, ValidTagValue("food"))
	assert.True(t, ValidTagValue("live-music"))
	assert.True(t, ValidTagValue("24-7"))

	assert.False(t, ValidTagValue(""))
	assert.False(t, ValidTagValue("Food"))
	assert.False(t, ValidTagValue("food trucks"))
	assert.False(t, ValidTagValue("café"))
	assert.False(t, ValidTagValue("food_trucks"))
}
