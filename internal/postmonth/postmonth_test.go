package postmonth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFor(t *testing.T) {
	assert.Equal(t, 201507, For(time.Date(2015, 7, 19, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 201612, For(time.Date(2016, 12, 31, 23, 59, 0, 0, time.UTC)))
}

func TestInternalExternalRoundTrip(t *testing.T) {
	for _, s := range []string{"01-2015", "07-2015", "12-1999", "02-2017"} {
		pm, err := Internal(s)
		require.NoError(t, err, "Internal(%q)", s)
		assert.Equal(t, s, External(pm))
	}
	pm, err := Internal("07-2015")
	require.NoError(t, err)
	assert.Equal(t, 201507, pm)
}

func TestInternal_Invalid(t *testing.T) {
	for _, s := range []string{"022017", "02-201", "012-2018", "02/2017", "ab-2017", "02-20a7", ""} {
		_, err := Internal(s)
		assert.ErrorIs(t, err, ErrInvalidPostmonth, "Internal(%q)", s)
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(201512))
	assert.ErrorIs(t, Validate(201513), ErrInvalidPostmonth)
	assert.ErrorIs(t, Validate(201500), ErrInvalidPostmonth)
	assert.ErrorIs(t, Validate(2015011), ErrInvalidPostmonth)
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"201507", 201507},
		{"07-2015", 201507},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
	_, err := Parse("2015-07")
	assert.ErrorIs(t, err, ErrInvalidPostmonth)
}

func TestStart(t *testing.T) {
	assert.Equal(t, time.Date(2015, 7, 1, 0, 0, 0, 0, time.UTC), Start(201507))
}
