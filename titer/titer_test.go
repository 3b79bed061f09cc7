// Package titer_test exercises parsing, round-tripping, and the numeric
// projections (Logged, LoggedWithThresholded, LoggedForColumnBases,
// ValueForSorting) of titer.Titer across all five kinds.
package titer_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acorg/acmacs-chart-n/titer"
)

func TestFromString_Kinds(t *testing.T) {
	cases := []struct {
		in   string
		kind titer.Kind
		v    int
	}{
		{"40", titer.Regular, 40},
		{"<20", titer.LessThan, 20},
		{">1280", titer.MoreThan, 1280},
		{"~80", titer.Dodgy, 80},
		{"*", titer.DontCare, 0},
	}

	for _, c := range cases {
		tt, err := titer.FromString(c.in)
		require.NoErrorf(t, err, "FromString(%q)", c.in)
		assert.Equal(t, c.kind, tt.Kind(), "kind for %q", c.in)

		v, ok := tt.Value()
		if c.kind == titer.DontCare {
			assert.False(t, ok)
		} else {
			assert.True(t, ok)
			assert.Equal(t, c.v, v)
		}
	}
}

// TestFromString_RoundTrip verifies testable property 1:
// for every Titer T, Titer.from_string(T.to_string()) == T.
func TestFromString_RoundTrip(t *testing.T) {
	inputs := []string{"40", "<20", ">1280", "~80", "*", "1", "10240"}
	for _, in := range inputs {
		tt, err := titer.FromString(in)
		require.NoError(t, err)

		back, err := titer.FromString(tt.String())
		require.NoError(t, err)
		assert.Equal(t, tt, back, "round-trip for %q", in)
	}
}

func TestFromString_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "<", ">", "~", "0", "<0", "-5", "  "} {
		_, err := titer.FromString(in)
		assert.Truef(t, errors.Is(err, titer.ErrInvalidTiter), "FromString(%q) should fail", in)
	}
}

func TestFromInt(t *testing.T) {
	tt, err := titer.FromInt(40)
	require.NoError(t, err)
	assert.True(t, tt.IsRegular())
	v, ok := tt.Value()
	assert.True(t, ok)
	assert.Equal(t, 40, v)

	_, err = titer.FromInt(0)
	assert.True(t, errors.Is(err, titer.ErrInvalidTiter))
}

func TestDontCareTiter(t *testing.T) {
	tt := titer.DontCareTiter()
	assert.True(t, tt.IsDontCare())
	assert.Equal(t, "*", tt.String())
	_, ok := tt.Value()
	assert.False(t, ok)
}

// TestLoggedForColumnBases_Scenario reproduces concrete scenario S1: inputs "40", "<20", ">1280", "~80", "*" map to
// logged_for_column_bases 2, 1, 8, -1, -1 respectively.
func TestLoggedForColumnBases_Scenario(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"40", 2},
		{"<20", 1},
		{">1280", 8},
		{"~80", -1},
		{"*", -1},
	}

	for _, c := range cases {
		tt, err := titer.FromString(c.in)
		require.NoError(t, err)
		got := tt.LoggedForColumnBases()
		assert.InDeltaf(t, c.want, got, 1e-9, "LoggedForColumnBases(%q)", c.in)
	}
}

func TestLogged(t *testing.T) {
	regular, err := titer.FromString("40")
	require.NoError(t, err)
	v, err := regular.Logged()
	require.NoError(t, err)
	assert.InDelta(t, 2.0, v, 1e-9)

	lessThan, err := titer.FromString("<20")
	require.NoError(t, err)
	v, err = lessThan.Logged()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, v, 1e-9)

	moreThan, err := titer.FromString(">1280")
	require.NoError(t, err)
	v, err = moreThan.Logged()
	require.NoError(t, err)
	assert.InDelta(t, 8.0, v, 1e-9)

	dodgy, err := titer.FromString("~80")
	require.NoError(t, err)
	v, err = dodgy.Logged()
	require.NoError(t, err)
	assert.InDelta(t, 3.0, v, 1e-9)

	_, err = titer.DontCareTiter().Logged()
	assert.True(t, errors.Is(err, titer.ErrInvalidTiter))
}

func TestLoggedWithThresholded(t *testing.T) {
	lessThan, err := titer.FromString("<20")
	require.NoError(t, err)
	v, err := lessThan.LoggedWithThresholded()
	require.NoError(t, err)
	assert.InDelta(t, 0.0, v, 1e-9) // log2(2)-1 == 0

	moreThan, err := titer.FromString(">1280")
	require.NoError(t, err)
	v, err = moreThan.LoggedWithThresholded()
	require.NoError(t, err)
	assert.InDelta(t, 8.0, v, 1e-9) // unchanged from Logged

	regular, err := titer.FromString("40")
	require.NoError(t, err)
	v, err = regular.LoggedWithThresholded()
	require.NoError(t, err)
	assert.InDelta(t, 2.0, v, 1e-9) // unchanged from Logged
}

func TestValueForSorting(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"40", 40},
		{"<20", 19},
		{">1280", 1281},
		{"~80", 80},
		{"*", 0},
	}
	for _, c := range cases {
		tt, err := titer.FromString(c.in)
		require.NoError(t, err)
		assert.Equal(t, c.want, tt.ValueForSorting(), "ValueForSorting(%q)", c.in)
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "dont-care", titer.DontCare.String())
	assert.Equal(t, "regular", titer.Regular.String())
	assert.Equal(t, "less-than", titer.LessThan.String())
	assert.Equal(t, "more-than", titer.MoreThan.String())
	assert.Equal(t, "dodgy", titer.Dodgy.String())
}

func TestIsKindPredicates(t *testing.T) {
	moreThan, err := titer.FromString(">640")
	require.NoError(t, err)
	assert.True(t, moreThan.IsMoreThan())
	assert.False(t, moreThan.IsRegular())
	assert.False(t, moreThan.IsLessThan())
	assert.False(t, moreThan.IsDodgy())
	assert.False(t, moreThan.IsDontCare())
}

func TestLoggedForColumnBases_NeverErrors(t *testing.T) {
	// LoggedForColumnBases must be safe to call on every kind, including
	// DontCare, without a panic or an error return.
	assert.Equal(t, -1.0, titer.DontCareTiter().LoggedForColumnBases())
	assert.False(t, math.IsNaN(titer.DontCareTiter().LoggedForColumnBases()))
}
