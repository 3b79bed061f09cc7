package titertable_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acorg/acmacs-chart-n/titertable"
)

func mustMCB(t *testing.T, s string) titertable.MinimumColumnBasis {
	t.Helper()
	mcb, err := titertable.ParseMinimumColumnBasis(s)
	require.NoError(t, err)

	return mcb
}

func TestParseMinimumColumnBasis_None(t *testing.T) {
	mcb := mustMCB(t, "none")
	assert.True(t, mcb.None())
	_, ok := mcb.Value()
	assert.False(t, ok)
	assert.Equal(t, "none", mcb.String())
}

// TestParseMinimumColumnBasis_Numeral resolves the open question: "1280"
// means log2(1280/10) = log2(128) = 7, the numeral treated as a titer value.
func TestParseMinimumColumnBasis_Numeral(t *testing.T) {
	mcb, err := titertable.ParseMinimumColumnBasis("1280")
	require.NoError(t, err)
	v, ok := mcb.Value()
	require.True(t, ok)
	assert.InDelta(t, 7.0, v, 1e-9)
}

func TestParseMinimumColumnBasis_Invalid(t *testing.T) {
	_, err := titertable.ParseMinimumColumnBasis("<40")
	assert.True(t, errors.Is(err, titertable.ErrInvalidData))
}

func TestComputeColumnBases_MaxReduction(t *testing.T) {
	tbl, err := titertable.NewDense(2, 2)
	require.NoError(t, err)
	require.NoError(t, tbl.SetTiter(0, 0, mustTiter(t, "40")))  // logged 2
	require.NoError(t, tbl.SetTiter(1, 0, mustTiter(t, "160"))) // logged 4
	require.NoError(t, tbl.SetTiter(0, 1, mustTiter(t, "~80"))) // dodgy, ignored
	require.NoError(t, tbl.SetTiter(1, 1, mustTiter(t, "*")))   // dont-care, ignored

	cb, err := titertable.ComputeColumnBases(tbl, titertable.NoMinimumColumnBasis())
	require.NoError(t, err)
	require.Equal(t, 2, cb.Size())

	v0, err := cb.Basis(0)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, v0, 1e-9)

	v1, err := cb.Basis(1)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, v1, 1e-9, "all-dodgy/dont-care column falls back to 0")
}

func TestComputeColumnBases_MinimumFloor(t *testing.T) {
	tbl, err := titertable.NewDense(1, 1)
	require.NoError(t, err)
	require.NoError(t, tbl.SetTiter(0, 0, mustTiter(t, "40"))) // logged 2

	cb, err := titertable.ComputeColumnBases(tbl, mustMCB(t, "1280")) // floor 7
	require.NoError(t, err)
	v, err := cb.Basis(0)
	require.NoError(t, err)
	assert.InDelta(t, 7.0, v, 1e-9)
}

func TestApplyForced_DominatesMinimum(t *testing.T) {
	computed := titertable.NewColumnBases([]float64{2, 2})
	forced := []float64{5, math.NaN()}

	out, err := titertable.ApplyForced(computed, forced, titertable.NoMinimumColumnBasis())
	require.NoError(t, err)
	v0, _ := out.Basis(0)
	v1, _ := out.Basis(1)
	assert.InDelta(t, 5.0, v0, 1e-9, "forced value used")
	assert.InDelta(t, 2.0, v1, 1e-9, "NaN forced entry falls back to computed")
}

func TestApplyForced_BelowMinimumFallsBackToComputed(t *testing.T) {
	computed, err := titertable.ComputeColumnBases(mustTable(t), mustMCB(t, "1280")) // floor 7
	require.NoError(t, err)
	forced := []float64{1} // below floor 7

	out, err := titertable.ApplyForced(computed, forced, mustMCB(t, "1280"))
	require.NoError(t, err)
	v0, err := out.Basis(0)
	require.NoError(t, err)
	assert.InDelta(t, 7.0, v0, 1e-9, "minimum applies, forced value below floor is rejected")
}

func TestApplyForced_LengthMismatch(t *testing.T) {
	computed := titertable.NewColumnBases([]float64{1, 2})
	_, err := titertable.ApplyForced(computed, []float64{1}, titertable.NoMinimumColumnBasis())
	assert.True(t, errors.Is(err, titertable.ErrInvalidData))
}

func mustTable(t *testing.T) *titertable.Table {
	t.Helper()
	tbl, err := titertable.NewDense(1, 1)
	require.NoError(t, err)
	require.NoError(t, tbl.SetTiter(0, 0, mustTiter(t, "40")))

	return tbl
}
