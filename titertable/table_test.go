// Package titertable_test exercises dense/sparse storage, layered merge
// ("most recent wins"), and the auto-disconnect threshold helper.
package titertable_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acorg/acmacs-chart-n/titer"
	"github.com/acorg/acmacs-chart-n/titertable"
)

func mustTiter(t *testing.T, s string) titer.Titer {
	t.Helper()
	tt, err := titer.FromString(s)
	require.NoError(t, err)

	return tt
}

func TestDenseTable_SetAndGet(t *testing.T) {
	tbl, err := titertable.NewDense(2, 3)
	require.NoError(t, err)
	require.Equal(t, 2, tbl.NumberOfAntigens())
	require.Equal(t, 3, tbl.NumberOfSera())

	require.NoError(t, tbl.SetTiter(0, 1, mustTiter(t, "40")))
	v, err := tbl.Titer(0, 1)
	require.NoError(t, err)
	assert.True(t, v.IsRegular())

	empty, err := tbl.Titer(1, 2)
	require.NoError(t, err)
	assert.True(t, empty.IsDontCare())
}

func TestDenseTable_OutOfBounds(t *testing.T) {
	tbl, err := titertable.NewDense(2, 2)
	require.NoError(t, err)

	_, err = tbl.Titer(2, 0)
	assert.True(t, errors.Is(err, titertable.ErrIndexOutOfBounds))

	err = tbl.SetTiter(0, -1, titer.DontCareTiter())
	assert.True(t, errors.Is(err, titertable.ErrIndexOutOfBounds))
}

func TestNewDenseFromRows_MismatchedRow(t *testing.T) {
	_, err := titertable.NewDenseFromRows([][]string{{"40", "80"}, {"*"}})
	assert.True(t, errors.Is(err, titertable.ErrInvalidData))
}

func TestSparseTable_SetAndGet(t *testing.T) {
	tbl, err := titertable.NewSparse(3, 3)
	require.NoError(t, err)

	require.NoError(t, tbl.SetTiter(1, 1, mustTiter(t, "<20")))
	v, err := tbl.Titer(1, 1)
	require.NoError(t, err)
	assert.True(t, v.IsLessThan())

	other, err := tbl.Titer(0, 0)
	require.NoError(t, err)
	assert.True(t, other.IsDontCare())

	// setting back to DontCare removes the sparse entry.
	require.NoError(t, tbl.SetTiter(1, 1, titer.DontCareTiter()))
	v, err = tbl.Titer(1, 1)
	require.NoError(t, err)
	assert.True(t, v.IsDontCare())
}

func TestLayers_MostRecentWins(t *testing.T) {
	tbl, err := titertable.NewDense(1, 1)
	require.NoError(t, err)

	older, err := titertable.NewDense(1, 1)
	require.NoError(t, err)
	require.NoError(t, older.SetTiter(0, 0, mustTiter(t, "40")))

	newer, err := titertable.NewDense(1, 1)
	require.NoError(t, err)
	require.NoError(t, newer.SetTiter(0, 0, mustTiter(t, "80")))

	require.NoError(t, tbl.AddLayer(older))
	require.NoError(t, tbl.AddLayer(newer))
	require.Equal(t, 2, tbl.NumberOfLayers())

	merged, err := tbl.Titer(0, 0)
	require.NoError(t, err)
	v, _ := merged.Value()
	assert.Equal(t, 80, v, "the later layer's value wins")

	fromOld, err := tbl.TiterOfLayer(0, 0, 0)
	require.NoError(t, err)
	v, _ = fromOld.Value()
	assert.Equal(t, 40, v)
}

func TestLayers_DimensionMismatch(t *testing.T) {
	tbl, err := titertable.NewDense(2, 2)
	require.NoError(t, err)
	bad, err := titertable.NewDense(1, 1)
	require.NoError(t, err)

	err = tbl.AddLayer(bad)
	assert.True(t, errors.Is(err, titertable.ErrInvalidData))
}

func TestAntigensSeraOfLayer(t *testing.T) {
	tbl, err := titertable.NewDense(2, 2)
	require.NoError(t, err)
	layer, err := titertable.NewDense(2, 2)
	require.NoError(t, err)
	require.NoError(t, layer.SetTiter(1, 0, mustTiter(t, "40")))
	require.NoError(t, tbl.AddLayer(layer))

	ags, sera, err := tbl.AntigensSeraOfLayer(0)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, ags)
	assert.Equal(t, []int{0}, sera)
}

func TestHavingTooFewNumericTiters(t *testing.T) {
	tbl, err := titertable.NewDense(2, 2)
	require.NoError(t, err)
	// antigen 0 x serum 0 and serum 1 both regular: antigen 0 has 2 regular
	// titers, antigen 1 has 0, serum 0 has 1, serum 1 has 1.
	require.NoError(t, tbl.SetTiter(0, 0, mustTiter(t, "40")))
	require.NoError(t, tbl.SetTiter(0, 1, mustTiter(t, "80")))

	points := tbl.HavingTooFewNumericTiters(2)
	// combined index space: antigens [0,1], sera [2,3]
	assert.Contains(t, points, 1) // antigen 1, zero regular titers
	assert.Contains(t, points, 2) // serum 0, one regular titer
	assert.Contains(t, points, 3) // serum 1, one regular titer
	assert.NotContains(t, points, 0)
}

func TestNumberOfNonDontCares_AllDontCare(t *testing.T) {
	tbl, err := titertable.NewDense(3, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.NumberOfNonDontCares())
}

func TestSetProportionOfTitersToDontCare_Deterministic(t *testing.T) {
	tbl, err := titertable.NewDense(10, 10)
	require.NoError(t, err)
	for a := 0; a < 10; a++ {
		for s := 0; s < 10; s++ {
			require.NoError(t, tbl.SetTiter(a, s, mustTiter(t, "40")))
		}
	}

	a1, err := tbl.SetProportionOfTitersToDontCare(0.3, 42)
	require.NoError(t, err)
	a2, err := tbl.SetProportionOfTitersToDontCare(0.3, 42)
	require.NoError(t, err)

	for a := 0; a < 10; a++ {
		for s := 0; s < 10; s++ {
			v1, _ := a1.Titer(a, s)
			v2, _ := a2.Titer(a, s)
			assert.Equal(t, v1.IsDontCare(), v2.IsDontCare(), "same seed must be deterministic at (%d,%d)", a, s)
		}
	}

	// original table is untouched.
	assert.Equal(t, 100, tbl.NumberOfNonDontCares())
}

func TestSetProportionOfTitersToDontCare_InvalidProportion(t *testing.T) {
	tbl, err := titertable.NewDense(1, 1)
	require.NoError(t, err)
	_, err = tbl.SetProportionOfTitersToDontCare(1.5, 1)
	assert.True(t, errors.Is(err, titertable.ErrInvalidData))
}
