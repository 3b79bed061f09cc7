package procrustes_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acorg/acmacs-chart-n/chart"
	"github.com/acorg/acmacs-chart-n/procrustes"
)

func projectionFromRows(t *testing.T, rows [][]float64) *chart.Projection {
	t.Helper()
	p, err := chart.NewProjection(len(rows), len(rows[0]))
	require.NoError(t, err)
	for i, row := range rows {
		require.NoError(t, p.Layout().SetRow(i, row))
	}

	return p
}

// rotate90 rotates a 2D point 90 degrees counter-clockwise.
func rotate90(x, y float64) (float64, float64) {
	return -y, x
}

func TestAlign_RecoversKnownRotationAndTranslation(t *testing.T) {
	primaryRows := [][]float64{{0, 0}, {1, 0}, {0, 1}, {2, 3}}
	secondaryRows := make([][]float64, len(primaryRows))
	const tx, ty = 5.0, -2.0
	for i, row := range primaryRows {
		rx, ry := rotate90(row[0], row[1])
		secondaryRows[i] = []float64{rx + tx, ry + ty}
	}

	primary := projectionFromRows(t, primaryRows)
	secondary := projectionFromRows(t, secondaryRows)

	common := []procrustes.Pair{{0, 0}, {1, 1}, {2, 2}, {3, 3}}
	result, err := procrustes.Align(primary, secondary, common, procrustes.Options{})
	require.NoError(t, err)

	assert.InDelta(t, 0, result.RMSResidual, 1e-6)
	assert.InDelta(t, 1.0, result.Scale, 1e-9)

	out, err := procrustes.Apply(secondary.Layout(), result)
	require.NoError(t, err)
	for i, row := range primaryRows {
		got, err := out.Row(i)
		require.NoError(t, err)
		for d := range row {
			assert.InDelta(t, row[d], got[d], 1e-6)
		}
	}
}

func TestAlign_RecoversKnownScale(t *testing.T) {
	primaryRows := [][]float64{{0, 0}, {2, 0}, {0, 2}, {4, 6}}
	const scale = 3.0
	secondaryRows := make([][]float64, len(primaryRows))
	for i, row := range primaryRows {
		secondaryRows[i] = []float64{row[0] / scale, row[1] / scale}
	}

	primary := projectionFromRows(t, primaryRows)
	secondary := projectionFromRows(t, secondaryRows)

	common := []procrustes.Pair{{0, 0}, {1, 1}, {2, 2}, {3, 3}}
	result, err := procrustes.Align(primary, secondary, common, procrustes.Options{Scaling: true})
	require.NoError(t, err)

	assert.InDelta(t, scale, result.Scale, 1e-6)
	assert.InDelta(t, 0, result.RMSResidual, 1e-6)
}

func TestAlign_DimensionMismatchErrors(t *testing.T) {
	primary := projectionFromRows(t, [][]float64{{0, 0}, {1, 1}})
	secondary, err := chart.NewProjection(2, 3)
	require.NoError(t, err)

	_, err = procrustes.Align(primary, secondary, []procrustes.Pair{{0, 0}}, procrustes.Options{})
	require.ErrorIs(t, err, procrustes.ErrDimensionMismatch)
}

func TestAlign_NoCommonPointsErrors(t *testing.T) {
	primary := projectionFromRows(t, [][]float64{{0, 0}, {1, 1}})
	secondary := projectionFromRows(t, [][]float64{{0, 0}, {1, 1}})

	_, err := procrustes.Align(primary, secondary, nil, procrustes.Options{})
	require.ErrorIs(t, err, procrustes.ErrNoCommonPoints)
}

func TestAlign_DegenerateScaleErrors(t *testing.T) {
	primary := projectionFromRows(t, [][]float64{{0, 0}, {1, 1}, {2, 0}})
	// Every secondary common point coincides, so Yc is all zero and
	// tr(YtJY) == 0.
	secondary := projectionFromRows(t, [][]float64{{3, 3}, {3, 3}, {3, 3}})

	common := []procrustes.Pair{{0, 0}, {1, 1}, {2, 2}}
	_, err := procrustes.Align(primary, secondary, common, procrustes.Options{Scaling: true})
	require.ErrorIs(t, err, procrustes.ErrDegenerateScale)
}

func TestApply_PreservesDisconnectedRows(t *testing.T) {
	primaryRows := [][]float64{{0, 0}, {1, 0}, {0, 1}}
	secondaryRows := [][]float64{{5, -2}, {4, -2}, {5, -1}}

	primary := projectionFromRows(t, primaryRows)
	secondary := projectionFromRows(t, secondaryRows)
	require.NoError(t, secondary.Layout().SetRow(2, []float64{math.NaN(), math.NaN()}))

	common := []procrustes.Pair{{0, 0}, {1, 1}}
	result, err := procrustes.Align(primary, secondary, common, procrustes.Options{})
	require.NoError(t, err)

	out, err := procrustes.Apply(secondary.Layout(), result)
	require.NoError(t, err)
	row, err := out.Row(2)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(row[0]))
	assert.True(t, math.IsNaN(row[1]))
}
