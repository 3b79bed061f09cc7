package chart_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acorg/acmacs-chart-n/chart"
	"github.com/acorg/acmacs-chart-n/matrix"
)

func TestProjection_PointSets(t *testing.T) {
	p, err := chart.NewProjection(3, 2)
	require.NoError(t, err)

	p.SetUnmovable(0)
	p.SetDisconnected(1)
	p.SetUnmovableInLastDimension(2)

	assert.True(t, p.IsUnmovable(0))
	assert.False(t, p.IsUnmovable(1))
	assert.True(t, p.IsDisconnected(1))
	assert.True(t, p.IsUnmovableInLastDimension(2))
}

func TestProjection_AvidityAdjusts(t *testing.T) {
	p, err := chart.NewProjection(2, 2)
	require.NoError(t, err)
	p.SetAvidityAdjust(1, 0.5)
	assert.Equal(t, 0.5, p.AvidityAdjust(1))
	assert.Equal(t, 0.0, p.AvidityAdjust(0))
}

func TestProjection_TransformedLayout_Identity(t *testing.T) {
	p, err := chart.NewProjection(2, 2)
	require.NoError(t, err)
	require.NoError(t, p.Layout().SetRow(0, []float64{1, 2}))

	out, err := p.TransformedLayout()
	require.NoError(t, err)
	row, err := out.Row(0)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, row)
}

func TestProjection_TransformedLayout_RotationAndTranslation(t *testing.T) {
	p, err := chart.NewProjection(1, 2)
	require.NoError(t, err)
	require.NoError(t, p.Layout().SetRow(0, []float64{1, 0}))

	// 90-degree rotation matrix.
	rot, err := matrix.NewDenseFromRows([][]float64{{0, -1}, {1, 0}})
	require.NoError(t, err)
	p.SetTransformation(chart.Transformation{Matrix: rot, Translation: []float64{10, 10}})

	out, err := p.TransformedLayout()
	require.NoError(t, err)
	row, err := out.Row(0)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, row[0], 1e-9)
	assert.InDelta(t, 11.0, row[1], 1e-9)
}

func TestProjection_TransformedLayout_PreservesNaN(t *testing.T) {
	p, err := chart.NewProjection(1, 2)
	require.NoError(t, err)
	require.NoError(t, p.Layout().SetRow(0, []float64{math.NaN(), math.NaN()}))
	p.SetTransformation(chart.Transformation{Translation: []float64{1, 1}})

	out, err := p.TransformedLayout()
	require.NoError(t, err)
	row, err := out.Row(0)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(row[0]))
}

func TestProjection_Clone_Independent(t *testing.T) {
	p, err := chart.NewProjection(2, 2)
	require.NoError(t, err)
	p.SetUnmovable(0)
	p.SetAvidityAdjust(1, 2.0)
	require.NoError(t, p.Layout().SetRow(0, []float64{1, 1}))

	clone := p.Clone()
	require.NoError(t, clone.Layout().SetRow(0, []float64{9, 9}))
	clone.SetAvidityAdjust(1, 99)

	row, err := p.Layout().Row(0)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1}, row, "original layout unaffected by clone mutation")
	assert.Equal(t, 2.0, p.AvidityAdjust(1), "original avidity map unaffected by clone mutation")
	assert.True(t, clone.IsUnmovable(0))
}

func TestProjection_StoredStress(t *testing.T) {
	p, err := chart.NewProjection(1, 2)
	require.NoError(t, err)
	_, ok := p.StoredStress()
	assert.False(t, ok)

	p.SetStoredStress(3.14)
	v, ok := p.StoredStress()
	assert.True(t, ok)
	assert.InDelta(t, 3.14, v, 1e-9)
}
