// Package chart_test exercises Chart construction, column bases, lineage,
// description formatting, and the table show/print path.
package chart_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acorg/acmacs-chart-n/chart"
	"github.com/acorg/acmacs-chart-n/titertable"
)

func smallChart(t *testing.T) *chart.Chart {
	t.Helper()
	table, err := titertable.NewDenseFromRows([][]string{
		{"40", "<20"},
		{"80", "160"},
	})
	require.NoError(t, err)

	ags := []chart.Antigen{{Name: "A/ANTIGEN/1/2020", Lineage: chart.LineageVictoria}, {Name: "A/ANTIGEN/2/2020"}}
	sera := []chart.Serum{{Name: "A/SERUM/1/2020"}, {Name: "A/SERUM/2/2020"}}

	c, err := chart.New(chart.Info{Virus: "INFLUENZA", Subtype: "H3N2", Lab: "CDC", Assay: "HI", DateMin: "2020-01-01", DateMax: "2020-12-31"}, ags, sera, table)
	require.NoError(t, err)

	return c
}

func TestNew_DimensionMismatch(t *testing.T) {
	table, err := titertable.NewDense(2, 2)
	require.NoError(t, err)

	_, err = chart.New(chart.Info{}, []chart.Antigen{{Name: "a"}}, []chart.Serum{{Name: "s"}, {Name: "s2"}}, table)
	assert.True(t, errors.Is(err, chart.ErrInvalidData))
}

func TestChart_Getters(t *testing.T) {
	c := smallChart(t)
	assert.Equal(t, 2, c.NumberOfAntigens())
	assert.Equal(t, 2, c.NumberOfSera())
	assert.Equal(t, 4, c.NumberOfPoints())

	ag, err := c.Antigen(0)
	require.NoError(t, err)
	assert.Equal(t, "A/ANTIGEN/1/2020", ag.Name)

	_, err = c.Antigen(5)
	assert.True(t, errors.Is(err, chart.ErrIndexOutOfBounds))
}

func TestChart_Description(t *testing.T) {
	c := smallChart(t)
	assert.Equal(t, "INFLUENZA/H3N2 (CDC, HI) AG:2 SR:2 2020-01-01-2020-12-31", c.Description())
}

func TestChart_Description_UnknownFallback(t *testing.T) {
	table, err := titertable.NewDense(1, 1)
	require.NoError(t, err)
	c, err := chart.New(chart.Info{}, []chart.Antigen{{Name: "a"}}, []chart.Serum{{Name: "s"}}, table)
	require.NoError(t, err)
	assert.Equal(t, "unknown/unknown (unknown, unknown) AG:1 SR:1 unknown-unknown", c.Description())
}

func TestChart_Lineage_Plurality(t *testing.T) {
	table, err := titertable.NewDense(3, 1)
	require.NoError(t, err)
	ags := []chart.Antigen{
		{Name: "a1", Lineage: chart.LineageVictoria},
		{Name: "a2", Lineage: chart.LineageVictoria},
		{Name: "a3", Lineage: chart.LineageYamagata},
	}
	c, err := chart.New(chart.Info{}, ags, []chart.Serum{{Name: "s"}}, table)
	require.NoError(t, err)
	assert.Equal(t, chart.LineageVictoria, c.Lineage())
}

func TestChart_ComputedColumnBases_CachedByMinimum(t *testing.T) {
	c := smallChart(t)

	none := titertable.NoMinimumColumnBasis()
	cb1, err := c.ComputedColumnBases(none, true)
	require.NoError(t, err)
	cb2, err := c.ComputedColumnBases(none, true)
	require.NoError(t, err)
	assert.Same(t, cb1, cb2, "same minimum key should hit the cache")

	mcb, err := titertable.ParseMinimumColumnBasis("1280")
	require.NoError(t, err)
	cb3, err := c.ComputedColumnBases(mcb, true)
	require.NoError(t, err)
	v0, err := cb3.Basis(0)
	require.NoError(t, err)
	assert.InDelta(t, 7.0, v0, 1e-9)
}

func TestChart_SetForcedColumnBases_WrongLength(t *testing.T) {
	c := smallChart(t)
	err := c.SetForcedColumnBases([]float64{1})
	assert.True(t, errors.Is(err, chart.ErrInvalidData))
}

func TestChart_ShowTable(t *testing.T) {
	c := smallChart(t)
	var buf bytes.Buffer
	require.NoError(t, c.ShowTable(&buf, nil))
	out := buf.String()
	assert.Contains(t, out, "A/SERUM/1/2020")
	assert.Contains(t, out, "40")
	assert.Contains(t, out, "<20")
}

func TestChart_AddProjection_WrongPointCount(t *testing.T) {
	c := smallChart(t)
	p, err := chart.NewProjection(1, 2)
	require.NoError(t, err)
	err = c.AddProjection(p)
	assert.True(t, errors.Is(err, chart.ErrInvalidData))
}

func TestChart_SortProjectionsByStress(t *testing.T) {
	c := smallChart(t)
	p1, err := chart.NewProjection(4, 2)
	require.NoError(t, err)
	p1.SetStoredStress(5)
	p2, err := chart.NewProjection(4, 2)
	require.NoError(t, err)
	p2.SetStoredStress(1)

	require.NoError(t, c.AddProjection(p1))
	require.NoError(t, c.AddProjection(p2))
	c.SortProjectionsByStress()

	best, err := c.Projection(0)
	require.NoError(t, err)
	s, _ := best.StoredStress()
	assert.Equal(t, 1.0, s)
}
