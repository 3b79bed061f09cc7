package chartio_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acorg/acmacs-chart-n/chart"
	"github.com/acorg/acmacs-chart-n/chartio"
	"github.com/acorg/acmacs-chart-n/titertable"
)

func sampleChart(t *testing.T) *chart.Chart {
	t.Helper()
	table, err := titertable.NewDenseFromRows([][]string{
		{"40", "<10", "*"},
		{"80", "160", ">1280"},
	})
	require.NoError(t, err)

	layer, err := titertable.NewDenseFromRows([][]string{
		{"40", "*", "*"},
		{"*", "*", ">1280"},
	})
	require.NoError(t, err)
	require.NoError(t, table.AddLayer(layer))

	antigens := []chart.Antigen{
		{Name: "A/PERTH/16/2009", Passage: "MDCK1", Reassortant: "NYMC-X", Annotations: []string{"DISTINCT"}, Reference: true},
		{Name: "A/VICTORIA/1/2011", Passage: "E3", Lineage: chart.LineageVictoria, Date: "2011-05-01"},
	}
	sera := []chart.Serum{
		{Name: "S1", SerumID: "SID1", HomologousAntigens: []int{0}},
		{Name: "S2", Passage: "MDCK2"},
		{Name: "S3", SerumSpecies: "ferret"},
	}

	c, err := chart.New(chart.Info{Virus: "influenza", Subtype: "H3N2", Lab: "CDC"}, antigens, sera, table)
	require.NoError(t, err)
	require.NoError(t, c.SetForcedColumnBases([]float64{5, math.NaN(), 7}))
	c.SetPlotSpec(chart.PlotSpec{DrawingOrder: []int{1, 0}, Styles: map[string]string{"0": "circle"}})

	p, err := chart.NewProjection(c.NumberOfPoints(), 2)
	require.NoError(t, err)
	require.NoError(t, p.Layout().SetRow(0, []float64{1.5, -2.0}))
	require.NoError(t, p.Layout().SetRow(1, []float64{math.NaN(), math.NaN()}))
	require.NoError(t, p.Layout().SetRow(2, []float64{0.5, 0.5}))
	require.NoError(t, p.Layout().SetRow(3, []float64{2.5, 1.5}))
	require.NoError(t, p.Layout().SetRow(4, []float64{-1.0, 3.0}))
	p.SetDisconnected(1)
	p.SetUnmovable(0)
	p.SetAvidityAdjust(2, 0.25)
	p.SetStoredStress(3.75)
	require.NoError(t, c.AddProjection(p))

	return c
}

func TestRoundTrip_PreservesAntigensSeraAndTiters(t *testing.T) {
	c := sampleChart(t)

	data, err := chartio.Marshal(c)
	require.NoError(t, err)

	c2, err := chartio.Unmarshal(data)
	require.NoError(t, err)

	assert.Equal(t, c.Antigens(), c2.Antigens())
	assert.Equal(t, c.Sera(), c2.Sera())

	assert.Equal(t, c.NumberOfAntigens(), c2.NumberOfAntigens())
	assert.Equal(t, c.NumberOfSera(), c2.NumberOfSera())
	for a := 0; a < c.NumberOfAntigens(); a++ {
		for s := 0; s < c.NumberOfSera(); s++ {
			v1, err := c.Table().Titer(a, s)
			require.NoError(t, err)
			v2, err := c2.Table().Titer(a, s)
			require.NoError(t, err)
			assert.Equal(t, v1.String(), v2.String())
		}
	}
	assert.Equal(t, c.Table().NumberOfLayers(), c2.Table().NumberOfLayers())
}

func TestRoundTrip_PreservesForcedColumnBasesWithNaN(t *testing.T) {
	c := sampleChart(t)

	data, err := chartio.Marshal(c)
	require.NoError(t, err)
	c2, err := chartio.Unmarshal(data)
	require.NoError(t, err)

	forced := c2.ForcedColumnBases()
	require.Len(t, forced, 3)
	assert.Equal(t, 5.0, forced[0])
	assert.True(t, math.IsNaN(forced[1]))
	assert.Equal(t, 7.0, forced[2])
}

func TestRoundTrip_PreservesPlotSpec(t *testing.T) {
	c := sampleChart(t)

	data, err := chartio.Marshal(c)
	require.NoError(t, err)
	c2, err := chartio.Unmarshal(data)
	require.NoError(t, err)

	assert.Equal(t, c.PlotSpec(), c2.PlotSpec())
}

func TestRoundTrip_PreservesProjectionLayoutAndFlags(t *testing.T) {
	c := sampleChart(t)

	data, err := chartio.Marshal(c)
	require.NoError(t, err)
	c2, err := chartio.Unmarshal(data)
	require.NoError(t, err)

	require.Equal(t, 1, c2.NumberOfProjections())
	p2, err := c2.Projection(0)
	require.NoError(t, err)

	row0, err := p2.Layout().Row(0)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, -2.0}, row0)

	row1, err := p2.Layout().Row(1)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(row1[0]))
	assert.True(t, math.IsNaN(row1[1]))

	assert.True(t, p2.IsDisconnected(1))
	assert.True(t, p2.IsUnmovable(0))
	assert.Equal(t, 0.25, p2.AvidityAdjust(2))
	stress, ok := p2.StoredStress()
	require.True(t, ok)
	assert.Equal(t, 3.75, stress)
}

func TestImport_EmptyAntigensIsMalformed(t *testing.T) {
	_, err := chartio.Unmarshal([]byte(`{"info":{},"antigens":[],"sera":[{"name":"s"}],"table":{"base":[]}}`))
	require.ErrorIs(t, err, chartio.ErrMalformed)
}
