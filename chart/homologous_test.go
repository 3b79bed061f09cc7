package chart_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acorg/acmacs-chart-n/chart"
	"github.com/acorg/acmacs-chart-n/titertable"
)

func homologousChart(t *testing.T) *chart.Chart {
	t.Helper()
	table, err := titertable.NewDense(3, 2)
	require.NoError(t, err)

	ags := []chart.Antigen{
		{Name: "A/X/1/2020", Passage: "MDCK1"},
		{Name: "A/X/1/2020", Passage: "E1"},
		{Name: "A/Y/1/2020", Passage: "MDCK1"},
	}
	sera := []chart.Serum{
		{Name: "A/X/1/2020", Passage: "MDCK1"},
		{Name: "A/X/1/2020", SerumID: "F-EGG-01"},
	}
	c, err := chart.New(chart.Info{}, ags, sera, table)
	require.NoError(t, err)

	return c
}

func TestSetHomologous_Strict(t *testing.T) {
	c := homologousChart(t)
	c.SetHomologous(chart.HomologousOptions{Policy: chart.HomologousStrict})

	sera := c.Sera()
	assert.Equal(t, []int{0}, sera[0].HomologousAntigens, "serum 0 matches antigen 0 on exact passage")
	assert.Equal(t, []int{1}, sera[1].HomologousAntigens, "serum 1 has no passage, falls back to egg category: EGG antigen is index 1")
}

func TestSetHomologous_All(t *testing.T) {
	c := homologousChart(t)
	c.SetHomologous(chart.HomologousOptions{Policy: chart.HomologousAll})

	sera := c.Sera()
	assert.ElementsMatch(t, []int{0, 1}, sera[0].HomologousAntigens, "all candidates sharing name/reassortant/annotations")
}

func TestSetHomologous_RelaxedStrict_FallsBackOnNoStrictMatch(t *testing.T) {
	table, err := titertable.NewDense(1, 1)
	require.NoError(t, err)
	ags := []chart.Antigen{{Name: "A/X/1/2020", Passage: "E1"}}
	sera := []chart.Serum{{Name: "A/X/1/2020", Passage: "MDCK1"}}
	c, err := chart.New(chart.Info{}, ags, sera, table)
	require.NoError(t, err)

	c.SetHomologous(chart.HomologousOptions{Policy: chart.HomologousRelaxedStrict})
	got := c.Sera()[0].HomologousAntigens
	assert.Empty(t, got, "strict fails (MDCK1 vs E1): the serum has no EGG in its serum_id, so it counts as non-egg while the only candidate is an egg passage, so relaxed_strict's egg-category fallback also finds nothing")
}
