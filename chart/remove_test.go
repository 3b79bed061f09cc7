package chart_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acorg/acmacs-chart-n/chart"
	"github.com/acorg/acmacs-chart-n/titertable"
)

// removalChart builds a 3 antigen x 2 serum chart with one projection whose
// layout rows are set to the combined point index, so a row's value
// directly reveals whether re-indexing happened correctly.
func removalChart(t *testing.T) *chart.Chart {
	t.Helper()
	table, err := titertable.NewDenseFromRows([][]string{
		{"40", "80"},
		{"<20", "160"},
		{"320", "*"},
	})
	require.NoError(t, err)

	ags := []chart.Antigen{{Name: "ag0"}, {Name: "ag1"}, {Name: "ag2"}}
	sera := []chart.Serum{{Name: "sr0"}, {Name: "sr1"}}
	c, err := chart.New(chart.Info{}, ags, sera, table)
	require.NoError(t, err)

	p, err := chart.NewProjection(5, 1)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		require.NoError(t, p.Layout().SetRow(i, []float64{float64(i)}))
	}
	p.SetUnmovable(4) // sr1
	p.SetAvidityAdjust(2, 1.5) // ag2
	require.NoError(t, c.AddProjection(p))

	return c
}

func TestRemoveAntigens_ReindexesTableAndProjection(t *testing.T) {
	c := removalChart(t)

	require.NoError(t, c.RemoveAntigens([]int{1})) // drop ag1

	assert.Equal(t, 2, c.NumberOfAntigens())
	ags := c.Antigens()
	assert.Equal(t, "ag0", ags[0].Name)
	assert.Equal(t, "ag2", ags[1].Name)

	// same_tables invariant: surviving (ag0,sr0) titer unchanged.
	v, err := c.Table().Titer(0, 0)
	require.NoError(t, err)
	got, _ := v.Value()
	assert.Equal(t, 40, got)
	// surviving (ag2 -> new row 1, sr0) titer unchanged.
	v, err = c.Table().Titer(1, 0)
	require.NoError(t, err)
	got, _ = v.Value()
	assert.Equal(t, 320, got)

	p, err := c.Projection(0)
	require.NoError(t, err)
	assert.Equal(t, 4, p.NumberOfPoints()) // 2 antigens + 2 sera

	// point order: ag0(old 0)->0, ag2(old 2)->1, sr0(old 3)->2, sr1(old 4)->3
	row, err := p.Layout().Row(1)
	require.NoError(t, err)
	assert.Equal(t, 2.0, row[0], "ag2's original coordinate (2) carried to its new row")

	assert.True(t, p.IsUnmovable(3), "sr1 remained unmovable at its new index")
	assert.Equal(t, 1.5, p.AvidityAdjust(1), "ag2's avidity adjust carried to its new index")
}

func TestRemoveSera_OutOfBounds(t *testing.T) {
	c := removalChart(t)
	err := c.RemoveSera([]int{9})
	assert.True(t, errors.Is(err, chart.ErrIndexOutOfBounds))
}

func TestRemoveAntigens_NoOp(t *testing.T) {
	c := removalChart(t)
	require.NoError(t, c.RemoveAntigens(nil))
	assert.Equal(t, 3, c.NumberOfAntigens())
}
