package merge_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acorg/acmacs-chart-n/chart"
	"github.com/acorg/acmacs-chart-n/merge"
	"github.com/acorg/acmacs-chart-n/titertable"
)

func buildChart(t *testing.T, antigens []chart.Antigen, sera []chart.Serum, rows [][]string) *chart.Chart {
	t.Helper()
	table, err := titertable.NewDenseFromRows(rows)
	require.NoError(t, err)
	c, err := chart.New(chart.Info{}, antigens, sera, table)
	require.NoError(t, err)

	return c
}

func twoChartsWithOneCommonAntigenAndSerum(t *testing.T) (*chart.Chart, *chart.Chart) {
	t.Helper()
	primary := buildChart(t,
		[]chart.Antigen{{Name: "v1", Passage: "MDCK1"}, {Name: "v2", Passage: "MDCK1"}},
		[]chart.Serum{{Name: "s1", SerumID: "S1"}},
		[][]string{{"40"}, {"80"}},
	)
	secondary := buildChart(t,
		[]chart.Antigen{{Name: "v2", Passage: "MDCK1"}, {Name: "v3", Passage: "MDCK1"}},
		[]chart.Serum{{Name: "s1", SerumID: "S1"}, {Name: "s2", SerumID: "S2"}},
		[][]string{{"80", "20"}, {"160", "40"}},
	)

	return primary, secondary
}

func TestMerge_Type1_AntigenAndSeraOrderAndMaps(t *testing.T) {
	primary, secondary := twoChartsWithOneCommonAntigenAndSerum(t)
	opts := merge.DefaultOptions()
	opts.MatchLevel = merge.Relaxed
	opts.ProjectionType = merge.Type1

	result, err := merge.Merge(primary, secondary, opts)
	require.NoError(t, err)

	require.Len(t, result.CommonAntigens, 1)
	assert.Equal(t, 1, result.CommonAntigens[0].Primary)
	assert.Equal(t, 0, result.CommonAntigens[0].Secondary)

	require.Len(t, result.CommonSera, 1)

	// Merged antigens: v1, v2 (primary), v3 (secondary-only).
	assert.Equal(t, 3, result.Chart.NumberOfAntigens())
	ag2, err := result.Chart.Antigen(2)
	require.NoError(t, err)
	assert.Equal(t, "v3", ag2.Name)

	// Merged sera: s1 (primary), s2 (secondary-only).
	assert.Equal(t, 2, result.Chart.NumberOfSera())
	sr1, err := result.Chart.Serum(1)
	require.NoError(t, err)
	assert.Equal(t, "s2", sr1.Name)

	assert.Equal(t, []int{0, 1}, result.PrimaryAntigens)
	assert.Equal(t, []int{1, 2}, result.SecondaryAntigens)
	assert.Equal(t, []int{0}, result.PrimarySera)
	assert.Equal(t, []int{0, 1}, result.SecondarySera)

	assert.Equal(t, 0, result.Chart.NumberOfProjections())
}

func TestMerge_MergedTableCarriesLayersFromBothInputs(t *testing.T) {
	primary, secondary := twoChartsWithOneCommonAntigenAndSerum(t)
	opts := merge.DefaultOptions()
	opts.MatchLevel = merge.Relaxed

	result, err := merge.Merge(primary, secondary, opts)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Chart.Table().NumberOfLayers())

	// v1/s1 came only from primary: titer "40".
	v, err := result.Chart.Table().Titer(0, 0)
	require.NoError(t, err)
	assert.Equal(t, "40", v.String())

	// v3/s2 came only from secondary: titer "40" at secondary (1,1).
	v, err = result.Chart.Table().Titer(2, 1)
	require.NoError(t, err)
	assert.Equal(t, "40", v.String())
}

func TestMerge_StrictLevelFindsNoCommonWhenPassagesDiffer(t *testing.T) {
	primary := buildChart(t,
		[]chart.Antigen{{Name: "v1", Passage: "E1"}},
		[]chart.Serum{{Name: "s1", SerumID: "S1"}},
		[][]string{{"40"}},
	)
	secondary := buildChart(t,
		[]chart.Antigen{{Name: "v1", Passage: "MDCK1"}},
		[]chart.Serum{{Name: "s1", SerumID: "S1"}},
		[][]string{{"40"}},
	)

	opts := merge.DefaultOptions()
	opts.MatchLevel = merge.Strict
	result, err := merge.Merge(primary, secondary, opts)
	require.NoError(t, err)

	assert.Empty(t, result.CommonAntigens)
	assert.Equal(t, 2, result.Chart.NumberOfAntigens())
}

func TestMerge_Type5RequiresNoExistingProjection(t *testing.T) {
	primary, secondary := twoChartsWithOneCommonAntigenAndSerum(t)
	opts := merge.DefaultOptions()
	opts.MatchLevel = merge.Relaxed
	opts.ProjectionType = merge.Type5
	opts.MultiStart.Attempts = 2
	opts.MultiStart.DimensionSchedule = []int{2}

	result, err := merge.Merge(primary, secondary, opts)
	require.NoError(t, err)
	assert.Greater(t, result.Chart.NumberOfProjections(), 0)
}

func TestMerge_Type2RequiresSourceProjections(t *testing.T) {
	primary, secondary := twoChartsWithOneCommonAntigenAndSerum(t)
	opts := merge.DefaultOptions()
	opts.MatchLevel = merge.Relaxed
	opts.ProjectionType = merge.Type2

	_, err := merge.Merge(primary, secondary, opts)
	require.ErrorIs(t, err, merge.ErrNoProjection)
}
