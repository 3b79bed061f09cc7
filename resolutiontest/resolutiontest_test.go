package resolutiontest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acorg/acmacs-chart-n/chart"
	"github.com/acorg/acmacs-chart-n/resolutiontest"
	"github.com/acorg/acmacs-chart-n/titertable"
)

func testChart(t *testing.T, rows [][]string) *chart.Chart {
	t.Helper()
	table, err := titertable.NewDenseFromRows(rows)
	require.NoError(t, err)
	ags := make([]chart.Antigen, len(rows))
	for i := range ags {
		ags[i] = chart.Antigen{Name: "ag"}
	}
	sera := make([]chart.Serum, len(rows[0]))
	for i := range sera {
		sera[i] = chart.Serum{Name: "sr"}
	}
	c, err := chart.New(chart.Info{}, ags, sera, table)
	require.NoError(t, err)

	return c
}

func sampleChart(t *testing.T) *chart.Chart {
	return testChart(t, [][]string{
		{"320", "80", "20"},
		{"80", "320", "40"},
		{"40", "40", "320"},
	})
}

func TestRun_DropAllProducesFullCoverageAndSaneStats(t *testing.T) {
	c := sampleChart(t)
	opts := resolutiontest.DefaultOptions()
	opts.Dimensions = []int{1}
	opts.Proportions = []float64{1.0}
	opts.Replicates = 2
	opts.OptimizationsPerReplicate = 2
	opts.MultiStart.Attempts = 2
	opts.MultiStart.DimensionSchedule = []int{1}
	opts.MultiStart.AutoDisconnect = false

	summaries, err := resolutiontest.Run(c, opts)
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	s := summaries[0]
	assert.Equal(t, 1, s.Dimension)
	assert.Equal(t, 1.0, s.Proportion)
	require.Len(t, s.Replicates, 2)
	for _, rep := range s.Replicates {
		assert.Equal(t, 9, rep.DroppedCells) // every cell of a 3x3 regular table
		assert.GreaterOrEqual(t, rep.Correlation, -1.0)
		assert.LessOrEqual(t, rep.Correlation, 1.0)
		assert.GreaterOrEqual(t, rep.MeanAbsoluteError, 0.0)
	}
}

func TestRun_ColumnBasesFromMasterDoesNotError(t *testing.T) {
	c := sampleChart(t)
	opts := resolutiontest.DefaultOptions()
	opts.Dimensions = []int{1}
	opts.Proportions = []float64{0.3}
	opts.Replicates = 1
	opts.OptimizationsPerReplicate = 2
	opts.ColumnBasesFromMaster = true
	opts.MultiStart.Attempts = 2
	opts.MultiStart.DimensionSchedule = []int{1}
	opts.MultiStart.AutoDisconnect = false

	_, err := resolutiontest.Run(c, opts)
	require.NoError(t, err)
}

func TestRun_EmptyDimensionsErrors(t *testing.T) {
	c := sampleChart(t)
	opts := resolutiontest.DefaultOptions()
	opts.Proportions = []float64{0.1}
	opts.Replicates = 1

	_, err := resolutiontest.Run(c, opts)
	require.ErrorIs(t, err, resolutiontest.ErrNoDimensions)
}

func TestRun_EmptyProportionsErrors(t *testing.T) {
	c := sampleChart(t)
	opts := resolutiontest.DefaultOptions()
	opts.Dimensions = []int{1}
	opts.Replicates = 1

	_, err := resolutiontest.Run(c, opts)
	require.ErrorIs(t, err, resolutiontest.ErrNoProportions)
}

func TestRun_NoReplicatesErrors(t *testing.T) {
	c := sampleChart(t)
	opts := resolutiontest.DefaultOptions()
	opts.Dimensions = []int{1}
	opts.Proportions = []float64{0.1}
	opts.Replicates = 0

	_, err := resolutiontest.Run(c, opts)
	require.ErrorIs(t, err, resolutiontest.ErrNoReplicates)
}
