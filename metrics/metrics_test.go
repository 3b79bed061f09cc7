package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acorg/acmacs-chart-n/metrics"
)

func gatherOne(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("metric family %q not gathered", name)

	return nil
}

func TestNewRelax_RegistersAndRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := metrics.NewRelax(reg)

	r.AttemptsStarted.Inc()
	r.AttemptsStarted.Inc()
	r.AttemptsConverged.Inc()
	r.BestStress.Set(1.5)

	mf := gatherOne(t, reg, "relax_attempts_started_total")
	assert.Equal(t, float64(2), mf.GetMetric()[0].GetCounter().GetValue())

	mf = gatherOne(t, reg, "relax_attempts_converged_total")
	assert.Equal(t, float64(1), mf.GetMetric()[0].GetCounter().GetValue())

	mf = gatherOne(t, reg, "relax_best_stress")
	assert.Equal(t, 1.5, mf.GetMetric()[0].GetGauge().GetValue())
}

func TestNewGridTest_CountsByClassificationLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	g := metrics.NewGridTest(reg)

	g.PointsClassified.WithLabelValues("normal").Inc()
	g.PointsClassified.WithLabelValues("normal").Inc()
	g.PointsClassified.WithLabelValues("trapped").Inc()

	mf := gatherOne(t, reg, "gridtest_points_classified_total")
	totals := map[string]float64{}
	for _, m := range mf.GetMetric() {
		for _, l := range m.GetLabel() {
			if l.GetName() == "classification" {
				totals[l.GetValue()] = m.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, float64(2), totals["normal"])
	assert.Equal(t, float64(1), totals["trapped"])
}

func TestNewRelax_SeparateRegistriesDoNotCollide(t *testing.T) {
	reg1 := prometheus.NewRegistry()
	reg2 := prometheus.NewRegistry()
	assert.NotPanics(t, func() {
		metrics.NewRelax(reg1)
		metrics.NewRelax(reg2)
	})
}
