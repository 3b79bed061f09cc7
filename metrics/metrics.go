// Package metrics defines optional Prometheus instrumentation for the
// longer-running operations in relax and gridtest. Every collector set is
// constructed against a caller-supplied *prometheus.Registry (never the
// default global registerer) and is nil-safe: a nil *Relax or *GridTest
// disables instrumentation entirely.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Relax observes relax.MultiStart: how many attempts were started and
// converged, and the stress of the best projection the last call
// produced.
type Relax struct {
	AttemptsStarted   prometheus.Counter
	AttemptsConverged prometheus.Counter
	BestStress        prometheus.Gauge
}

// NewRelax registers relax_attempts_started_total,
// relax_attempts_converged_total and relax_best_stress on reg.
func NewRelax(reg *prometheus.Registry) *Relax {
	r := &Relax{
		AttemptsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relax_attempts_started_total",
			Help: "Multi-start optimization attempts started.",
		}),
		AttemptsConverged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relax_attempts_converged_total",
			Help: "Multi-start optimization attempts that finished without error.",
		}),
		BestStress: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "relax_best_stress",
			Help: "Stress of the best projection produced by the most recent MultiStart call.",
		}),
	}
	reg.MustRegister(r.AttemptsStarted, r.AttemptsConverged, r.BestStress)

	return r
}

// GridTest observes gridtest.Run: how many points fell into each
// Classification.
type GridTest struct {
	PointsClassified *prometheus.CounterVec
}

// NewGridTest registers gridtest_points_classified_total, labeled by
// "classification", on reg.
func NewGridTest(reg *prometheus.Registry) *GridTest {
	g := &GridTest{
		PointsClassified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gridtest_points_classified_total",
			Help: "Points classified by gridtest.Run, labeled by classification.",
		}, []string{"classification"}),
	}
	reg.MustRegister(g.PointsClassified)

	return g
}
