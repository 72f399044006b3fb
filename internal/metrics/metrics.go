// Package metrics exposes the grading pipeline's Prometheus collectors
// (SPEC_FULL.md DOMAIN STACK): per-worker load gauges, an in-flight
// submission gauge, an aggregator-invocation counter, and a per-verdict
// count of graded tests.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics groups every collector the grading pipeline registers.
type Metrics struct {
	WorkerLoad        *prometheus.GaugeVec
	SubmissionsInFlight prometheus.Gauge
	AggregationsTotal prometheus.Counter
	TestsGradedTotal  *prometheus.CounterVec
}

// New builds and registers a Metrics set against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		WorkerLoad: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "kjudge",
			Subsystem: "worker",
			Name:      "load",
			Help:      "Number of queued or running jobs on a worker slot.",
		}, []string{"slot"}),
		SubmissionsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "kjudge",
			Subsystem: "grading",
			Name:      "submissions_in_flight",
			Help:      "Submissions currently between submit and aggregate.",
		}),
		AggregationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kjudge",
			Subsystem: "grading",
			Name:      "aggregations_total",
			Help:      "Number of times the fan-in aggregator has run.",
		}),
		TestsGradedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kjudge",
			Subsystem: "grading",
			Name:      "tests_graded_total",
			Help:      "Number of tests graded, labelled by resulting verdict.",
		}, []string{"verdict"}),
	}
	reg.MustRegister(m.WorkerLoad, m.SubmissionsInFlight, m.AggregationsTotal, m.TestsGradedTotal)
	return m
}
