// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "outline_engine"

// Degradation kinds counted by Metrics.
const (
	DegradeMappingValidation = "mapping_validation"
	DegradeOptimization      = "optimization_noop"
	DegradeCacheRead         = "cache_read"
	DegradeCacheWrite        = "cache_write"
)

// Metrics holds the pipeline's Prometheus collectors. A nil *Metrics
// records nothing.
type Metrics struct {
	StageDuration *prometheus.HistogramVec
	CacheLookups  *prometheus.CounterVec
	Degradations  *prometheus.CounterVec
	Runs          *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each pipeline stage.",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"stage"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cache_lookups_total",
			Help:      "Outline cache lookups by result (hit, miss, error).",
		}, []string{"result"}),
		Degradations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "degradations_total",
			Help:      "Stage failures absorbed without failing the run.",
		}, []string{"kind"}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome (generated, cached, failed).",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.StageDuration, m.CacheLookups, m.Degradations, m.Runs)
	return m
}

func (m *Metrics) observeStage(stage State, start time.Time) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(string(stage)).Observe(time.Since(start).Seconds())
}

func (m *Metrics) cacheLookup(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) degraded(kind string) {
	if m == nil {
		return
	}
	m.Degradations.WithLabelValues(kind).Inc()
}

func (m *Metrics) run(outcome string) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(outcome).Inc()
}
