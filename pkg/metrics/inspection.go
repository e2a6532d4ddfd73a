package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// InspectionMetrics records the outcomes of the inspection workflow.
// A nil *InspectionMetrics is valid and records nothing.
type InspectionMetrics struct {
	checks       *prometheus.CounterVec
	propagation  prometheus.Counter
	scans        *prometheus.CounterVec
	evaluations  *prometheus.CounterVec
	evictions    prometheus.Counter
	sweepSeconds prometheus.Histogram
}

// NewInspectionMetrics registers the inspection metrics on the provided registerer.
func NewInspectionMetrics(reg prometheus.Registerer) *InspectionMetrics {
	if reg == nil {
		return nil
	}
	m := &InspectionMetrics{
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checksheet_checks_recorded_total",
			Help: "Property checks recorded for the scanned item, by status.",
		}, []string{"status"}),
		propagation: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "checksheet_propagation_failures_total",
			Help: "Sibling items a propagated check could not be written to.",
		}),
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checksheet_packing_scans_total",
			Help: "Packing-order scans, by outcome.",
		}, []string{"outcome"}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checksheet_evaluations_total",
			Help: "Container completion evaluations, by status.",
		}, []string{"status"}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "checksheet_sessions_evicted_total",
			Help: "Worker sessions dropped after the idle TTL.",
		}),
		sweepSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "checksheet_session_sweep_seconds",
			Help:    "Duration of idle session sweeps in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.checks, m.propagation, m.scans, m.evaluations, m.evictions, m.sweepSeconds)
	return m
}

// CheckRecorded counts one recorded check and the siblings it failed to reach.
func (m *InspectionMetrics) CheckRecorded(status string, failedSiblings int) {
	if m == nil {
		return
	}
	m.checks.WithLabelValues(normalizeLabel(status)).Inc()
	if failedSiblings > 0 {
		m.propagation.Add(float64(failedSiblings))
	}
}

// PackingScan counts one packing scan; outcome is "accepted" or an error kind.
func (m *InspectionMetrics) PackingScan(outcome string) {
	if m == nil {
		return
	}
	m.scans.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// Evaluated counts one completion evaluation.
func (m *InspectionMetrics) Evaluated(status string) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(normalizeLabel(status)).Inc()
}

// SessionSweep records one idle sweep.
func (m *InspectionMetrics) SessionSweep(evicted int, took time.Duration) {
	if m == nil {
		return
	}
	m.evictions.Add(float64(evicted))
	m.sweepSeconds.Observe(took.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
