// Package observability provides the prometheus-backed metrics recorder
// wired into the journal service.
package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder counts journal operations and tracks their latency. It
// implements app.MetricsRecorder.
type Recorder struct {
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
}

// NewRecorder initializes the journal operation collectors and registers
// them on reg. A nil reg registers on the default registerer.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	r := &Recorder{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tidemark_journal_operations_total",
				Help: "Total number of journal service operations",
			},
			[]string{"operation", "status"},
		),
		durations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tidemark_journal_operation_duration_seconds",
				Help:    "Histogram of journal service operation latency",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"operation"},
		),
	}

	reg.MustRegister(r.operations)
	reg.MustRegister(r.durations)

	return r
}

// Observe records one journal operation outcome.
func (r *Recorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}
	r.operations.WithLabelValues(operation, status).Inc()
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
}
