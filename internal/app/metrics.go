package app

import (
	"context"
	"time"
)

// MetricsRecorder observes the outcome of one service operation. Recorders
// must be safe for concurrent use and must not block the calling operation.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// NopMetrics discards every observation.
type NopMetrics struct{}

// Observe implements MetricsRecorder.
func (NopMetrics) Observe(context.Context, string, bool, time.Duration) {}
