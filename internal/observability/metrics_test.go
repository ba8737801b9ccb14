package observability

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	recorder := NewRecorder(reg)

	recorder.Observe(context.Background(), "record_update", true, 25*time.Millisecond)
	recorder.Observe(context.Background(), "record_update", true, 5*time.Millisecond)
	recorder.Observe(context.Background(), "record_update", false, time.Millisecond)
	recorder.Observe(context.Background(), "history", true, time.Millisecond)

	success := testutil.ToFloat64(recorder.operations.WithLabelValues("record_update", "success"))
	if success != 2 {
		t.Fatalf("expected 2 successful record_update observations, got %v", success)
	}
	failed := testutil.ToFloat64(recorder.operations.WithLabelValues("record_update", "error"))
	if failed != 1 {
		t.Fatalf("expected 1 failed record_update observation, got %v", failed)
	}
	historySuccess := testutil.ToFloat64(recorder.operations.WithLabelValues("history", "success"))
	if historySuccess != 1 {
		t.Fatalf("expected 1 successful history observation, got %v", historySuccess)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	names := map[string]bool{}
	for _, family := range families {
		names[family.GetName()] = true
	}
	if !names["tidemark_journal_operations_total"] || !names["tidemark_journal_operation_duration_seconds"] {
		t.Fatalf("expected both collectors registered, got %v", names)
	}
}
