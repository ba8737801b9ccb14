package journal

import (
	"testing"
	"time"
)

func TestEntryBuilderChain(t *testing.T) {
	now := time.Date(2026, 2, 20, 12, 0, 0, 0, time.UTC)
	e := TaskEntry(1, 2, 10).
		Notes("reopened").
		Cause(CauseAPI).
		Build(now)

	if e.Kind != KindTask {
		t.Fatalf("unexpected kind %q", e.Kind)
	}
	if e.JournalableID != 1 || e.Version != 2 || e.UserID != 10 {
		t.Fatalf("unexpected identity %d/%d/%d", e.JournalableID, e.Version, e.UserID)
	}
	if e.Notes != "reopened" {
		t.Fatalf("unexpected notes %q", e.Notes)
	}
	if e.Cause.Type != CauseAPI {
		t.Fatalf("unexpected cause %q", e.Cause.Type)
	}
	if e.CreatedAt != now || e.UpdatedAt != now {
		t.Fatalf("expected build timestamps %v, got %v / %v", now, e.CreatedAt, e.UpdatedAt)
	}
}

func TestEntryBuilderDefaults(t *testing.T) {
	now := time.Date(2026, 2, 20, 12, 0, 0, 0, time.UTC)
	e := ProjectEntry(3, InitialVersion, 9).Build(now)

	if e.Kind != KindProject {
		t.Fatalf("unexpected kind %q", e.Kind)
	}
	if e.Cause.Type != CauseUserAction {
		t.Fatalf("expected default user_action cause, got %q", e.Cause.Type)
	}
	if e.Notes != "" || e.ActivityID != 0 {
		t.Fatalf("unexpected optional fields %q/%d", e.Notes, e.ActivityID)
	}
}

func TestEntryBuilderCauseContextOrder(t *testing.T) {
	now := time.Date(2026, 2, 20, 12, 0, 0, 0, time.UTC)

	contextFirst := NewEntryBuilder(KindBudget, 5, 4, 2).
		CauseContext("quarterly rollup").
		Cause(CauseBulkUpdate).
		Build(now)
	if contextFirst.Cause.Type != CauseBulkUpdate || contextFirst.Cause.Context != "quarterly rollup" {
		t.Fatalf("context set before cause was lost: %+v", contextFirst.Cause)
	}

	causeFirst := NewEntryBuilder(KindBudget, 5, 4, 2).
		Cause(CauseBulkUpdate).
		CauseContext("quarterly rollup").
		Build(now)
	if causeFirst.Cause != contextFirst.Cause {
		t.Fatalf("setter order changed the cause: %+v vs %+v", causeFirst.Cause, contextFirst.Cause)
	}
}

func TestEntryBuilderActivity(t *testing.T) {
	now := time.Date(2026, 2, 20, 12, 0, 0, 0, time.UTC)
	e := NewEntryBuilder(KindMeeting, 8, 1, 3).Activity(901).Build(now)
	if e.ActivityID != 901 {
		t.Fatalf("unexpected activity id %d", e.ActivityID)
	}
}
