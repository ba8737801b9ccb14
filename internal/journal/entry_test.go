package journal

import (
	"testing"
	"time"
)

func TestNewEntry(t *testing.T) {
	now := time.Date(2026, 2, 20, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	e := NewEntry(" Task ", 42, 3, 7, now)

	if e.Kind != KindTask {
		t.Fatalf("unexpected kind %q", e.Kind)
	}
	if e.JournalableID != 42 || e.Version != 3 || e.UserID != 7 {
		t.Fatalf("unexpected identity %d/%d/%d", e.JournalableID, e.Version, e.UserID)
	}
	if e.CreatedAt != now.UTC() || e.UpdatedAt != now.UTC() {
		t.Fatalf("expected UTC timestamps, got %v / %v", e.CreatedAt, e.UpdatedAt)
	}
	if e.Cause.Type != CauseUserAction {
		t.Fatalf("expected default cause, got %q", e.Cause.Type)
	}
	if e.ID != 0 || e.DataID != 0 {
		t.Fatalf("storage ids should stay zero before insert, got %d/%d", e.ID, e.DataID)
	}
}

func TestInitialEntry(t *testing.T) {
	now := time.Date(2026, 2, 20, 12, 0, 0, 0, time.UTC)
	e := InitialEntry(KindProject, 3, 9, now)
	if e.Version != InitialVersion {
		t.Fatalf("unexpected version %d", e.Version)
	}
	if !e.IsInitial() {
		t.Fatal("initial entry should report IsInitial")
	}
	if NewEntry(KindProject, 3, 2, 9, now).IsInitial() {
		t.Fatal("version 2 entry should not report IsInitial")
	}
}

func TestEntryHasNotes(t *testing.T) {
	now := time.Date(2026, 2, 20, 12, 0, 0, 0, time.UTC)
	e := InitialEntry(KindTask, 1, 1, now)
	if e.HasNotes() {
		t.Fatal("empty notes should not count")
	}
	e.Notes = "   "
	if e.HasNotes() {
		t.Fatal("blank notes should not count")
	}
	e.Notes = "reopened"
	if !e.HasNotes() {
		t.Fatal("expected HasNotes for non-blank notes")
	}
}

func TestEntryWithNotesAndCause(t *testing.T) {
	now := time.Date(2026, 2, 20, 12, 0, 0, 0, time.UTC)
	e := InitialEntry(KindTask, 1, 1, now)

	noted := e.WithNotes("  trimmed text ")
	if noted.Notes != "trimmed text" {
		t.Fatalf("unexpected notes %q", noted.Notes)
	}
	if e.Notes != "" {
		t.Fatal("WithNotes should not mutate the receiver")
	}

	caused := e.WithCause(Cause{Type: " WORKFLOW ", Context: " nightly "})
	if caused.Cause.Type != CauseWorkflow || caused.Cause.Context != "nightly" {
		t.Fatalf("unexpected cause %+v", caused.Cause)
	}
}

func TestEntryUpdateNotes(t *testing.T) {
	created := time.Date(2026, 2, 20, 12, 0, 0, 0, time.UTC)
	edited := time.Date(2026, 2, 21, 9, 30, 0, 0, time.UTC)

	e := InitialEntry(KindTask, 1, 1, created)
	e.UpdateNotes("  follow-up after review ", edited)

	if e.Notes != "follow-up after review" {
		t.Fatalf("unexpected notes %q", e.Notes)
	}
	if e.CreatedAt != created {
		t.Fatalf("created_at should not move, got %v", e.CreatedAt)
	}
	if e.UpdatedAt != edited {
		t.Fatalf("updated_at should track note edits, got %v", e.UpdatedAt)
	}
}
