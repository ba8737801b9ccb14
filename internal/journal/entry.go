package journal

import (
	"strings"
	"time"
)

// Entry is one audit record: who changed a journalable entity, when, why,
// and at which version, with a reference to the snapshot recorded alongside
// it. Identity is (kind, journalable id, version). Once built, an entry is
// immutable except for its notes and the updated_at stamp that tracks note
// edits. ID and DataID are storage-assigned and stay zero until the entry
// is inserted.
type Entry struct {
	ID            int64     `json:"id"`
	Kind          Kind      `json:"journalable_kind"`
	JournalableID int64     `json:"journalable_id"`
	Version       Version   `json:"version"`
	UserID        int64     `json:"user_id"`
	Notes         string    `json:"notes,omitempty"`
	ActivityID    int64     `json:"activity_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	DataID        int64     `json:"data_id,omitempty"`
	Cause         Cause     `json:"cause"`
}

// NewEntry builds an entry at the given version with created and updated
// stamps both set to now and a default user_action cause.
func NewEntry(kind Kind, journalableID int64, version Version, userID int64, now time.Time) Entry {
	ts := now.UTC()
	return Entry{
		Kind:          NormalizeKind(kind),
		JournalableID: journalableID,
		Version:       version,
		UserID:        userID,
		CreatedAt:     ts,
		UpdatedAt:     ts,
		Cause:         NewCause(CauseUserAction, ""),
	}
}

// InitialEntry builds the version-1 entry recorded at entity creation.
func InitialEntry(kind Kind, journalableID, userID int64, now time.Time) Entry {
	return NewEntry(kind, journalableID, InitialVersion, userID, now)
}

// IsInitial reports whether the entry records the entity's creation.
func (e Entry) IsInitial() bool {
	return e.Version.IsInitial()
}

// HasNotes reports whether the entry carries non-blank notes.
func (e Entry) HasNotes() bool {
	return strings.TrimSpace(e.Notes) != ""
}

// WithNotes returns a copy of the entry with the given notes. Construction
// convenience; timestamps are untouched.
func (e Entry) WithNotes(text string) Entry {
	e.Notes = strings.TrimSpace(text)
	return e
}

// WithCause returns a copy of the entry with the given cause.
func (e Entry) WithCause(c Cause) Entry {
	e.Cause = c.Normalize()
	return e
}

// UpdateNotes edits the notes on a recorded entry, the one permitted
// mutation, and bumps updated_at.
func (e *Entry) UpdateNotes(text string, now time.Time) {
	e.Notes = strings.TrimSpace(text)
	e.UpdatedAt = now.UTC()
}
