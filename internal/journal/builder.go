package journal

import (
	"strings"
	"time"
)

// EntryBuilder assembles a well-formed Entry for a specific kind. The
// required identity fields come up front; everything else is optional and
// fluent. Build finalizes with both timestamps set to the caller's now.
type EntryBuilder struct {
	entry Entry
}

// NewEntryBuilder starts an entry for the given kind and identity.
func NewEntryBuilder(kind Kind, journalableID int64, version Version, userID int64) *EntryBuilder {
	return &EntryBuilder{entry: Entry{
		Kind:          NormalizeKind(kind),
		JournalableID: journalableID,
		Version:       version,
		UserID:        userID,
		Cause:         NewCause(CauseUserAction, ""),
	}}
}

// TaskEntry starts an entry for a task.
func TaskEntry(journalableID int64, version Version, userID int64) *EntryBuilder {
	return NewEntryBuilder(KindTask, journalableID, version, userID)
}

// ProjectEntry starts an entry for a project.
func ProjectEntry(journalableID int64, version Version, userID int64) *EntryBuilder {
	return NewEntryBuilder(KindProject, journalableID, version, userID)
}

// Notes sets the entry notes.
func (b *EntryBuilder) Notes(text string) *EntryBuilder {
	b.entry.Notes = strings.TrimSpace(text)
	return b
}

// Activity sets the grouping activity id.
func (b *EntryBuilder) Activity(id int64) *EntryBuilder {
	b.entry.ActivityID = id
	return b
}

// Cause sets the cause classification, keeping any context already set.
func (b *EntryBuilder) Cause(t CauseType) *EntryBuilder {
	b.entry.Cause = NewCause(t, b.entry.Cause.Context)
	return b
}

// CauseContext sets free-form cause context.
func (b *EntryBuilder) CauseContext(context string) *EntryBuilder {
	b.entry.Cause = NewCause(b.entry.Cause.Type, context)
	return b
}

// Build finalizes the entry with created_at == updated_at == now.
func (b *EntryBuilder) Build(now time.Time) Entry {
	entry := b.entry
	ts := now.UTC()
	entry.CreatedAt = ts
	entry.UpdatedAt = ts
	return entry
}
