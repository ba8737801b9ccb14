package app

import (
	"context"

	"github.com/solvig/tidemark/internal/journal"
)

// Store persists journal entries alongside their snapshots. Insert must
// enforce uniqueness of (kind, journalable id, version) and return
// ErrVersionConflict when an identity is already taken; everything else
// returns ErrNotFound for absent rows. Implementations assign entry and
// data ids on insert.
type Store interface {
	NextVersion(context.Context, journal.Kind, int64) (journal.Version, error)
	Insert(context.Context, journal.Entry, journal.Snapshot) (journal.Entry, error)
	Get(context.Context, int64) (journal.Entry, journal.Snapshot, error)
	EntryByVersion(context.Context, journal.Kind, int64, journal.Version) (journal.Entry, error)
	ForEntity(context.Context, journal.Kind, int64) ([]journal.Entry, error)
	Latest(context.Context, journal.Kind, int64) (journal.Entry, journal.Snapshot, error)
	LatestSnapshot(context.Context, journal.Kind, int64) (journal.Snapshot, error)
	CurrentVersion(context.Context, journal.Kind, int64) (journal.Version, error)
	Data(context.Context, int64) (journal.Snapshot, error)
	All(context.Context) ([]journal.Entry, error)
	DeleteForEntity(context.Context, journal.Kind, int64) (int, error)
}
