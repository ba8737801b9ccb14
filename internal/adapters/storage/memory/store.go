// Package memory provides an in-memory journal store safe for concurrent
// use. It is the default persistence backend: histories are replayed from
// an archive at startup and exported back when the process is done.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/solvig/tidemark/internal/app"
	"github.com/solvig/tidemark/internal/journal"
)

// Store represents store data used by this package.
type Store struct {
	mu     sync.Mutex
	nextID int64
	rows   []row
	taken  map[identity]struct{}
}

type row struct {
	entry journal.Entry
	data  journal.Snapshot
}

type identity struct {
	kind          journal.Kind
	journalableID int64
	version       journal.Version
}

// New constructs a new value for this package.
func New() *Store {
	return &Store{
		nextID: 1,
		taken:  map[identity]struct{}{},
	}
}

// NextVersion returns the version the next entry for an entity must claim.
func (s *Store) NextVersion(_ context.Context, kind journal.Kind, journalableID int64) (journal.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentVersionLocked(kind, journalableID).Next(), nil
}

// Insert stores an entry with its snapshot, assigning storage ids. The
// (kind, journalable id, version) identity must be free or the insert is
// rejected with app.ErrVersionConflict.
func (s *Store) Insert(_ context.Context, entry journal.Entry, data journal.Snapshot) (journal.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := identity{kind: entry.Kind, journalableID: entry.JournalableID, version: entry.Version}
	if _, exists := s.taken[key]; exists {
		next := s.currentVersionLocked(entry.Kind, entry.JournalableID).Next()
		return journal.Entry{}, fmt.Errorf("%w: expected %d, have %d", app.ErrVersionConflict, next, entry.Version)
	}

	entry.ID = s.nextID
	entry.DataID = s.nextID
	s.nextID++

	s.taken[key] = struct{}{}
	s.rows = append(s.rows, row{entry: entry, data: data.Clone()})
	return entry, nil
}

// Get returns the entry with the given storage id and its snapshot.
func (s *Store) Get(_ context.Context, id int64) (journal.Entry, journal.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.rows {
		if r.entry.ID == id {
			return r.entry, r.data.Clone(), nil
		}
	}
	return journal.Entry{}, journal.Snapshot{}, app.ErrNotFound
}

// EntryByVersion returns the entry recorded for an entity at one version.
func (s *Store) EntryByVersion(_ context.Context, kind journal.Kind, journalableID int64, version journal.Version) (journal.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.rows {
		if r.entry.Kind == kind && r.entry.JournalableID == journalableID && r.entry.Version == version {
			return r.entry, nil
		}
	}
	return journal.Entry{}, app.ErrNotFound
}

// ForEntity returns every entry recorded for an entity, ascending by version.
func (s *Store) ForEntity(_ context.Context, kind journal.Kind, journalableID int64) ([]journal.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]journal.Entry, 0)
	for _, r := range s.rows {
		if r.entry.Kind == kind && r.entry.JournalableID == journalableID {
			out = append(out, r.entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// Latest returns the highest-version entry for an entity and its snapshot.
func (s *Store) Latest(_ context.Context, kind journal.Kind, journalableID int64) (journal.Entry, journal.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := s.latestLocked(kind, journalableID)
	if found < 0 {
		return journal.Entry{}, journal.Snapshot{}, app.ErrNotFound
	}
	return s.rows[found].entry, s.rows[found].data.Clone(), nil
}

// LatestSnapshot returns the snapshot recorded with the latest entry.
func (s *Store) LatestSnapshot(_ context.Context, kind journal.Kind, journalableID int64) (journal.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := s.latestLocked(kind, journalableID)
	if found < 0 {
		return journal.Snapshot{}, app.ErrNotFound
	}
	return s.rows[found].data.Clone(), nil
}

// CurrentVersion returns the highest recorded version for an entity, or 0
// when the entity has no history.
func (s *Store) CurrentVersion(_ context.Context, kind journal.Kind, journalableID int64) (journal.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentVersionLocked(kind, journalableID), nil
}

// Data returns the snapshot stored under a data id.
func (s *Store) Data(_ context.Context, dataID int64) (journal.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.rows {
		if r.entry.DataID == dataID {
			return r.data.Clone(), nil
		}
	}
	return journal.Snapshot{}, app.ErrNotFound
}

// All returns every stored entry sorted by kind, journalable id and version.
func (s *Store) All(_ context.Context) ([]journal.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]journal.Entry, 0, len(s.rows))
	for _, r := range s.rows {
		out = append(out, r.entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		if out[i].JournalableID != out[j].JournalableID {
			return out[i].JournalableID < out[j].JournalableID
		}
		return out[i].Version < out[j].Version
	})
	return out, nil
}

// DeleteForEntity removes every entry and snapshot recorded for an entity
// and returns how many entries were removed.
func (s *Store) DeleteForEntity(_ context.Context, kind journal.Kind, journalableID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.rows[:0]
	deleted := 0
	for _, r := range s.rows {
		if r.entry.Kind == kind && r.entry.JournalableID == journalableID {
			delete(s.taken, identity{kind: kind, journalableID: journalableID, version: r.entry.Version})
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	s.rows = kept
	return deleted, nil
}

// Len reports how many entries the store holds.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func (s *Store) latestLocked(kind journal.Kind, journalableID int64) int {
	found := -1
	for i, r := range s.rows {
		if r.entry.Kind != kind || r.entry.JournalableID != journalableID {
			continue
		}
		if found < 0 || r.entry.Version > s.rows[found].entry.Version {
			found = i
		}
	}
	return found
}

func (s *Store) currentVersionLocked(kind journal.Kind, journalableID int64) journal.Version {
	found := s.latestLocked(kind, journalableID)
	if found < 0 {
		return 0
	}
	return s.rows[found].entry.Version
}
