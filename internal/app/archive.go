package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/solvig/tidemark/internal/journal"
)

// ArchiveVersion defines a package constant value.
const ArchiveVersion = "tidemark.archive.v1"

// Archive represents archive data used by this package.
type Archive struct {
	Version    string         `json:"version"`
	ExportedAt time.Time      `json:"exported_at"`
	Entries    []ArchiveEntry `json:"entries"`
}

// ArchiveEntry pairs one journal entry with the snapshot recorded alongside it.
type ArchiveEntry struct {
	Entry journal.Entry    `json:"entry"`
	Data  journal.Snapshot `json:"data"`
}

// ExportArchive collects every recorded entry and its snapshot in a
// deterministic order suitable for serialization.
func (s *Service) ExportArchive(ctx context.Context) (archive Archive, err error) {
	defer s.observe(ctx, "export_archive", time.Now(), &err)

	entries, err := s.store.All(ctx)
	if err != nil {
		return Archive{}, err
	}

	out := Archive{
		Version:    ArchiveVersion,
		ExportedAt: s.clock().UTC(),
		Entries:    make([]ArchiveEntry, 0, len(entries)),
	}
	for _, entry := range entries {
		data, dataErr := s.dataFor(ctx, entry)
		if dataErr != nil {
			return Archive{}, dataErr
		}
		out.Entries = append(out.Entries, ArchiveEntry{Entry: entry, Data: data})
	}

	out.sort()
	return out, nil
}

// ImportArchive replays an archive into the store. Entries whose identity
// (kind, journalable id, version) already exists are skipped, so importing
// the same archive twice is a no-op. Versions are preserved, not reassigned.
func (s *Service) ImportArchive(ctx context.Context, archive Archive) (err error) {
	defer s.observe(ctx, "import_archive", time.Now(), &err)

	if err = archive.Validate(); err != nil {
		return err
	}
	archive.sort()

	for _, item := range archive.Entries {
		entry := item.Entry
		if _, lookupErr := s.store.EntryByVersion(ctx, entry.Kind, entry.JournalableID, entry.Version); lookupErr == nil {
			continue
		} else if !errors.Is(lookupErr, ErrNotFound) {
			return lookupErr
		}

		entry.ID = 0
		entry.DataID = 0
		if _, insertErr := s.store.Insert(ctx, entry, item.Data); insertErr != nil {
			return insertErr
		}
	}

	return nil
}

// Validate validates the requested operation.
func (a *Archive) Validate() error {
	if a.Version != "" && a.Version != ArchiveVersion {
		return fmt.Errorf("unsupported archive version: %q", a.Version)
	}

	identities := map[archiveIdentity]struct{}{}
	versionsByEntity := map[archiveEntity][]journal.Version{}
	for i := range a.Entries {
		entry := a.Entries[i].Entry
		entry.Kind = journal.NormalizeKind(entry.Kind)
		if !journal.IsValidKind(entry.Kind) {
			return fmt.Errorf("entries[%d].journalable_kind is invalid: %q", i, a.Entries[i].Entry.Kind)
		}
		if entry.JournalableID <= 0 {
			return fmt.Errorf("entries[%d].journalable_id must be positive", i)
		}
		if entry.UserID <= 0 {
			return fmt.Errorf("entries[%d].user_id must be positive", i)
		}
		if entry.Version < journal.InitialVersion {
			return fmt.Errorf("entries[%d].version must be >= 1", i)
		}
		if entry.CreatedAt.IsZero() || entry.UpdatedAt.IsZero() {
			return fmt.Errorf("entries[%d] timestamps are required", i)
		}
		entry.Cause = entry.Cause.Normalize()

		identity := archiveIdentity{
			entity:  archiveEntity{kind: entry.Kind, journalableID: entry.JournalableID},
			version: entry.Version,
		}
		if _, exists := identities[identity]; exists {
			return fmt.Errorf("entries[%d] duplicates %s/%d version %d", i, entry.Kind, entry.JournalableID, entry.Version)
		}
		identities[identity] = struct{}{}
		versionsByEntity[identity.entity] = append(versionsByEntity[identity.entity], entry.Version)

		a.Entries[i].Entry = entry
	}

	for entity, versions := range versionsByEntity {
		sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
		for idx, version := range versions {
			if version != journal.Version(idx)+journal.InitialVersion {
				return fmt.Errorf("%s/%d versions must form a gapless sequence from 1", entity.kind, entity.journalableID)
			}
		}
	}

	return nil
}

type archiveEntity struct {
	kind          journal.Kind
	journalableID int64
}

type archiveIdentity struct {
	entity  archiveEntity
	version journal.Version
}

func (a *Archive) sort() {
	sort.Slice(a.Entries, func(i, j int) bool {
		left, right := a.Entries[i].Entry, a.Entries[j].Entry
		if left.Kind != right.Kind {
			return left.Kind < right.Kind
		}
		if left.JournalableID != right.JournalableID {
			return left.JournalableID < right.JournalableID
		}
		return left.Version < right.Version
	})
}
