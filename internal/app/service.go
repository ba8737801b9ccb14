package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/solvig/tidemark/internal/journal"
)

// DefaultMaxVersionRetries bounds how many times a recording retries after
// an insert version conflict before surfacing the conflict.
const DefaultMaxVersionRetries = 3

// ServiceConfig holds configuration for the journal service.
type ServiceConfig struct {
	MaxVersionRetries int
	Metrics           MetricsRecorder
	Logger            *log.Logger
}

// IDGenerator returns unique identifiers for recorded events.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Service records journal entries through a Store. It assigns versions from
// the latest recorded entry, computes diffs against the previous snapshot,
// and notifies registered handlers after every accepted insert.
type Service struct {
	store      Store
	idGen      IDGenerator
	clock      Clock
	maxRetries int
	metrics    MetricsRecorder
	logger     *log.Logger
	handlers   []func(Event)
}

// NewService constructs a new value for this package.
func NewService(store Store, idGen IDGenerator, clock Clock, cfg ServiceConfig) *Service {
	if idGen == nil {
		idGen = uuid.NewString
	}
	if clock == nil {
		clock = time.Now
	}
	if cfg.MaxVersionRetries <= 0 {
		cfg.MaxVersionRetries = DefaultMaxVersionRetries
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NopMetrics{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}

	return &Service{
		store:      store,
		idGen:      idGen,
		clock:      clock,
		maxRetries: cfg.MaxVersionRetries,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
	}
}

// Event describes one accepted insert. Diff is nil for creation entries.
type Event struct {
	ID        string
	Entry     journal.Entry
	Data      journal.Snapshot
	Diff      *journal.Diff
	Timestamp time.Time
}

// CreationInput holds input values for record creation operations.
type CreationInput struct {
	Kind          journal.Kind
	JournalableID int64
	UserID        int64
	Data          journal.Snapshot
	Notes         string
	ActivityID    int64
	Cause         journal.Cause
}

// UpdateInput holds input values for record update operations.
type UpdateInput struct {
	Kind          journal.Kind
	JournalableID int64
	UserID        int64
	Data          journal.Snapshot
	Notes         string
	ActivityID    int64
	Cause         journal.Cause
}

// OnRecorded registers a handler invoked synchronously, in registration
// order, after every accepted insert. Register handlers before recording;
// registration is not synchronized with in-flight operations.
func (s *Service) OnRecorded(handler func(Event)) {
	if handler == nil {
		return
	}
	s.handlers = append(s.handlers, handler)
}

// RecordCreation records the version-1 entry for a newly created entity
// together with its first snapshot.
func (s *Service) RecordCreation(ctx context.Context, in CreationInput) (event Event, err error) {
	defer s.observe(ctx, "record_creation", time.Now(), &err)
	return s.recordCreation(ctx, in)
}

func (s *Service) recordCreation(ctx context.Context, in CreationInput) (Event, error) {
	now := s.clock()
	entry := journal.NewEntryBuilder(in.Kind, in.JournalableID, journal.InitialVersion, in.UserID).
		Notes(in.Notes).
		Activity(in.ActivityID).
		Cause(in.Cause.Type).
		CauseContext(in.Cause.Context).
		Build(now)

	inserted, err := s.store.Insert(ctx, entry, in.Data)
	if err != nil {
		return Event{}, fmt.Errorf("insert creation entry: %w", err)
	}

	event := Event{
		ID:        s.idGen(),
		Entry:     inserted,
		Data:      in.Data,
		Timestamp: now.UTC(),
	}
	s.emit(event)
	return event, nil
}

// RecordUpdate records a new version for an already journaled entity. When
// the entity has no history yet the update is recorded as its creation.
// When nothing changed and no notes were supplied, no entry is recorded and
// recorded is false.
func (s *Service) RecordUpdate(ctx context.Context, in UpdateInput) (event Event, recorded bool, err error) {
	defer s.observe(ctx, "record_update", time.Now(), &err)

	for attempt := 0; ; attempt++ {
		prev, prevData, lookupErr := s.store.Latest(ctx, in.Kind, in.JournalableID)
		if errors.Is(lookupErr, ErrNotFound) {
			event, err = s.recordCreation(ctx, CreationInput(in))
			if err != nil {
				return Event{}, false, err
			}
			return event, true, nil
		}
		if lookupErr != nil {
			return Event{}, false, lookupErr
		}

		now := s.clock()
		entry := journal.NewEntryBuilder(in.Kind, in.JournalableID, prev.Version.Next(), in.UserID).
			Notes(in.Notes).
			Activity(in.ActivityID).
			Cause(in.Cause.Type).
			CauseContext(in.Cause.Context).
			Build(now)

		diff := journal.ComputeDiff(prevData, in.Data)
		if diff.Empty() && !entry.HasNotes() {
			return Event{}, false, nil
		}

		inserted, insertErr := s.store.Insert(ctx, entry, in.Data)
		if errors.Is(insertErr, ErrVersionConflict) && attempt+1 < s.maxRetries {
			s.logger.Debug("version conflict, retrying",
				"kind", in.Kind,
				"journalable_id", in.JournalableID,
				"version", entry.Version,
				"attempt", attempt+1)
			continue
		}
		if insertErr != nil {
			return Event{}, false, insertErr
		}

		event = Event{
			ID:        s.idGen(),
			Entry:     inserted,
			Data:      in.Data,
			Diff:      &diff,
			Timestamp: now.UTC(),
		}
		s.emit(event)
		return event, true, nil
	}
}

// History returns every entry recorded for an entity, ascending by version.
func (s *Service) History(ctx context.Context, kind journal.Kind, journalableID int64) (entries []journal.Entry, err error) {
	defer s.observe(ctx, "history", time.Now(), &err)

	entries, err = s.store.ForEntity(ctx, kind, journalableID)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(entries, func(a, b journal.Entry) int {
		return int(a.Version) - int(b.Version)
	})
	return entries, nil
}

// Entry returns one entry and its snapshot by storage id.
func (s *Service) Entry(ctx context.Context, id int64) (entry journal.Entry, data journal.Snapshot, err error) {
	defer s.observe(ctx, "entry", time.Now(), &err)
	return s.store.Get(ctx, id)
}

// EntryAt returns the entry recorded for an entity at a specific version.
func (s *Service) EntryAt(ctx context.Context, kind journal.Kind, journalableID int64, version journal.Version) (entry journal.Entry, err error) {
	defer s.observe(ctx, "entry_at", time.Now(), &err)
	return s.store.EntryByVersion(ctx, kind, journalableID, version)
}

// DiffBetween computes the change set between two recorded versions of an
// entity by resolving both snapshots through their data ids.
func (s *Service) DiffBetween(ctx context.Context, kind journal.Kind, journalableID int64, from, to journal.Version) (diff journal.Diff, err error) {
	defer s.observe(ctx, "diff_between", time.Now(), &err)

	fromEntry, err := s.store.EntryByVersion(ctx, kind, journalableID, from)
	if err != nil {
		return journal.Diff{}, err
	}
	toEntry, err := s.store.EntryByVersion(ctx, kind, journalableID, to)
	if err != nil {
		return journal.Diff{}, err
	}

	fromData, err := s.dataFor(ctx, fromEntry)
	if err != nil {
		return journal.Diff{}, err
	}
	toData, err := s.dataFor(ctx, toEntry)
	if err != nil {
		return journal.Diff{}, err
	}

	return journal.ComputeDiff(fromData, toData), nil
}

// DeleteHistory removes every entry and snapshot recorded for an entity and
// returns how many entries were deleted. Cascade helper for entity deletion.
func (s *Service) DeleteHistory(ctx context.Context, kind journal.Kind, journalableID int64) (deleted int, err error) {
	defer s.observe(ctx, "delete_history", time.Now(), &err)
	return s.store.DeleteForEntity(ctx, kind, journalableID)
}

func (s *Service) dataFor(ctx context.Context, entry journal.Entry) (journal.Snapshot, error) {
	if entry.DataID == 0 {
		return journal.Snapshot{}, fmt.Errorf("%w: entry %d has no snapshot", ErrMissingData, entry.ID)
	}
	data, err := s.store.Data(ctx, entry.DataID)
	if errors.Is(err, ErrNotFound) {
		return journal.Snapshot{}, fmt.Errorf("%w: data %d", ErrMissingData, entry.DataID)
	}
	if err != nil {
		return journal.Snapshot{}, err
	}
	return data, nil
}

func (s *Service) emit(event Event) {
	for _, handler := range s.handlers {
		handler(event)
	}
}

func (s *Service) observe(ctx context.Context, operation string, start time.Time, err *error) {
	s.metrics.Observe(ctx, operation, *err == nil, time.Since(start))
}
