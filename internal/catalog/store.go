// Package catalog owns the in-memory word list and keeps it in sync with the feed.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/at-ishikawa/offlinedict/internal/dictionary"
	"github.com/at-ishikawa/offlinedict/internal/dictionary/sheet"
	"github.com/at-ishikawa/offlinedict/internal/metrics"
)

// SyncState is the observable state of the store.
// LastGood is the most recent successful snapshot and survives failed syncs.
type SyncState struct {
	IsLoading    bool
	LastGood     dictionary.Collection
	LastError    error
	LastSyncedAt time.Time
}

// Store holds the entries. Overlapping syncs are not serialized: the last one to resolve wins.
type Store struct {
	source   sheet.Source
	pick     func(n int) int
	recorder *metrics.Recorder
	now      func() time.Time

	mu        sync.RWMutex
	inFlight  int
	lastGood  dictionary.Collection
	lastError error
	syncedAt  time.Time
	dailyPick *dictionary.DictionaryEntry
}

type Option func(*Store)

// WithPicker replaces the random index picker used for the daily pick.
func WithPicker(pick func(n int) int) Option {
	return func(s *Store) {
		s.pick = pick
	}
}

func WithRecorder(recorder *metrics.Recorder) Option {
	return func(s *Store) {
		s.recorder = recorder
	}
}

// NewStore creates an empty store. A nil source disables syncing.
func NewStore(source sheet.Source, opts ...Option) *Store {
	store := &Store{
		source: source,
		pick:   rand.IntN,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Enabled reports whether a feed source is configured.
func (s *Store) Enabled() bool {
	return s.source != nil
}

// Sync refreshes the entries from the source.
// On failure the last good snapshot is kept and the error is recorded and returned for the caller to report.
func (s *Store) Sync(ctx context.Context) error {
	if s.source == nil {
		slog.Default().Debug("no feed source is configured, skip sync")
		return nil
	}

	s.mu.Lock()
	s.inFlight++
	s.mu.Unlock()

	startedAt := s.now()
	entries, err := s.source.FetchEntries(ctx)
	elapsed := s.now().Sub(startedAt).Seconds()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight--

	if err != nil {
		s.lastError = err
		s.recorder.ObserveSync("failure", elapsed, 0)
		slog.Default().Warn("failed to sync entries, keep the last good data",
			"error", err,
			"entries", len(s.lastGood),
		)
		return fmt.Errorf("source.FetchEntries() > %w", err)
	}

	s.lastError = nil
	s.syncedAt = s.now()
	if len(entries) == 0 {
		s.recorder.ObserveSync("empty", elapsed, 0)
		slog.Default().Info("feed returned no entries, keep the last good data",
			"entries", len(s.lastGood),
		)
		return nil
	}

	s.lastGood = entries
	picked := entries[s.pick(len(entries))]
	s.dailyPick = &picked
	s.recorder.ObserveSync("success", elapsed, len(entries))
	slog.Default().Info("synced entries",
		"entries", len(entries),
		"dailyPick", picked.ID,
	)
	return nil
}

// State returns a snapshot of the sync state.
func (s *Store) State() SyncState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SyncState{
		IsLoading:    s.inFlight > 0,
		LastGood:     s.lastGood.Clone(),
		LastError:    s.lastError,
		LastSyncedAt: s.syncedAt,
	}
}

// Entries returns the last good snapshot in source order.
func (s *Store) Entries() dictionary.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastGood.Clone()
}

// Entry looks up an entry by id. Unknown ids, e.g. stale bookmarks, return false.
func (s *Store) Entry(id string) (dictionary.DictionaryEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastGood.Find(id)
}

// DailyPick returns the entry picked at random on the last successful sync.
func (s *Store) DailyPick() (dictionary.DictionaryEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dailyPick == nil {
		return dictionary.DictionaryEntry{}, false
	}
	return *s.dailyPick, true
}

// Categories returns the distinct categories in first-seen order.
func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	categories := make([]string, 0)
	for _, entry := range s.lastGood {
		if entry.Category == "" {
			continue
		}
		if _, ok := seen[entry.Category]; ok {
			continue
		}
		seen[entry.Category] = struct{}{}
		categories = append(categories, entry.Category)
	}
	return categories
}
