// Package bookmark persists the set of bookmarked entry ids.
package bookmark

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/at-ishikawa/offlinedict/internal/storage"
)

// Set is an immutable set of entry ids.
type Set struct {
	ids map[string]struct{}
}

// NewSet builds a set, dropping empty and duplicate ids.
func NewSet(ids ...string) Set {
	set := Set{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		if id == "" {
			continue
		}
		set.ids[id] = struct{}{}
	}
	return set
}

func (s Set) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s Set) Len() int {
	return len(s.ids)
}

// IDs returns the ids sorted, which is also the persisted order.
func (s Set) IDs() []string {
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (s Set) toggled(id string) (Set, bool) {
	ids := s.IDs()
	if s.Contains(id) {
		return NewSet(slices.DeleteFunc(ids, func(v string) bool { return v == id })...), false
	}
	return NewSet(append(ids, id)...), true
}

// Persistence keeps the bookmark set under a single key of a KeyValueStore.
// Every toggle overwrites the whole serialized set.
type Persistence struct {
	store storage.KeyValueStore
	key   string

	mu      sync.Mutex
	current *Set
}

func NewPersistence(store storage.KeyValueStore, key string) *Persistence {
	return &Persistence{
		store: store,
		key:   key,
	}
}

// Load reads the stored set. A missing, unreadable, or corrupted value yields an empty set.
func (p *Persistence) Load(ctx context.Context) Set {
	p.mu.Lock()
	defer p.mu.Unlock()

	set := p.read(ctx)
	p.current = &set
	return set
}

func (p *Persistence) read(ctx context.Context) Set {
	contents, err := p.store.Get(ctx, p.key)
	if errors.Is(err, storage.ErrNotFound) {
		return NewSet()
	}
	if err != nil {
		slog.Default().Warn("failed to read bookmarks, start with no bookmarks",
			"key", p.key,
			"error", err,
		)
		return NewSet()
	}

	var ids []string
	if err := json.Unmarshal(contents, &ids); err != nil {
		slog.Default().Warn("stored bookmarks are corrupted, start with no bookmarks",
			"key", p.key,
			"error", err,
		)
		return NewSet()
	}
	return NewSet(ids...)
}

// Toggle flips the membership of id and persists the resulting set before returning.
// added reports whether id is now bookmarked. When persisting fails the previous set is kept.
func (p *Persistence) Toggle(ctx context.Context, id string) (set Set, added bool, err error) {
	if id == "" {
		return Set{}, false, fmt.Errorf("bookmark id must not be empty")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		loaded := p.read(ctx)
		p.current = &loaded
	}

	next, added := p.current.toggled(id)
	contents, err := json.Marshal(next.IDs())
	if err != nil {
		return *p.current, false, fmt.Errorf("json.Marshal() > %w", err)
	}
	if err := p.store.Set(ctx, p.key, contents); err != nil {
		return *p.current, false, fmt.Errorf("store.Set(%s) > %w", p.key, err)
	}

	p.current = &next
	return next, added, nil
}

// Current returns the in-memory set, loading it on first use.
func (p *Persistence) Current(ctx context.Context) Set {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		loaded := p.read(ctx)
		p.current = &loaded
	}
	return *p.current
}
