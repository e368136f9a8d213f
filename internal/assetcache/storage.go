package assetcache

import (
	"context"
	"sort"
	"sync"
)

// Storage holds named caches, one per generation.
type Storage interface {
	Open(ctx context.Context, name string) (Cache, error)
	Keys(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) (bool, error)
}

// Cache stores responses by URL. Put overwrites any response for the same URL.
type Cache interface {
	Match(ctx context.Context, url string) (*Response, bool, error)
	Put(ctx context.Context, response *Response) error
}

// MemoryStorage keeps caches in memory for the life of the process.
type MemoryStorage struct {
	mu     sync.Mutex
	caches map[string]*memoryCache
}

var _ Storage = (*MemoryStorage)(nil)

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		caches: make(map[string]*memoryCache),
	}
}

func (s *MemoryStorage) Open(_ context.Context, name string) (Cache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cache, ok := s.caches[name]
	if !ok {
		cache = &memoryCache{responses: make(map[string]*Response)}
		s.caches[name] = cache
	}
	return cache, nil
}

func (s *MemoryStorage) Keys(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.caches))
	for name := range s.caches {
		keys = append(keys, name)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *MemoryStorage) Delete(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.caches[name]; !ok {
		return false, nil
	}
	delete(s.caches, name)
	return true, nil
}

type memoryCache struct {
	mu        sync.RWMutex
	responses map[string]*Response
}

func (c *memoryCache) Match(_ context.Context, url string) (*Response, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	response, ok := c.responses[url]
	if !ok {
		return nil, false, nil
	}
	return response.Clone(), true, nil
}

func (c *memoryCache) Put(_ context.Context, response *Response) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.responses[response.URL] = response.Clone()
	return nil
}
