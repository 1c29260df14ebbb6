package mediawiki

import (
	"context"
	"sync"
	"time"

	json "github.com/eznix86/mediawiki-assetsource/jsoncompat"
)

// Cache stores decoded query responses keyed by QueryHash of the request URL.
type Cache interface {
	Get(ctx context.Context, key string) (json.Object, bool, error)
	Set(ctx context.Context, key string, value json.Object) error
}

type cacheEntry struct {
	value    json.Object
	storedAt time.Time
}

// MemoryCache is an in-process Cache. Entries older than TTL are treated as
// missing; a zero TTL keeps entries forever.
type MemoryCache struct {
	TTL time.Duration

	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{TTL: ttl}
}

func (m *MemoryCache) Get(_ context.Context, key string) (json.Object, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if m.TTL > 0 && m.clock().Sub(entry.storedAt) > m.TTL {
		delete(m.entries, key)
		return nil, false, nil
	}
	return entry.value, true, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, value json.Object) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.entries == nil {
		m.entries = make(map[string]cacheEntry)
	}
	m.entries[key] = cacheEntry{value: value, storedAt: m.clock()}
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *MemoryCache) clock() time.Time {
	if m.now != nil {
		return m.now()
	}
	return time.Now()
}
