package cache

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryClient implements a bounded in-memory cache with lazy expiry.
// Expired entries are evicted when read; when the entry cap is reached the
// oldest tenth of the entries is dropped to make room.
type MemoryClient struct {
	mu         sync.Mutex
	data       map[string]memoryEntry
	maxEntries int
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryClient creates a bounded in-memory cache client.
func NewMemoryClient(maxEntries int) *MemoryClient {
	if maxEntries <= 0 {
		maxEntries = 1000
	}

	return &MemoryClient{
		data:       make(map[string]memoryEntry),
		maxEntries: maxEntries,
	}
}

// Get retrieves a value, evicting it if expired.
func (c *MemoryClient) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}

	if !time.Now().Before(entry.expiresAt) {
		delete(c.data, key)
		return nil, ErrCacheMiss
	}

	return entry.value, nil
}

// Set stores a value with the given TTL. A non-positive TTL stores an entry
// that is already expired, so the next Get is a miss.
func (c *MemoryClient) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.data[key]; !exists && len(c.data) >= c.maxEntries {
		c.evictOldestTenth()
	}

	c.data[key] = memoryEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}

	return nil
}

// Delete removes a value from the cache.
func (c *MemoryClient) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, key)
	return nil
}

// Close is a no-op for the memory cache.
func (c *MemoryClient) Close() error {
	return nil
}

// Len returns the current number of entries, expired or not.
func (c *MemoryClient) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// evictOldestTenth drops the 10% of entries closest to expiry, at least one.
// Caller must hold the lock.
func (c *MemoryClient) evictOldestTenth() {
	type aged struct {
		key       string
		expiresAt time.Time
	}

	entries := make([]aged, 0, len(c.data))
	for key, entry := range c.data {
		entries = append(entries, aged{key: key, expiresAt: entry.expiresAt})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].expiresAt.Before(entries[j].expiresAt)
	})

	drop := len(entries) / 10
	if drop < 1 {
		drop = 1
	}

	for i := 0; i < drop; i++ {
		delete(c.data, entries[i].key)
	}
}
