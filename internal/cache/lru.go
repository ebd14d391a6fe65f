package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

// LRUCache is an in-process Cache used when Redis is not configured, and as
// the cache backend in tests. Expiry is checked lazily on Get since the
// underlying LRU has no TTL of its own.
type LRUCache struct {
	entries *lru.Cache
}

type lruEntry struct {
	payload   []byte
	expiresAt time.Time
}

func NewLRU(size int) (*LRUCache, error) {
	entries, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &LRUCache{entries: entries}, nil
}

func (c *LRUCache) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := c.entries.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	entry := v.(lruEntry)
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		c.entries.Remove(key)
		return nil, ErrCacheMiss
	}
	return entry.payload, nil
}

func (c *LRUCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := lruEntry{payload: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	c.entries.Add(key, entry)
	return nil
}

func (c *LRUCache) Delete(_ context.Context, key string) error {
	c.entries.Remove(key)
	return nil
}
