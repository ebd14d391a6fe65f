package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned when a key is absent. Any other error from a
// Cache means the backend itself misbehaved; callers are expected to
// downgrade those to a miss rather than fail the request.
var ErrCacheMiss = errors.New("cache: key not found")

// Cache is the fast lookup layer in front of the durable store. Entries are
// opaque byte payloads with a per-entry TTL.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
