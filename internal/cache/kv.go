package cache

import (
	"errors"
	"time"
)

// ErrNotFound is returned by KV.Get when the key is absent or expired.
var ErrNotFound = errors.New("cache: key not found")

// KV is the backing key-value store for cached results and counters.
// Implementations are externally synchronized; callers never lock.
type KV interface {
	Get(key string) ([]byte, error)
	SetTTL(key string, value []byte, ttl time.Duration) error
	// Incr atomically increments the integer stored at key, creating it
	// at 1 with the given TTL when absent, and returns the new value.
	Incr(key string, ttl time.Duration) (int64, error)
	Close() error
}
