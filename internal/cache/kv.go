package cache

import "time"

// KV defines the durable key-value cache contract with TTL semantics.
// Implementations must be safe for concurrent use by multiple goroutines.
type KV interface {
	// Get returns the value if present and not expired.
	Get(key string) ([]byte, error)
	// GetStale returns the value even when expired; only absence is an error.
	GetStale(key string) ([]byte, error)
	Put(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	// DeletePrefix removes every key with the given prefix and reports how
	// many were removed.
	DeletePrefix(prefix string) (int, error)
}
