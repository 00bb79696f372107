package cache

import (
	"bytes"
	"encoding/binary"
	"errors"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Store provides a persistent KV cache with TTL semantics backed by bbolt.
// It is safe for concurrent use by multiple goroutines and keeps expired
// values on disk so they can be served as stale fallbacks.
type Store struct {
	db         *bolt.DB
	bucket     []byte
	defaultTTL time.Duration
}

type Options struct {
	// Bucket is the name of the Bolt bucket to use.
	Bucket string
	// DefaultTTL is used when Put is called with ttl <= 0.
	DefaultTTL time.Duration
}

var (
	ErrNotFound = errors.New("cache: not found")
	ErrExpired  = errors.New("cache: expired")
)

// Open initializes or opens a Store at the given path.
func Open(path string, opts Options) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	bucket := []byte("records")
	if opts.Bucket != "" {
		bucket = []byte(opts.Bucket)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, bucket: bucket, defaultTTL: opts.DefaultTTL}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put stores value with an absolute expiration computed as now+ttl.
// If ttl <= 0, DefaultTTL is used; if DefaultTTL <= 0, the item never expires.
func (s *Store) Put(key string, value []byte, ttl time.Duration) error {
	expiresAt := int64(0)
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl).Unix()
	}
	// Layout: 8 bytes big endian expiresAt || raw value
	buf := make([]byte, 8+len(value))
	binary.BigEndian.PutUint64(buf[:8], uint64(expiresAt))
	copy(buf[8:], value)

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		return b.Put([]byte(key), buf)
	})
}

// Get returns the cached value if present and not expired.
func (s *Store) Get(key string) ([]byte, error) {
	v, expired, err := s.read(key)
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, ErrExpired
	}
	return v, nil
}

// GetStale returns the cached value regardless of expiry. Only absence is an
// error.
func (s *Store) GetStale(key string) ([]byte, error) {
	v, _, err := s.read(key)
	return v, err
}

func (s *Store) read(key string) (value []byte, expired bool, err error) {
	var exists bool
	err = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		v := b.Get([]byte(key))
		if v == nil {
			return nil
		}
		exists = true
		expiresAt := int64(binary.BigEndian.Uint64(v[:8]))
		if expiresAt > 0 && time.Now().Unix() > expiresAt {
			expired = true
		}
		value = append([]byte(nil), v[8:]...)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, ErrNotFound
	}
	return value, expired, nil
}

// Delete removes a key.
func (s *Store) Delete(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(key))
	})
}

// DeletePrefix removes every key with the given prefix.
func (s *Store) DeletePrefix(prefix string) (int, error) {
	p := []byte(prefix)
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.bucket).Cursor()
		for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
			if err := c.Delete(); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// StoreStats summarizes the durable tier for the daemon's stats op.
type StoreStats struct {
	Total     int   `json:"total"`
	Expired   int   `json:"expired"`
	SizeBytes int64 `json:"size_bytes"`
}

// Stats counts keys and expired keys and sums stored value sizes.
func (s *Store) Stats() (StoreStats, error) {
	var st StoreStats
	now := time.Now().Unix()
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).ForEach(func(k, v []byte) error {
			st.Total++
			st.SizeBytes += int64(len(v) - 8)
			expiresAt := int64(binary.BigEndian.Uint64(v[:8]))
			if expiresAt > 0 && now > expiresAt {
				st.Expired++
			}
			return nil
		})
	})
	return st, err
}
