// Package cache holds the in-memory cache manager used by the data-access
// layer, the durable bbolt-backed store behind the cache daemon, and the
// daemon's wire protocol and client.
package cache

import (
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// entry is a single cached value. Expired entries are kept until overwritten
// or invalidated so they remain available for stale-on-error reads.
type entry struct {
	value     any
	storedAt  time.Time
	expiresAt time.Time
}

// Manager is the in-process cache: a key-value table with per-entry expiry,
// stale-read fallback and type-scoped invalidation. An optional durable tier
// receives JSON copies of every write and serves stale fallbacks that survive
// process restarts.
type Manager struct {
	mu      sync.RWMutex
	entries map[string]entry
	persist KV
	now     func() time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithPersist attaches a durable tier. Writes are mirrored best-effort and
// GetStaleBytes reads from it.
func WithPersist(kv KV) ManagerOption {
	return func(m *Manager) { m.persist = kv }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// NewManager returns an empty cache.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		entries: make(map[string]entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the cached value for key if present and not expired. A cached
// nil is a hit; absence and expiry are both misses.
func (m *Manager) Get(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if !m.now().Before(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

// GetStale returns the cached value even when expired. Used only as a
// last-resort fallback after a refresh attempt fails.
func (m *Manager) GetStale(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// GetStaleBytes reads a (possibly expired) JSON value from the durable tier.
// It only fires when the in-memory table has nothing for the key, e.g. after
// a restart.
func (m *Manager) GetStaleBytes(key string) ([]byte, bool) {
	if m.persist == nil {
		return nil, false
	}
	v, err := m.persist.GetStale(key)
	if err != nil {
		return nil, false
	}
	return v, true
}

// Set inserts or overwrites an entry with expiry now+ttl and mirrors it to
// the durable tier when one is attached.
func (m *Manager) Set(key string, value any, ttl time.Duration) {
	now := m.now()
	m.mu.Lock()
	m.entries[key] = entry{value: value, storedAt: now, expiresAt: now.Add(ttl)}
	m.mu.Unlock()
	if m.persist != nil {
		if b, err := json.Marshal(value); err == nil {
			_ = m.persist.Put(key, b, ttl)
		}
	}
}

// Invalidate deletes every entry whose key starts with
// "entityType:" or, when an identifier is given,
// "entityType:normalizedIdentifier". It returns the number of in-memory
// entries removed and is idempotent.
func (m *Manager) Invalidate(entityType string, identifier ...string) int {
	prefix := entityType + ":"
	if len(identifier) > 0 && identifier[0] != "" {
		prefix += NormalizeIdentifier(identifier[0])
	}
	m.mu.Lock()
	removed := 0
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
			removed++
		}
	}
	m.mu.Unlock()
	if m.persist != nil {
		_, _ = m.persist.DeletePrefix(prefix)
	}
	return removed
}

// TypeStats is the per-entity-type slice of Stats.
type TypeStats struct {
	Total   int `json:"total"`
	Valid   int `json:"valid"`
	Expired int `json:"expired"`
}

// Stats describes the cache contents for operational visibility.
type Stats struct {
	Total     int                  `json:"total"`
	Valid     int                  `json:"valid"`
	Expired   int                  `json:"expired"`
	SizeBytes int                  `json:"size_bytes"`
	ByType    map[string]TypeStats `json:"by_type"`
}

// Stats reports entry counts, an estimated serialized size and a per-type
// breakdown. The size is the JSON length of each value, an estimate only.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := m.now()
	st := Stats{ByType: make(map[string]TypeStats)}
	for k, e := range m.entries {
		st.Total++
		typ := k
		if i := strings.IndexByte(k, ':'); i >= 0 {
			typ = k[:i]
		}
		ts := st.ByType[typ]
		ts.Total++
		if !now.Before(e.expiresAt) {
			st.Expired++
			ts.Expired++
		} else {
			st.Valid++
			ts.Valid++
		}
		st.ByType[typ] = ts
		if b, err := json.Marshal(e.value); err == nil {
			st.SizeBytes += len(b)
		}
	}
	return st
}
