package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testClock is a manually advanced time source.
type testClock struct {
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestManagerTTLLifecycle(t *testing.T) {
	clock := newTestClock()
	m := NewManager(WithClock(clock.Now))

	key := Key("cohort", "rec123")
	m.Set(key, "view-v1", 60*time.Second)

	v, ok := m.Get(key)
	require.True(t, ok, "expected hit immediately after set")
	assert.Equal(t, "view-v1", v)

	// One second before expiry: still a hit.
	clock.Advance(59 * time.Second)
	_, ok = m.Get(key)
	assert.True(t, ok)

	// At expiry the entry is a miss but remains readable as stale.
	clock.Advance(1 * time.Second)
	_, ok = m.Get(key)
	assert.False(t, ok, "expected miss once ttl elapsed")

	stale, ok := m.GetStale(key)
	require.True(t, ok, "expired entry must stay available for stale reads")
	assert.Equal(t, "view-v1", stale)

	// Overwriting resurrects the entry with a fresh expiry.
	m.Set(key, "view-v2", 60*time.Second)
	v, ok = m.Get(key)
	require.True(t, ok)
	assert.Equal(t, "view-v2", v)
}

func TestManagerCachedNilIsHit(t *testing.T) {
	m := NewManager()
	m.Set(Key("profile", "ghost@example.com"), nil, time.Minute)

	v, ok := m.Get(Key("profile", "ghost@example.com"))
	assert.True(t, ok, "a cached nil is a hit, distinct from a miss")
	assert.Nil(t, v)

	_, ok = m.Get(Key("profile", "other@example.com"))
	assert.False(t, ok)
}

func TestManagerInvalidate(t *testing.T) {
	m := NewManager()
	m.Set(Key("cohort", "recA"), 1, time.Minute)
	m.Set(Key("cohort", "recA", "institution"), 2, time.Minute)
	m.Set(Key("cohort", "recB"), 3, time.Minute)
	m.Set(Key("profile", "recA"), 4, time.Minute)

	removed := m.Invalidate("cohort", "recA")
	assert.Equal(t, 2, removed, "id-scoped invalidation removes the entry and its parameterized variants")

	// Idempotent: nothing left to remove.
	assert.Zero(t, m.Invalidate("cohort", "recA"))

	// Type-scoped invalidation clears the rest of the type only.
	assert.Equal(t, 1, m.Invalidate("cohort"))
	_, ok := m.Get(Key("profile", "recA"))
	assert.True(t, ok, "other types must be untouched")
}

func TestManagerStats(t *testing.T) {
	clock := newTestClock()
	m := NewManager(WithClock(clock.Now))

	m.Set(Key("cohort", "recA"), map[string]string{"name": "fall"}, time.Minute)
	m.Set(Key("cohort", "recB"), map[string]string{"name": "spring"}, time.Hour)
	m.Set(Key("profile", "recC"), "p", time.Hour)

	clock.Advance(2 * time.Minute)
	st := m.Stats()

	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 2, st.Valid)
	assert.Equal(t, 1, st.Expired)
	assert.Positive(t, st.SizeBytes)
	assert.Equal(t, TypeStats{Total: 2, Valid: 1, Expired: 1}, st.ByType["cohort"])
	assert.Equal(t, TypeStats{Total: 1, Valid: 1}, st.ByType["profile"])
}

func TestManagerPersistTier(t *testing.T) {
	store, err := Open(t.TempDir()+"/tier.bbolt", Options{})
	require.NoError(t, err)
	defer store.Close()

	clock := newTestClock()
	m := NewManager(WithClock(clock.Now), WithPersist(store))

	m.Set(Key("team", "rec1"), map[string]string{"name": "alpha"}, time.Minute)

	b, ok := m.GetStaleBytes(Key("team", "rec1"))
	require.True(t, ok, "writes must mirror into the durable tier")
	assert.JSONEq(t, `{"name":"alpha"}`, string(b))

	// A fresh manager (as after restart) still finds the durable copy.
	m2 := NewManager(WithPersist(store))
	b, ok = m2.GetStaleBytes(Key("team", "rec1"))
	require.True(t, ok)
	assert.JSONEq(t, `{"name":"alpha"}`, string(b))

	m.Invalidate("team", "rec1")
	_, ok = m2.GetStaleBytes(Key("team", "rec1"))
	assert.False(t, ok, "invalidation must propagate to the durable tier")
}
