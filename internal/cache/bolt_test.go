package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T, opts Options) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.bbolt"), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStorePutGet(t *testing.T) {
	s := openTestStore(t, Options{})

	require.NoError(t, s.Put("team:rec1", []byte(`{"name":"alpha"}`), time.Minute))

	v, err := s.Get("team:rec1")
	require.NoError(t, err)
	assert.Equal(t, `{"name":"alpha"}`, string(v))

	_, err = s.Get("team:missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreExpiry(t *testing.T) {
	s := openTestStore(t, Options{})

	// ttl<=0 with no DefaultTTL means the entry never expires.
	require.NoError(t, s.Put("cohort:old", []byte("v"), -time.Hour))
	v, err := s.Get("cohort:old")
	require.NoError(t, err)
	assert.Equal(t, "v", string(v))

	// GetStale never reports expiry, only absence.
	_, err = s.GetStale("cohort:missing")
	assert.ErrorIs(t, err, ErrNotFound)
	sv, err := s.GetStale("cohort:old")
	require.NoError(t, err)
	assert.Equal(t, "v", string(sv))
}

func TestStoreDeletePrefix(t *testing.T) {
	s := openTestStore(t, Options{})

	require.NoError(t, s.Put("cohort:reca", []byte("1"), time.Minute))
	require.NoError(t, s.Put("cohort:reca:ff", []byte("2"), time.Minute))
	require.NoError(t, s.Put("cohort:recb", []byte("3"), time.Minute))
	require.NoError(t, s.Put("profile:reca", []byte("4"), time.Minute))

	removed, err := s.DeletePrefix("cohort:reca")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	removed, err = s.DeletePrefix("cohort:reca")
	require.NoError(t, err)
	assert.Zero(t, removed, "prefix deletion is idempotent")

	_, err = s.Get("cohort:recb")
	assert.NoError(t, err)
	_, err = s.Get("profile:reca")
	assert.NoError(t, err)
}

func TestStoreStats(t *testing.T) {
	s := openTestStore(t, Options{})

	require.NoError(t, s.Put("a", []byte("xx"), time.Minute))
	require.NoError(t, s.Put("b", []byte("yyyy"), time.Minute))

	st, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, st.Total)
	assert.Zero(t, st.Expired)
	assert.Equal(t, int64(6), st.SizeBytes)
}
