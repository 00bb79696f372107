package throttle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances only when the limiter sleeps, so admission timing is
// fully deterministic.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func newTestLimiter(quota int) (*Limiter, *fakeClock) {
	l := New(quota)
	clock := newFakeClock()
	l.now = clock.Now
	l.sleep = clock.Sleep
	return l, clock
}

func TestAcquireWithinQuotaIsImmediate(t *testing.T) {
	l, clock := newTestLimiter(4)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.NoError(t, l.Acquire(ctx))
	}
	assert.Empty(t, clock.sleeps, "the first quota admissions must not block")
	assert.Equal(t, 4, l.Pending())
}

func TestAcquireDelaysWhenWindowFull(t *testing.T) {
	l, clock := newTestLimiter(2)
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx))
	clock.now = clock.now.Add(300 * time.Millisecond)
	require.NoError(t, l.Acquire(ctx))

	// Third call: window holds 2 stamps, the oldest is 300ms old. The limiter
	// must sleep until that stamp ages out, plus the safety buffer.
	require.NoError(t, l.Acquire(ctx))
	require.Len(t, clock.sleeps, 1)
	assert.Equal(t, Window-300*time.Millisecond+Buffer, clock.sleeps[0])
}

func TestAcquireNeverExceedsQuotaPerWindow(t *testing.T) {
	l, clock := newTestLimiter(3)
	ctx := context.Background()

	var admissions []time.Time
	for i := 0; i < 12; i++ {
		require.NoError(t, l.Acquire(ctx))
		admissions = append(admissions, clock.Now())
	}

	// No trailing window in the admission trace may contain more than quota.
	for i := range admissions {
		count := 0
		for j := i; j < len(admissions); j++ {
			if admissions[j].Sub(admissions[i]) < Window {
				count++
			}
		}
		assert.LessOrEqualf(t, count, 3, "window starting at admission %d holds %d admissions", i, count)
	}
}

func TestAcquireRechecksAfterSleep(t *testing.T) {
	l, clock := newTestLimiter(1)
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx))

	// Simulate another goroutine grabbing the freed slot during the sleep:
	// the first wake-up finds the window full again and sleeps once more.
	stolen := false
	l.sleep = func(ctx context.Context, d time.Duration) error {
		if err := clock.Sleep(ctx, d); err != nil {
			return err
		}
		if !stolen {
			stolen = true
			l.mu.Lock()
			l.stamps = append(l.stamps, clock.Now())
			l.mu.Unlock()
		}
		return nil
	}

	require.NoError(t, l.Acquire(ctx))
	assert.Len(t, clock.sleeps, 2, "a stolen slot must force a second wait")
}

func TestAcquireHonorsContextCancellation(t *testing.T) {
	l := New(1)
	require.NoError(t, l.Acquire(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := l.Acquire(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReset(t *testing.T) {
	l, clock := newTestLimiter(2)
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx))
	require.NoError(t, l.Acquire(ctx))
	assert.Equal(t, 2, l.Pending())

	l.Reset()
	assert.Zero(t, l.Pending())

	// Post-reset admissions start from a clean window.
	require.NoError(t, l.Acquire(ctx))
	require.NoError(t, l.Acquire(ctx))
	assert.Empty(t, clock.sleeps)
}

func TestPendingPrunesAgedStamps(t *testing.T) {
	l, clock := newTestLimiter(4)
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx))
	require.NoError(t, l.Acquire(ctx))
	assert.Equal(t, 2, l.Pending())

	clock.now = clock.now.Add(Window + time.Millisecond)
	assert.Zero(t, l.Pending())
}
