// Package throttle provides sliding-window admission control for outbound
// record-store calls. It models only this process's share of the quota; it
// does not coordinate across processes.
package throttle

import (
	"context"
	"sync"
	"time"
)

const (
	// Window is the trailing interval over which the store counts requests.
	Window = time.Second
	// Buffer is a safety margin added to every computed delay so admissions
	// land just inside the remote window rather than on its edge.
	Buffer = 50 * time.Millisecond
)

// Limiter admits at most quota calls in any trailing Window, as observed by
// its own admission ledger.
type Limiter struct {
	mu     sync.Mutex
	quota  int
	stamps []time.Time

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// New returns a Limiter admitting at most quota calls per Window.
func New(quota int) *Limiter {
	if quota < 1 {
		quota = 1
	}
	return &Limiter{
		quota: quota,
		now:   time.Now,
		sleep: sleepCtx,
	}
}

// Acquire blocks until it is safe to issue one outbound call. It prunes
// stamps older than Window, admits immediately when the window has room, and
// otherwise sleeps until the oldest stamp ages out (plus Buffer) before
// re-checking. The window is always re-checked after sleeping: another
// goroutine may have taken the freed slot.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		l.prune(now)
		if len(l.stamps) < l.quota {
			l.stamps = append(l.stamps, now)
			l.mu.Unlock()
			return nil
		}
		oldest := l.stamps[0]
		l.mu.Unlock()

		delay := Window - now.Sub(oldest) + Buffer
		if delay < 0 {
			delay = Buffer
		}
		if err := l.sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// Reset clears the admission ledger. Called after a confirmed quota rejection
// from the store: the remote window and the local ledger have diverged, and a
// clean slate prevents compounding delays.
func (l *Limiter) Reset() {
	l.mu.Lock()
	l.stamps = l.stamps[:0]
	l.mu.Unlock()
}

// Pending reports how many admissions remain in the current window.
func (l *Limiter) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())
	return len(l.stamps)
}

// prune drops stamps older than Window. Caller holds l.mu.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-Window)
	i := 0
	for i < len(l.stamps) && !l.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.stamps = append(l.stamps[:0], l.stamps[i:]...)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
