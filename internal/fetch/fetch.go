// Package fetch wraps remote record-store calls with caching, admission
// throttling, error classification and bounded rate-limit retry. It is the
// only path the resolver uses to reach the store.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/alexonufrak/dashboardv5-sub004/internal/cache"
	"github.com/alexonufrak/dashboardv5-sub004/internal/errs"
	"github.com/alexonufrak/dashboardv5-sub004/internal/logger"
	"github.com/alexonufrak/dashboardv5-sub004/internal/throttle"
)

// Orchestrator coordinates one quota pool: a cache, a throttle and the retry
// policy. Construct one per process (or per test) rather than sharing
// process-wide singletons.
type Orchestrator struct {
	cache      *cache.Manager
	limiter    *throttle.Limiter
	maxRetries int
	group      singleflight.Group

	sleep  func(context.Context, time.Duration) error
	jitter func() time.Duration
}

// New builds an Orchestrator. maxRetries bounds rate-limit retries after the
// initial attempt.
func New(c *cache.Manager, l *throttle.Limiter, maxRetries int) *Orchestrator {
	return &Orchestrator{
		cache:      c,
		limiter:    l,
		maxRetries: maxRetries,
		sleep:      sleepCtx,
		jitter: func() time.Duration {
			return time.Duration(rand.Int63n(1000)) * time.Millisecond
		},
	}
}

// Cache exposes the cache manager for invalidation and stats.
func (o *Orchestrator) Cache() *cache.Manager { return o.cache }

// Execute returns the cached value for key, or runs fn through the throttle
// and retry policy and caches the result for ttl. Concurrent calls for the
// same key share a single in-flight fetch. When the fetch fails terminally a
// stale cache entry is served if one exists (memory first, then the durable
// tier); otherwise the classified error propagates.
func Execute[T any](ctx context.Context, o *Orchestrator, key string, ttl time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if v, ok := o.cache.Get(key); ok {
		if t, ok := v.(T); ok {
			return t, nil
		}
	}

	v, err, shared := o.group.Do(key, func() (any, error) {
		// Re-check after winning the flight; a racer may have filled it.
		if v, ok := o.cache.Get(key); ok {
			return v, nil
		}
		return o.run(ctx, key, ttl, func(ctx context.Context) (any, error) {
			return fn(ctx)
		})
	})
	if shared {
		logger.Debugf("fetch: %s shared an in-flight request", key)
	}
	if err != nil {
		// Stale fallback only softens classified store failures. An
		// unclassified error here is the caller's own context ending, and
		// a cancelled caller gets ctx.Err back, not data.
		var ce *errs.Error
		if !errors.As(err, &ce) {
			return zero, err
		}
		if sv, ok := o.cache.GetStale(key); ok {
			if t, ok := sv.(T); ok {
				logger.Warnf("fetch: %s failed (%v), serving stale entry", key, err)
				return t, nil
			}
		}
		if b, ok := o.cache.GetStaleBytes(key); ok {
			var t T
			if json.Unmarshal(b, &t) == nil {
				logger.Warnf("fetch: %s failed (%v), serving stale durable entry", key, err)
				return t, nil
			}
		}
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("fetch: value for %q has type %T, want %T", key, v, zero)
	}
	return t, nil
}

// run is the bounded retry loop. Retry state lives in the loop counter, never
// in recursion. Only rate-limit rejections retry; each retry waits
// 2^attempt seconds plus up to 1s of jitter and resets the throttle ledger,
// since the remote window and the local one have demonstrably diverged.
func (o *Orchestrator) run(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) (any, error)) (any, error) {
	op := "fetch " + key
	for attempt := 0; ; attempt++ {
		if err := o.limiter.Acquire(ctx); err != nil {
			return nil, err
		}
		v, err := fn(ctx)
		if err == nil {
			o.cache.Set(key, v, ttl)
			return v, nil
		}
		cerr := errs.Classify(err, op)
		if cerr.Kind != errs.RateLimited {
			return nil, cerr
		}
		if attempt >= o.maxRetries {
			logger.Errorf("fetch: %s still rate limited after %d retries", key, o.maxRetries)
			return nil, cerr
		}
		delay := time.Duration(1<<uint(attempt))*time.Second + o.jitter()
		logger.Warnf("fetch: %s rate limited, retry %d/%d in %s", key, attempt+1, o.maxRetries, delay)
		if err := o.sleep(ctx, delay); err != nil {
			return nil, err
		}
		o.limiter.Reset()
	}
}

// Call runs a non-cached operation (writes) through the throttle and
// classifier. Writes are not retried: replaying a create on an ambiguous
// failure could duplicate records.
func (o *Orchestrator) Call(ctx context.Context, op string, fn func(context.Context) error) error {
	if err := o.limiter.Acquire(ctx); err != nil {
		return err
	}
	if err := fn(ctx); err != nil {
		return errs.Classify(err, op)
	}
	return nil
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
