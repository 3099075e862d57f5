package limiter

import (
	"context"
	"sync"
	"time"
)

// IntervalLimiter enforces a minimum spacing between requests per provider
// within one process. The per-provider lock is held across the wait, so
// concurrent callers line up and each consumes a full interval.
type IntervalLimiter struct {
	mu        sync.Mutex
	providers map[string]*providerState
}

type providerState struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

func NewIntervalLimiter() *IntervalLimiter {
	return &IntervalLimiter{providers: make(map[string]*providerState)}
}

// SetInterval configures the minimum spacing for a provider. A
// non-positive interval removes the budget (unbounded).
func (l *IntervalLimiter) SetInterval(provider string, interval time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if interval <= 0 {
		delete(l.providers, provider)
		return
	}
	if st, ok := l.providers[provider]; ok {
		st.mu.Lock()
		st.interval = interval
		st.mu.Unlock()
		return
	}
	l.providers[provider] = &providerState{interval: interval}
}

func (l *IntervalLimiter) Acquire(ctx context.Context, provider string) error {
	l.mu.Lock()
	st, ok := l.providers[provider]
	l.mu.Unlock()
	if !ok {
		return nil
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if !st.last.IsZero() {
		if wait := st.interval - time.Since(st.last); wait > 0 {
			timer := time.NewTimer(wait)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	// Stamp the post-wait time, not the Acquire call time, so intervals
	// do not drift shorter under sustained load.
	st.last = time.Now()
	return nil
}
