// Package limiter throttles outbound calls to metered provider APIs. It is
// only consulted before a live fetch; cache hits never touch it.
package limiter

import (
	"context"
	"time"
)

// Limiter blocks the caller until it is safe to issue a request against
// the named provider. A provider with no configured budget proceeds
// immediately.
type Limiter interface {
	Acquire(ctx context.Context, provider string) error
}

// IntervalForRate converts a requests-per-minute budget into the minimum
// spacing between requests. Non-positive budgets mean unbounded.
func IntervalForRate(requestsPerMinute float64) time.Duration {
	if requestsPerMinute <= 0 {
		return 0
	}
	return time.Duration(float64(time.Minute) / requestsPerMinute)
}
