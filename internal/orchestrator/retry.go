package orchestrator

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/bleubryce/AgentX-AI-sub001/internal/provider"
	"github.com/bleubryce/AgentX-AI-sub001/internal/source"
)

// RetryPolicy bounds how hard a worker tries one fetch-validate-store
// cycle before dropping the item. An explicit policy object rather than
// exception-style control flow: the attempt returns a typed error, the
// policy decides what happens next.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff:     ExponentialBackoff(1*time.Second, 32*time.Second),
	}
}

// ExponentialBackoff doubles the delay per attempt up to a cap, with up to
// 50% jitter so retrying workers do not stampede a recovering upstream.
func ExponentialBackoff(base, max time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		backoff := time.Duration(math.Min(float64(base)*math.Pow(2, float64(attempt)), float64(max)))
		jitter := time.Duration(rand.Float64() * float64(backoff) * 0.5)
		return backoff + jitter
	}
}

// wait sleeps out the backoff for the given attempt, or returns early when
// the context is cancelled.
func (p RetryPolicy) wait(ctx context.Context, attempt int) error {
	timer := time.NewTimer(p.Backoff(attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// transient reports whether the failure is worth another attempt.
// Upstream failures carry their own classification; a robots denial is
// final; anything else (storage unavailable, malformed payload) gets the
// remaining retry budget.
func transient(err error) bool {
	var ue *provider.UpstreamError
	if errors.As(err, &ue) {
		return ue.Transient()
	}
	if errors.Is(err, source.ErrDisallowed) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}
