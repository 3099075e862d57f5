package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalForRate(t *testing.T) {
	assert.Equal(t, time.Second, IntervalForRate(60))
	assert.Equal(t, 2*time.Second, IntervalForRate(30))
	assert.Equal(t, time.Duration(0), IntervalForRate(0))
	assert.Equal(t, time.Duration(0), IntervalForRate(-5))
}

func TestIntervalLimiterSpacing(t *testing.T) {
	l := NewIntervalLimiter()
	l.SetInterval("attom", 50*time.Millisecond)

	ctx := context.Background()
	const calls = 3

	start := time.Now()
	for i := 0; i < calls; i++ {
		require.NoError(t, l.Acquire(ctx, "attom"))
	}
	elapsed := time.Since(start)

	// N acquisitions must span at least (N-1) intervals.
	assert.GreaterOrEqual(t, elapsed, time.Duration(calls-1)*50*time.Millisecond)
}

func TestIntervalLimiterUnboundedProvider(t *testing.T) {
	l := NewIntervalLimiter()

	start := time.Now()
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Acquire(context.Background(), "no-budget"))
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestIntervalLimiterRemovedBudget(t *testing.T) {
	l := NewIntervalLimiter()
	l.SetInterval("attom", time.Hour)
	l.SetInterval("attom", 0)

	start := time.Now()
	require.NoError(t, l.Acquire(context.Background(), "attom"))
	require.NoError(t, l.Acquire(context.Background(), "attom"))
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestIntervalLimiterCancellation(t *testing.T) {
	l := NewIntervalLimiter()
	l.SetInterval("attom", time.Hour)

	require.NoError(t, l.Acquire(context.Background(), "attom"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := l.Acquire(ctx, "attom")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestIntervalLimiterConcurrentCallers(t *testing.T) {
	l := NewIntervalLimiter()
	l.SetInterval("attom", 30*time.Millisecond)

	const callers = 4
	done := make(chan struct{}, callers)

	start := time.Now()
	for i := 0; i < callers; i++ {
		go func() {
			_ = l.Acquire(context.Background(), "attom")
			done <- struct{}{}
		}()
	}
	for i := 0; i < callers; i++ {
		<-done
	}

	// Concurrent callers serialize; total span covers (N-1) intervals.
	assert.GreaterOrEqual(t, time.Since(start), time.Duration(callers-1)*30*time.Millisecond)
}
