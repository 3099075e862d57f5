// Package orchestrator supervises the acquisition workers. Each worker
// drains targets from the queue and runs the fetch-validate-store cycle
// sequentially; the orchestrator owns retries, politeness delays, the
// global item budget and shutdown.
package orchestrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bleubryce/AgentX-AI-sub001/internal/archive"
	"github.com/bleubryce/AgentX-AI-sub001/internal/metrics"
	"github.com/bleubryce/AgentX-AI-sub001/internal/queue"
	"github.com/bleubryce/AgentX-AI-sub001/internal/record"
	"github.com/bleubryce/AgentX-AI-sub001/internal/source"
	"github.com/bleubryce/AgentX-AI-sub001/internal/stats"
	"github.com/bleubryce/AgentX-AI-sub001/internal/store"
	"github.com/bleubryce/AgentX-AI-sub001/internal/validate"
)

// Config wires an Orchestrator. Queue, Sources, Validator and Store are
// required; the rest have working defaults.
type Config struct {
	Queue     queue.Queue
	Sources   []source.Source
	Validator *validate.Validator
	Store     store.Store
	Stats     *stats.Pipeline

	// Optional collaborators.
	Archiver archive.Archiver
	Metrics  *metrics.Service

	Workers  int
	MaxItems int64 // global budget of stored records; <=0 means unbounded
	Retry    RetryPolicy

	// Politeness is the minimum delay between successive fetches by one
	// worker against the same source. This protects crawled sites and is
	// independent of the provider rate limiter, which protects metered
	// API quota.
	Politeness time.Duration

	// ExitOnEmpty makes workers return once the queue drains instead of
	// polling, for batch-style runs.
	ExitOnEmpty bool
}

type Orchestrator struct {
	cfg     Config
	sources map[string]source.Source

	stored   atomic.Int64
	stop     chan struct{}
	stopOnce sync.Once
}

func New(cfg Config) *Orchestrator {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryPolicy()
	}

	sources := make(map[string]source.Source, len(cfg.Sources))
	for _, src := range cfg.Sources {
		sources[src.Name()] = src
	}

	return &Orchestrator{
		cfg:     cfg,
		sources: sources,
		stop:    make(chan struct{}),
	}
}

// Stop requests shutdown. In-flight items finish their store write; workers
// exit before picking up the next target.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() { close(o.stop) })
}

// Stored reports how many records have been inserted or updated this run.
func (o *Orchestrator) Stored() int64 { return o.stored.Load() }

func (o *Orchestrator) Run(ctx context.Context) {
	var wg sync.WaitGroup

	for i := 0; i < o.cfg.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			o.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	log.Info().Int64("stored", o.stored.Load()).Msg("All acquisition workers shut down cleanly")
}

func (o *Orchestrator) stopping(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	case <-o.stop:
		return true
	default:
		return false
	}
}

func (o *Orchestrator) budgetExhausted() bool {
	return o.cfg.MaxItems > 0 && o.stored.Load() >= o.cfg.MaxItems
}

func (o *Orchestrator) worker(ctx context.Context, id int) {
	logger := log.With().Int("worker_id", id).Logger()
	lastFetch := make(map[string]time.Time)

	for {
		if o.stopping(ctx) || o.budgetExhausted() {
			return
		}

		target, err := o.cfg.Queue.Pop(ctx)
		if err != nil {
			if errors.Is(err, queue.ErrEmpty) {
				if o.cfg.ExitOnEmpty {
					return
				}
				time.Sleep(500 * time.Millisecond)
				continue
			}
			logger.Error().Err(err).Msg("Queue error")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		itemLog := logger.With().Str("url", target.URL).Str("source", target.Source).Logger()

		src, ok := o.sources[target.Source]
		if !ok {
			itemLog.Error().Msg("No source registered for target")
			o.cfg.Stats.ProcessingError()
			continue
		}

		o.politenessWait(ctx, lastFetch, src.Name())
		lastFetch[src.Name()] = time.Now()

		o.processTarget(ctx, itemLog, src, target)
	}
}

// politenessWait spaces this worker's fetches against one source.
func (o *Orchestrator) politenessWait(ctx context.Context, lastFetch map[string]time.Time, name string) {
	if o.cfg.Politeness <= 0 {
		return
	}
	last, ok := lastFetch[name]
	if !ok {
		return
	}
	wait := o.cfg.Politeness - time.Since(last)
	if wait <= 0 {
		return
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// processTarget runs the bounded retry loop around one fetch-validate-store
// cycle. Exhausting the budget drops the item to the DLQ and moves on; the
// worker itself never halts over a single record.
func (o *Orchestrator) processTarget(ctx context.Context, logger zerolog.Logger, src source.Source, target queue.Target) {
	var lastErr error

	for attempt := 0; attempt < o.cfg.Retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			if o.cfg.Metrics != nil {
				o.cfg.Metrics.RetriesTotal.WithLabelValues(src.Name()).Inc()
			}
			if err := o.cfg.Retry.wait(ctx, attempt-1); err != nil {
				return
			}
		}

		err := o.attempt(ctx, logger, src, target)
		if err == nil {
			return
		}
		lastErr = err

		if !transient(err) {
			logger.Warn().Err(err).Msg("Dropping target, failure is not retryable")
			if o.cfg.Metrics != nil {
				o.cfg.Metrics.FetchErrors.WithLabelValues(src.Name(), "permanent").Inc()
			}
			o.cfg.Stats.ProcessingError()
			return
		}

		logger.Warn().Err(err).Int("attempt", attempt+1).Msg("Transient failure, will retry")
		if o.cfg.Metrics != nil {
			o.cfg.Metrics.FetchErrors.WithLabelValues(src.Name(), "transient").Inc()
		}
	}

	logger.Error().Err(lastErr).Msg("Retry budget exhausted, sending target to DLQ")
	o.cfg.Stats.ProcessingError()
	if err := o.cfg.Queue.PushDLQ(ctx, target, lastErr.Error()); err != nil {
		logger.Error().Err(err).Msg("Failed to push to DLQ")
	}
}

// attempt is one full fetch-validate-store pass. A validation rejection
// drops that record and keeps going; fetch and store failures fail the
// whole attempt so the retry loop can run it again (the idempotent store
// absorbs the records that already landed).
func (o *Orchestrator) attempt(ctx context.Context, logger zerolog.Logger, src source.Source, target queue.Target) error {
	start := time.Now()
	result, err := src.Fetch(ctx, target)
	if o.cfg.Metrics != nil {
		o.cfg.Metrics.FetchDuration.WithLabelValues(src.Name()).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return err
	}
	if o.cfg.Metrics != nil {
		o.cfg.Metrics.RecordsFetched.WithLabelValues(src.Name()).Add(float64(len(result.Records)))
	}

	// Shutdown must not tear down a half-applied write, so the rest of
	// the cycle runs detached from cancellation.
	writeCtx := context.WithoutCancel(ctx)

	if o.cfg.Archiver != nil && len(result.Payload) > 0 {
		key := target.URL
		if key == "" {
			key = target.ID
		}
		if err := o.cfg.Archiver.Save(writeCtx, key, result.Payload); err != nil {
			// Archival is best effort; acquisition continues.
			logger.Warn().Err(err).Msg("Failed to archive raw payload")
		}
	}

	for _, raw := range result.Records {
		validated, err := o.cfg.Validator.Validate(raw)
		if err != nil {
			var rej *validate.RejectionError
			if errors.As(err, &rej) {
				logger.Info().Str("reason", rej.Reason).Str("record_url", raw.URL()).Msg("Record rejected")
				if o.cfg.Metrics != nil {
					o.cfg.Metrics.RecordsRejected.WithLabelValues(rej.Reason).Inc()
				}
				continue
			}
			return err
		}

		outcome, err := o.cfg.Store.Upsert(writeCtx, record.Stored{
			Validated:  validated,
			SpiderName: src.Name(),
			UpdatedAt:  time.Now(),
		})
		if err != nil {
			return err
		}

		if o.cfg.Metrics != nil {
			o.cfg.Metrics.UpsertOutcomes.WithLabelValues(outcome.String()).Inc()
		}
		if outcome != store.OutcomeSkippedStale {
			if stored := o.stored.Add(1); o.cfg.MaxItems > 0 && stored >= o.cfg.MaxItems {
				o.Stop()
			}
		}
	}
	return nil
}
