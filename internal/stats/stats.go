package stats

import "sync/atomic"

// Pipeline holds the process-wide acquisition counters. It is injected into
// the components that mutate it so tests can use isolated instances; all
// increments are atomic and safe under concurrent workers.
type Pipeline struct {
	cacheHits        atomic.Int64
	cacheMisses      atomic.Int64
	cacheErrors      atomic.Int64
	duplicates       atomic.Int64
	processingErrors atomic.Int64
}

func New() *Pipeline { return &Pipeline{} }

func (p *Pipeline) CacheHit()        { p.cacheHits.Add(1) }
func (p *Pipeline) CacheMiss()       { p.cacheMisses.Add(1) }
func (p *Pipeline) CacheError()      { p.cacheErrors.Add(1) }
func (p *Pipeline) Duplicate()       { p.duplicates.Add(1) }
func (p *Pipeline) ProcessingError() { p.processingErrors.Add(1) }

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	CacheHits        int64 `json:"cache_hits"`
	CacheMisses      int64 `json:"cache_misses"`
	CacheErrors      int64 `json:"cache_errors"`
	Duplicates       int64 `json:"duplicates"`
	ProcessingErrors int64 `json:"processing_errors"`
}

func (p *Pipeline) Snapshot() Snapshot {
	return Snapshot{
		CacheHits:        p.cacheHits.Load(),
		CacheMisses:      p.cacheMisses.Load(),
		CacheErrors:      p.cacheErrors.Load(),
		Duplicates:       p.duplicates.Load(),
		ProcessingErrors: p.processingErrors.Load(),
	}
}
