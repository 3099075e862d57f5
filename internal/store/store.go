// Package store persists validated records keyed by source URL. Writes are
// idempotent: a stale retry can never overwrite newer data, and two workers
// racing on a new URL settle on exactly one row.
package store

import (
	"context"
	"errors"

	"github.com/bleubryce/AgentX-AI-sub001/internal/record"
)

var ErrNotFound = errors.New("record not found")

// UpsertOutcome tells the caller what a write actually did. SkippedStale is
// a normal outcome, not an error: the store already held a newer snapshot.
type UpsertOutcome int

const (
	OutcomeInserted UpsertOutcome = iota
	OutcomeUpdated
	OutcomeSkippedStale
)

func (o UpsertOutcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeUpdated:
		return "updated"
	case OutcomeSkippedStale:
		return "skipped_stale"
	default:
		return "unknown"
	}
}

// Store is the acquisition sink plus the read/write conveniences consumed
// by the record-management layer. Only Upsert is on the hot path.
type Store interface {
	Upsert(ctx context.Context, rec record.Stored) (UpsertOutcome, error)

	Get(ctx context.Context, url string) (record.Stored, error)
	List(ctx context.Context, filters []Filter, limit, offset int) ([]record.Stored, error)
	Update(ctx context.Context, url string, fields map[string]any) error
	Delete(ctx context.Context, url string) error
}
