// Package queue feeds acquisition targets to the orchestrator's workers.
// Targets are deduplicated by URL on push; items that exhaust their retry
// budget land on a dead-letter queue for later inspection.
package queue

import (
	"context"
	"errors"
)

var ErrEmpty = errors.New("acquisition queue is empty")

// Target is one unit of acquisition work: a listing URL or a provider
// query, tagged with the source that knows how to fetch it.
type Target struct {
	ID     string            `json:"id"`
	URL    string            `json:"url"`
	Source string            `json:"source"`
	Params map[string]string `json:"params,omitempty"`
}

// dedupKey is what the visited set tracks: the URL for crawl targets,
// the ID for API query targets that have no URL of their own.
func (t Target) dedupKey() string {
	if t.URL != "" {
		return t.URL
	}
	return t.ID
}

type Queue interface {
	Push(ctx context.Context, targets []Target) error
	Pop(ctx context.Context) (Target, error)
	PushDLQ(ctx context.Context, t Target, reason string) error
}
