// Package cache persists past provider responses so repeat requests never
// consume rate-limited quota. Entries are keyed deterministically from the
// request and expire by TTL; an expired or unreadable entry is a miss.
package cache

import (
	"context"
	"time"
)

// Store is the key/value contract shared by the disk, in-memory and Redis
// backends.
//
// Get returns ok=false both when no entry exists and when the entry has
// expired; callers cannot distinguish the two. A non-nil error with ok=false
// signals a corrupt or unreadable entry. Callers count it and fall through
// to a live fetch, never fail.
type Store interface {
	Get(ctx context.Context, key string) (payload []byte, ok bool, err error)
	Set(ctx context.Context, e Entry) error

	// Clear removes all entries for a provider, or every entry when
	// provider is empty, and returns the count removed.
	Clear(ctx context.Context, provider string) (int, error)
}

// Entry is a cached provider response. Immutable once written except for
// full replacement by a later live fetch for the same key.
type Entry struct {
	Key      string            `json:"key"`
	Provider string            `json:"provider"`
	Endpoint string            `json:"endpoint"`
	Params   map[string]string `json:"params,omitempty"`
	Payload  []byte            `json:"payload"`
	CachedAt time.Time         `json:"cached_at"`
	TTL      time.Duration     `json:"ttl"`
}

// Expired reports whether the entry is past its TTL at the given instant.
// A non-positive TTL means the entry never expires.
func (e Entry) Expired(now time.Time) bool {
	if e.TTL <= 0 {
		return false
	}
	return now.After(e.CachedAt.Add(e.TTL))
}
