// Package source turns acquisition targets into raw records. Each source
// knows one way of acquiring data (a metered provider API behind the
// caching gateway, or a crawled listing site) and nothing about
// validation or storage.
package source

import (
	"context"
	"errors"

	"github.com/bleubryce/AgentX-AI-sub001/internal/queue"
	"github.com/bleubryce/AgentX-AI-sub001/internal/record"
)

// ErrDisallowed marks a target the site's robots.txt forbids. Terminal:
// retrying would ask the same question and get the same answer.
var ErrDisallowed = errors.New("target disallowed by robots.txt")

// Result is one successful acquisition: the parsed records plus the raw
// payload for archival.
type Result struct {
	Records []record.Raw
	Payload []byte
}

type Source interface {
	Name() string
	Fetch(ctx context.Context, t queue.Target) (Result, error)
}
