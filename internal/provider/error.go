package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// UpstreamError is a failed live fetch against a provider. The gateway
// propagates it unchanged; the orchestrator decides whether the status
// makes it worth retrying.
type UpstreamError struct {
	Provider   string
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream %s %s: status %d", e.Provider, e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("upstream %s %s: %v", e.Provider, e.Endpoint, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Transient reports whether the failure is worth retrying: timeouts,
// rate-limit pushback and server-side errors. 4xx responses other than
// 429 are treated as permanent.
func (e *UpstreamError) Transient() bool {
	if e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500 {
		return true
	}
	if e.StatusCode != 0 {
		return false
	}
	var netErr net.Error
	if errors.As(e.Err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(e.Err, context.DeadlineExceeded)
}
