package source

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/bleubryce/AgentX-AI-sub001/internal/provider"
	"github.com/bleubryce/AgentX-AI-sub001/internal/queue"
	"github.com/bleubryce/AgentX-AI-sub001/internal/record"
	"github.com/bleubryce/AgentX-AI-sub001/internal/robots"
)

// Extractor turns a fetched listing page into raw records. Page parsing is
// site-specific and supplied by the caller; this package only provides the
// reliability scaffolding around the fetch.
type Extractor interface {
	Extract(url string, body []byte) ([]record.Raw, error)
}

// CrawlSource fetches listing pages directly from a crawled site, guarded
// by robots.txt. Fetch failures come back as *provider.UpstreamError so
// the orchestrator classifies them the same way as API failures.
type CrawlSource struct {
	name      string
	client    *http.Client
	userAgent string
	robots    *robots.Checker
	extract   Extractor
}

func NewCrawlSource(name, userAgent string, timeout time.Duration, rc *robots.Checker, ex Extractor) *CrawlSource {
	return &CrawlSource{
		name:      name,
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		robots:    rc,
		extract:   ex,
	}
}

func (s *CrawlSource) Name() string { return s.name }

func (s *CrawlSource) Fetch(ctx context.Context, t queue.Target) (Result, error) {
	if s.robots != nil && !s.robots.IsAllowed(t.URL) {
		return Result{}, ErrDisallowed
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.URL, nil)
	if err != nil {
		return Result{}, &provider.UpstreamError{Provider: s.name, Endpoint: t.URL, Err: err}
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return Result{}, &provider.UpstreamError{Provider: s.name, Endpoint: t.URL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, &provider.UpstreamError{Provider: s.name, Endpoint: t.URL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, &provider.UpstreamError{Provider: s.name, Endpoint: t.URL, Err: err}
	}

	records, err := s.extract.Extract(t.URL, body)
	if err != nil {
		return Result{}, err
	}

	for _, raw := range records {
		if raw[record.FieldURL] == "" {
			raw[record.FieldURL] = t.URL
		}
		if raw[record.FieldSource] == "" {
			raw[record.FieldSource] = s.name
		}
	}
	return Result{Records: records, Payload: body}, nil
}
