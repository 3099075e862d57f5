package provider

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"
)

// HTTPFetcher performs live GET requests against one provider's JSON API.
// It satisfies the gateway's Fetcher contract; all failures come back as
// *UpstreamError so the orchestrator can classify them.
type HTTPFetcher struct {
	client    *http.Client
	cfg       Config
	userAgent string
}

func NewHTTPFetcher(cfg Config, userAgent string, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: timeout,
		},
		cfg:       cfg,
		userAgent: userAgent,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	target, err := url.JoinPath(f.cfg.BaseURL, endpoint)
	if err != nil {
		return nil, &UpstreamError{Provider: f.cfg.Name, Endpoint: endpoint, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &UpstreamError{Provider: f.cfg.Name, Endpoint: endpoint, Err: err}
	}

	q := req.URL.Query()
	for name, value := range params {
		q.Set(name, value)
	}
	req.URL.RawQuery = q.Encode()

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json")
	if f.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.cfg.APIKey)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &UpstreamError{Provider: f.cfg.Name, Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{Provider: f.cfg.Name, Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Provider: f.cfg.Name, Endpoint: endpoint, Err: err}
	}
	return body, nil
}
