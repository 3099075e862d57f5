package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestUpstreamErrorTransient(t *testing.T) {
	testCases := []struct {
		name string
		err  UpstreamError
		want bool
	}{
		{name: "rate_limited", err: UpstreamError{StatusCode: 429}, want: true},
		{name: "server_error", err: UpstreamError{StatusCode: 500}, want: true},
		{name: "bad_gateway", err: UpstreamError{StatusCode: 502}, want: true},
		{name: "not_found", err: UpstreamError{StatusCode: 404}, want: false},
		{name: "unauthorized", err: UpstreamError{StatusCode: 401}, want: false},
		{name: "network_timeout", err: UpstreamError{Err: timeoutErr{}}, want: true},
		{name: "deadline_exceeded", err: UpstreamError{Err: context.DeadlineExceeded}, want: true},
		{name: "connection_refused", err: UpstreamError{Err: errors.New("connection refused")}, want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.err.Transient())
		})
	}
}

func TestHTTPFetcherRequestShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/property/detail", r.URL.Path)
		assert.Equal(t, "90210", r.URL.Query().Get("zip"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Write([]byte(`{"records": []}`))
	}))
	defer server.Close()

	f := NewHTTPFetcher(Config{Name: "attom", BaseURL: server.URL, APIKey: "secret"}, "test-agent", 5*time.Second)
	body, err := f.Fetch(context.Background(), "/v1/property/detail", map[string]string{"zip": "90210"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"records": []}`, string(body))
}

func TestHTTPFetcherNoAuthHeaderWithoutKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	f := NewHTTPFetcher(Config{Name: "attom", BaseURL: server.URL}, "test-agent", 5*time.Second)
	_, err := f.Fetch(context.Background(), "/v1/leads", nil)
	require.NoError(t, err)
}

func TestHTTPFetcherStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	f := NewHTTPFetcher(Config{Name: "attom", BaseURL: server.URL}, "test-agent", 5*time.Second)
	_, err := f.Fetch(context.Background(), "/v1/leads", nil)
	require.Error(t, err)

	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusForbidden, ue.StatusCode)
	assert.False(t, ue.Transient())
	assert.Contains(t, ue.Error(), "attom")
}

func TestCacheTTLFromDays(t *testing.T) {
	assert.Equal(t, 7*24*time.Hour, Config{CacheTTLDays: 7}.CacheTTL())
	assert.Equal(t, time.Duration(0), Config{}.CacheTTL())
}
