// Package gateway fronts every live provider call with the response cache
// and the rate limiter. Cache hits cost nothing; only misses consume the
// provider's metered quota.
package gateway

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/bleubryce/AgentX-AI-sub001/internal/cache"
	"github.com/bleubryce/AgentX-AI-sub001/internal/limiter"
	"github.com/bleubryce/AgentX-AI-sub001/internal/metrics"
	"github.com/bleubryce/AgentX-AI-sub001/internal/provider"
	"github.com/bleubryce/AgentX-AI-sub001/internal/stats"
)

// Fetcher performs the actual network call for one provider. Implemented
// by provider.HTTPFetcher in production and by stubs in tests.
type Fetcher interface {
	Fetch(ctx context.Context, endpoint string, params map[string]string) ([]byte, error)
}

// Gateway has no persistent state of its own; everything lives in the
// cache store, the limiter and the stats counters.
type Gateway struct {
	cache   cache.Store
	limiter limiter.Limiter
	stats   *stats.Pipeline
	metrics *metrics.Service
}

func New(c cache.Store, l limiter.Limiter, st *stats.Pipeline, m *metrics.Service) *Gateway {
	return &Gateway{cache: c, limiter: l, stats: st, metrics: m}
}

// Fetch returns the cached payload for the request when one is fresh,
// otherwise waits out the provider's rate budget, performs the live call
// and caches the successful result. Upstream failures propagate unchanged;
// cache failures are counted and degrade to a live fetch.
func (g *Gateway) Fetch(ctx context.Context, prov provider.Config, endpoint string, params map[string]string, fn Fetcher) ([]byte, error) {
	key := cache.Key(prov.Name, endpoint, params)

	if prov.CacheEnabled {
		payload, ok, err := g.cache.Get(ctx, key)
		if err != nil {
			g.stats.CacheError()
			if g.metrics != nil {
				g.metrics.CacheOps.WithLabelValues("error").Inc()
			}
			log.Warn().Err(err).Str("provider", prov.Name).Str("endpoint", endpoint).Msg("Cache read failed, falling through to live fetch")
		}
		if ok {
			g.stats.CacheHit()
			if g.metrics != nil {
				g.metrics.CacheOps.WithLabelValues("hit").Inc()
			}
			return payload, nil
		}
		g.stats.CacheMiss()
		if g.metrics != nil {
			g.metrics.CacheOps.WithLabelValues("miss").Inc()
		}
	}

	if err := g.limiter.Acquire(ctx, prov.Name); err != nil {
		return nil, err
	}

	payload, err := fn.Fetch(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}

	if prov.CacheEnabled {
		entry := cache.Entry{
			Key:      key,
			Provider: prov.Name,
			Endpoint: endpoint,
			Params:   params,
			Payload:  payload,
			TTL:      prov.CacheTTL(),
		}
		if err := g.cache.Set(ctx, entry); err != nil {
			g.stats.CacheError()
			if g.metrics != nil {
				g.metrics.CacheOps.WithLabelValues("error").Inc()
			}
			log.Warn().Err(err).Str("provider", prov.Name).Str("endpoint", endpoint).Msg("Cache write failed, returning live result anyway")
		}
	}

	return payload, nil
}

// Stats exposes the acquisition counters to the admin surface.
func (g *Gateway) Stats() stats.Snapshot { return g.stats.Snapshot() }

// Clear drops cached entries for one provider, or all of them.
func (g *Gateway) Clear(ctx context.Context, providerName string) (int, error) {
	return g.cache.Clear(ctx, providerName)
}
