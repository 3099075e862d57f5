package cmdfactory

import (
	"github.com/bleubryce/AgentX-AI-sub001/internal/cache"
)

type adminFactory struct {
	Cache cache.Store
}

// AdminNew wires the cacheadmin CLI against the same cache backend the
// harvester uses, so clears are visible to a running daemon sharing the
// disk directory or Redis instance.
func AdminNew(cfg *Config) *adminFactory {
	return &adminFactory{
		Cache: newCacheStore(cfg, newRedis(cfg)),
	}
}
