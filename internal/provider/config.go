// Package provider holds per-API configuration and the HTTP fetcher used
// to talk to third-party real-estate data providers.
package provider

import "time"

// Config describes one external API: its budget, cache policy and
// connection details. Loaded from the acquisition config file and
// validated at startup.
type Config struct {
	Name              string  `yaml:"name" validate:"required"`
	BaseURL           string  `yaml:"base_url" validate:"omitempty,url"`
	APIKey            string  `yaml:"api_key"`
	RequestsPerMinute float64 `yaml:"requests_per_minute" validate:"gte=0"`
	CacheTTLDays      int     `yaml:"cache_ttl_days" validate:"gte=0"`
	CacheEnabled      bool    `yaml:"cache_enabled"`
}

// CacheTTL returns the configured entry lifetime. Zero days means entries
// never expire.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLDays) * 24 * time.Hour
}
