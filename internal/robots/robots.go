// Package robots answers "may we fetch this URL" for crawled sites. The
// per-domain group is cached for the life of the process; a site without a
// readable robots.txt is treated as allowing everything.
package robots

import (
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/temoto/robotstxt"
)

type Checker struct {
	userAgent string
	cache     map[string]*robotstxt.Group
	client    *http.Client
	mu        sync.RWMutex
}

func NewChecker(userAgent string, timeout time.Duration) *Checker {
	return &Checker{
		userAgent: userAgent,
		cache:     make(map[string]*robotstxt.Group),
		client:    &http.Client{Timeout: timeout},
	}
}

func (c *Checker) IsAllowed(targetURL string) bool {
	u, err := url.Parse(targetURL)
	if err != nil {
		log.Warn().Str("url", targetURL).Msg("Unparseable URL, refusing fetch")
		return false
	}

	c.mu.RLock()
	group, cached := c.cache[u.Host]
	c.mu.RUnlock()

	if !cached {
		group = c.fetchGroup(u.Scheme, u.Host)
		c.mu.Lock()
		c.cache[u.Host] = group
		c.mu.Unlock()
	}

	if group == nil {
		return true
	}
	return group.Test(u.Path)
}

func (c *Checker) fetchGroup(scheme, domain string) *robotstxt.Group {
	resp, err := c.client.Get(scheme + "://" + domain + "/robots.txt")
	if err != nil {
		log.Debug().Str("domain", domain).Msg("No robots.txt reachable")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil
	}
	return data.FindGroup(c.userAgent)
}
