package oracle

import (
	"strings"
	"sync"
	"time"
)

// resultCache remembers recent classifications so repeated requests from
// the same network don't each pay for a model round trip. Same ISP string
// within the TTL yields the same Result, which does not change observable
// verdicts, only latency and cost.
type resultCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	maxSize int
	entries map[string]cacheEntry
}

type cacheEntry struct {
	result  Result
	expires time.Time
}

func newResultCache(ttl time.Duration, maxSize int) *resultCache {
	return &resultCache{
		ttl:     ttl,
		maxSize: maxSize,
		entries: make(map[string]cacheEntry),
	}
}

func cacheKey(isp string) string {
	return strings.ToLower(strings.TrimSpace(isp))
}

func (c *resultCache) get(isp string) (Result, bool) {
	if c == nil {
		return Result{}, false
	}
	c.mu.RLock()
	entry, ok := c.entries[cacheKey(isp)]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expires) {
		return Result{}, false
	}
	return entry.result, true
}

func (c *resultCache) put(isp string, r Result) {
	if c == nil {
		return
	}
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	// Evict expired entries when full; if still full, drop the write rather
	// than grow without bound.
	if len(c.entries) >= c.maxSize {
		for k, e := range c.entries {
			if now.After(e.expires) {
				delete(c.entries, k)
			}
		}
		if len(c.entries) >= c.maxSize {
			return
		}
	}
	c.entries[cacheKey(isp)] = cacheEntry{result: r, expires: now.Add(c.ttl)}
}
