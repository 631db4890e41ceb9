package inference

import (
	"strings"
	"sync"
	"time"
)

// ResponseCache remembers recent online answers keyed by the normalized
// question, so repeating a question within the TTL costs no quota.
type ResponseCache struct {
	ttl      time.Duration
	maxItems int
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]cachedResponse
}

type cachedResponse struct {
	text string
	at   time.Time
}

// NewResponseCache creates a cache. maxItems bounds memory; the oldest
// entry is evicted when the cache is full.
func NewResponseCache(ttl time.Duration, maxItems int) *ResponseCache {
	return &ResponseCache{
		ttl:      ttl,
		maxItems: maxItems,
		now:      time.Now,
		entries:  make(map[string]cachedResponse),
	}
}

// Get returns the cached answer for the question, if fresh.
func (c *ResponseCache) Get(question string) (string, bool) {
	key := cacheKey(question)
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if c.now().Sub(e.at) >= c.ttl {
		delete(c.entries, key)
		return "", false
	}
	return e.text, true
}

// Put stores an answer.
func (c *ResponseCache) Put(question, answer string) {
	key := cacheKey(question)
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= c.maxItems {
		c.evictOldest()
	}
	c.entries[key] = cachedResponse{text: answer, at: c.now()}
}

// evictOldest removes the stalest entry. Callers hold mu.
func (c *ResponseCache) evictOldest() {
	var oldestKey string
	var oldestAt time.Time
	first := true
	for k, e := range c.entries {
		if first || e.at.Before(oldestAt) {
			oldestKey, oldestAt = k, e.at
			first = false
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

func cacheKey(question string) string {
	return strings.Join(strings.Fields(strings.ToLower(question)), " ")
}
