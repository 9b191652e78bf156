// Package cache holds scrape results for the HTTP API between requests.
package cache

import (
	"sync"
	"time"
)

// Entry is one cached scrape result.
type Entry struct {
	Payload   any
	StoredAt  time.Time
	ExpiresAt time.Time
}

// Age is how long ago the entry was stored.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.StoredAt)
}

// Stats describes the cache contents and how it has been used.
type Stats struct {
	Total   int    `json:"total"`
	Active  int    `json:"active"`
	Expired int    `json:"expired"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
}

// ResponseCache is an in-memory TTL cache safe for concurrent use. Expired
// entries are swept once per sweep interval until Close is called.
type ResponseCache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	ttl     time.Duration
	hits    uint64
	misses  uint64
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewResponseCache creates a cache whose entries live for ttl.
func NewResponseCache(ttl time.Duration) *ResponseCache {
	return newResponseCache(ttl, time.Minute)
}

func newResponseCache(ttl, sweepEvery time.Duration) *ResponseCache {
	c := &ResponseCache{
		entries: make(map[string]Entry),
		ttl:     ttl,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go c.sweep(sweepEvery)
	return c
}

// Get returns the live entry under key.
func (c *ResponseCache) Get(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || c.now().After(e.ExpiresAt) {
		c.misses++
		return Entry{}, false
	}
	c.hits++
	return e, true
}

// Set stores payload under key, replacing any previous entry.
func (c *ResponseCache) Set(key string, payload any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[key] = Entry{
		Payload:   payload,
		StoredAt:  now,
		ExpiresAt: now.Add(c.ttl),
	}
}

func (c *ResponseCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Stats returns a snapshot of the cache statistics.
func (c *ResponseCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Stats{Total: len(c.entries), Hits: c.hits, Misses: c.misses}
	now := c.now()
	for _, e := range c.entries {
		if now.After(e.ExpiresAt) {
			s.Expired++
		}
	}
	s.Active = s.Total - s.Expired
	return s
}

// Close stops the background sweep. It is safe to call more than once.
func (c *ResponseCache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *ResponseCache) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

func (c *ResponseCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, e := range c.entries {
		if now.After(e.ExpiresAt) {
			delete(c.entries, key)
		}
	}
}
