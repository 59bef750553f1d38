package marketdata

import (
	"context"
	"sync"
	"time"
)

// Cache memoizes feed quotes for a TTL. A stale entry is refetched on the
// next read; Invalidate forces a refetch regardless of age.
type Cache struct {
	feed Feed
	ttl  time.Duration

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	quote     *Quote
	fetchedAt time.Time
}

// NewCache wraps a feed with TTL caching.
func NewCache(feed Feed, ttl time.Duration) *Cache {
	return &Cache{
		feed:    feed,
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

// Quote returns a cached quote when fresh, otherwise fetches and stores one.
func (c *Cache) Quote(ctx context.Context, symbol string) (*Quote, error) {
	c.mu.RLock()
	entry, ok := c.entries[symbol]
	c.mu.RUnlock()

	if ok && time.Since(entry.fetchedAt) < c.ttl {
		return entry.quote, nil
	}

	quote, err := c.feed.Quote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[symbol] = cacheEntry{quote: quote, fetchedAt: time.Now()}
	c.mu.Unlock()
	return quote, nil
}

// Invalidate drops the cached quote for one symbol.
func (c *Cache) Invalidate(symbol string) {
	c.mu.Lock()
	delete(c.entries, symbol)
	c.mu.Unlock()
}

// InvalidateAll drops every cached quote.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}
