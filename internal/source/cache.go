package source

import (
	"context"
	"sync"
)

// MemoryCache wraps a Source and keeps fetched documents by map id until
// they are invalidated. Listing is never cached.
type MemoryCache struct {
	src Source

	mu   sync.RWMutex
	docs map[string]string
	// gens counts invalidations per id. A fetch only stores its body when
	// no invalidation happened while it was in flight.
	gens  map[string]uint64
	epoch uint64
}

func NewMemoryCache(src Source) *MemoryCache {
	return &MemoryCache{
		src:  src,
		docs: make(map[string]string),
		gens: make(map[string]uint64),
	}
}

func (c *MemoryCache) List(ctx context.Context) ([]string, error) {
	return c.src.List(ctx)
}

func (c *MemoryCache) Fetch(ctx context.Context, mapID string) (string, error) {
	c.mu.RLock()
	doc, ok := c.docs[mapID]
	gen, epoch := c.gens[mapID], c.epoch
	c.mu.RUnlock()
	if ok {
		return doc, nil
	}
	doc, err := c.src.Fetch(ctx, mapID)
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	if c.gens[mapID] == gen && c.epoch == epoch {
		c.docs[mapID] = doc
	}
	c.mu.Unlock()
	return doc, nil
}

func (c *MemoryCache) Invalidate(mapID string) {
	c.mu.Lock()
	delete(c.docs, mapID)
	c.gens[mapID]++
	c.mu.Unlock()
}

func (c *MemoryCache) Reset() {
	c.mu.Lock()
	c.docs = make(map[string]string)
	c.epoch++
	c.mu.Unlock()
}

func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}
