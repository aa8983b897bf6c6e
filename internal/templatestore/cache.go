package templatestore

import (
	"context"
	"sync"
	"time"
)

type cached struct {
	body    string
	expires time.Time
}

// CachedLoader keeps successful loads for ttl. Errors are not cached.
type CachedLoader struct {
	next Loader
	ttl  time.Duration
	now  clock

	mu      sync.RWMutex
	entries map[string]cached
}

func NewCachedLoader(next Loader, ttl time.Duration) *CachedLoader {
	return &CachedLoader{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cached),
	}
}

func (c *CachedLoader) Load(ctx context.Context, id string) (string, error) {
	now := c.now()

	c.mu.RLock()
	e, ok := c.entries[id]
	c.mu.RUnlock()
	if ok && now.Before(e.expires) {
		return e.body, nil
	}

	body, err := c.next.Load(ctx, id)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.entries[id] = cached{body: body, expires: now.Add(c.ttl)}
	c.mu.Unlock()
	return body, nil
}

// Invalidate drops id from the cache, or everything when id is empty.
func (c *CachedLoader) Invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id == "" {
		c.entries = make(map[string]cached)
		return
	}
	delete(c.entries, id)
}
