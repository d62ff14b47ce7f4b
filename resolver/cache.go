package resolver

import (
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Cache is the process-wide, time-boxed memo of resolved payloads keyed by
// the reference string. Entries expire after the configured TTL and the
// entry count is bounded, so a long browsing session cannot grow it without
// limit. Failed resolutions are never stored.
type Cache struct {
	inner *ristretto.Cache[string, interface{}]
	ttl   time.Duration
}

func NewCache(ttl time.Duration, maxEntries int64) (*Cache, error) {
	inner, err := ristretto.NewCache(&ristretto.Config[string, interface{}]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{inner: inner, ttl: ttl}, nil
}

func (c *Cache) Get(reference string) (interface{}, bool) {
	return c.inner.Get(reference)
}

// Set stores the payload and blocks until the write is visible, so a
// caller that resolved a reference is guaranteed to hit the cache on its
// next lookup within the TTL window.
func (c *Cache) Set(reference string, payload interface{}) {
	c.inner.SetWithTTL(reference, payload, 1, c.ttl)
	c.inner.Wait()
}

// Clear drops every entry; used by tests and session resets.
func (c *Cache) Clear() {
	c.inner.Clear()
}
