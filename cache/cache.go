// Package cache keeps recent gather responses so repeated API calls for
// the same date range do not drive the browser again.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/use-agent/ecocal/models"
)

// entry holds a cached response with its creation timestamp.
type entry struct {
	response  *models.GatherResponse
	createdAt time.Time
}

// Cache is an in-memory response cache. It is safe for concurrent use.
type Cache struct {
	store *gocache.Cache
}

// New creates a Cache whose entries expire after ttl. Expired entries are
// purged every ttl/2.
func New(ttl time.Duration) *Cache {
	return &Cache{store: gocache.New(ttl, ttl/2)}
}

// Key identifies a date range.
func Key(startDate, endDate string) string {
	return startDate + "|" + endDate
}

// Get retrieves a cached response if it exists and is younger than maxAge.
// maxAge is in milliseconds. If maxAge <= 0, no cache lookup is performed.
func (c *Cache) Get(key string, maxAgeMs int) (*models.GatherResponse, bool) {
	if maxAgeMs <= 0 {
		return nil, false
	}

	v, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}
	e := v.(*entry)

	if time.Since(e.createdAt) > time.Duration(maxAgeMs)*time.Millisecond {
		return nil, false
	}
	return e.response, true
}

// Set stores resp under key with the default expiration.
func (c *Cache) Set(key string, resp *models.GatherResponse) {
	c.store.Set(key, &entry{response: resp, createdAt: time.Now()}, gocache.DefaultExpiration)
}

// Len returns the number of cached responses, expired ones included until
// the next purge.
func (c *Cache) Len() int {
	return c.store.ItemCount()
}
