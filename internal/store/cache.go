package store

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/intrigue/searchforms/internal/forms"
)

// formCacheSize bounds the etcd read cache.
const formCacheSize = 1024

// formCache sits in front of etcd reads. Forms are cloned on the way in and
// out so a caller editing a filter tree cannot change the cached copy. A
// zero TTL disables it.
type formCache struct {
	lru *expirable.LRU[string, forms.Form]
}

func newFormCache(ttl time.Duration) *formCache {
	if ttl <= 0 {
		return &formCache{}
	}
	return &formCache{lru: expirable.NewLRU[string, forms.Form](formCacheSize, nil, ttl)}
}

func (c *formCache) get(id string) (forms.Form, bool) {
	if c.lru == nil {
		return forms.Form{}, false
	}
	f, ok := c.lru.Get(id)
	if !ok {
		return forms.Form{}, false
	}
	return f.Clone(), true
}

func (c *formCache) set(f forms.Form) {
	if c.lru != nil {
		c.lru.Add(f.ID, f.Clone())
	}
}

func (c *formCache) delete(id string) {
	if c.lru != nil {
		c.lru.Remove(id)
	}
}

func (c *formCache) len() int {
	if c.lru == nil {
		return 0
	}
	return c.lru.Len()
}
