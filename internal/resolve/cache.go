package resolve

import (
	"contractmeta/internal/model"
	"contractmeta/internal/registry"
)

// Cache memoizes resolved source types by canonical form.
type Cache struct {
	byType map[string]registry.PortableType
	hits   int
	misses int
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{byType: make(map[string]registry.PortableType, 64)}
}

// Lookup returns the entry previously inserted for t.
func (c *Cache) Lookup(t model.Type) (registry.PortableType, bool) {
	if c == nil || t == nil {
		return registry.PortableType{}, false
	}
	pt, ok := c.byType[t.String()]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return pt, ok
}

// Insert records the fully registered entry for t.
func (c *Cache) Insert(t model.Type, pt registry.PortableType) {
	if c == nil || t == nil {
		return
	}
	c.byType[t.String()] = pt
}

// Len returns the number of cached source types.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return len(c.byType)
}

// Stats returns hit and miss counts.
func (c *Cache) Stats() (hits, misses int) {
	if c == nil {
		return 0, 0
	}
	return c.hits, c.misses
}
