package layout

type cached struct {
	layout TypeLayout
	err    *LayoutError
}

// cache memoizes layouts, failures included, by canonical type key.
type cache struct {
	entries map[string]cached
}

func newCache() *cache {
	return &cache{entries: make(map[string]cached, 64)}
}

func (c *cache) get(key string) (cached, bool) {
	if c == nil {
		return cached{}, false
	}
	hit, ok := c.entries[key]
	return hit, ok
}

func (c *cache) put(key string, l TypeLayout, err *LayoutError) {
	if c != nil {
		c.entries[key] = cached{layout: l, err: err}
	}
}
