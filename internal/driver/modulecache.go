package driver

import (
	"sync"

	"contractmeta/internal/model"
)

// minimal per-process cache by model path + content hash
type cachedModel struct {
	content Digest
	ns      *model.Namespace
}

// ModelCache keeps decoded program models so that several contracts of one
// model file share a single decode. Cached namespaces are read-only.
type ModelCache struct {
	mu     sync.RWMutex
	byPath map[string]cachedModel
}

// NewModelCache creates a ModelCache with the given capacity hint.
func NewModelCache(capHint int) *ModelCache {
	return &ModelCache{byPath: make(map[string]cachedModel, capHint)}
}

// Get returns the namespace decoded from path when its content still hashes
// to content.
func (c *ModelCache) Get(path string, content Digest) (*model.Namespace, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	rec, ok := c.byPath[path]
	c.mu.RUnlock()
	if !ok || rec.content != content {
		return nil, false
	}
	return rec.ns, true
}

// Put stores a decoded namespace.
func (c *ModelCache) Put(path string, content Digest, ns *model.Namespace) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.byPath[path] = cachedModel{content: content, ns: ns}
	c.mu.Unlock()
}

// Len returns the number of cached models.
func (c *ModelCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byPath)
}
