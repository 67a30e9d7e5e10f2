package texture

import (
	"image"
	"sync"
)

// Cache is a concurrency-safe Codec that remembers every load, including
// failures.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*cacheEntry
	codec Codec
}

type cacheEntry struct {
	img *image.NRGBA
	err error
}

// NewCache wraps codec.
func NewCache(codec Codec) *Cache {
	return &Cache{
		items: make(map[string]*cacheEntry),
		codec: codec,
	}
}

// Load returns the cached image for name, loading it on first use.
func (c *Cache) Load(name string) (*image.NRGBA, error) {
	key := Normalize(name)

	// Fast path: read lock
	c.mu.RLock()
	if entry, exists := c.items[key]; exists {
		c.mu.RUnlock()
		return entry.img, entry.err
	}
	c.mu.RUnlock()

	img, err := c.codec.Load(name)

	// Write lock with double-check
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, exists := c.items[key]; exists {
		return entry.img, entry.err
	}
	c.items[key] = &cacheEntry{img: img, err: err}
	return img, err
}

// Reset drops every cached entry.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.items = make(map[string]*cacheEntry)
	c.mu.Unlock()
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
