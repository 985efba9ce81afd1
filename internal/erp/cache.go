package erp

import (
	"strings"
	"sync"
	"time"
)

type cacheEntry struct {
	product  *Product
	storedAt time.Time
}

// ProductCache holds product details keyed by SKU so a batch that touches
// the same SKU repeatedly hits the ERP only once. Entries expire after a
// fixed TTL.
type ProductCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

func NewProductCache() *ProductCache {
	return &ProductCache{
		entries: make(map[string]cacheEntry),
		ttl:     5 * time.Minute,
	}
}

func (c *ProductCache) Get(sku string) (*Product, bool) {
	key := strings.ToUpper(strings.TrimSpace(sku))
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Since(e.storedAt) > c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.product, true
}

func (c *ProductCache) Put(sku string, p *Product) {
	key := strings.ToUpper(strings.TrimSpace(sku))
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{product: p, storedAt: time.Now()}
}
