package service

import (
	"sync"

	"github.com/saferoute/admin-api/internal/models"
)

// IdentityCache memoizes resolved identities by reporter user id for the
// process lifetime. There is no eviction and no TTL: identity records change
// rarely and a stale name is an accepted trade-off against re-reading the
// directory on every batch. Safe for concurrent use.
type IdentityCache struct {
	mu      sync.RWMutex
	entries map[string]models.Identity
}

// NewIdentityCache constructs an empty cache.
func NewIdentityCache() *IdentityCache {
	return &IdentityCache{entries: make(map[string]models.Identity)}
}

// Get returns the cached identity for key when present.
func (c *IdentityCache) Get(key string) (models.Identity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	identity, ok := c.entries[key]
	return identity, ok
}

// Put stores the identity under key, overwriting any previous entry.
// Resolution is deterministic so concurrent writes for the same key are
// idempotent.
func (c *IdentityCache) Put(key string, identity models.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = identity
}

// Len returns the number of memoized identities.
func (c *IdentityCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
