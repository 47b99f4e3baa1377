package casefile

import (
	"sync"
	"time"
)

// listCache holds each user's case collection with a TTL. Entries are
// invalidated on any write so the very next List observes the write.
type listCache struct {
	mu      sync.RWMutex
	entries map[string]listCacheEntry
	ttl     time.Duration
}

type listCacheEntry struct {
	cases     []*MedicalCase
	expiresAt time.Time
}

func newListCache(ttl time.Duration) *listCache {
	return &listCache{
		entries: make(map[string]listCacheEntry),
		ttl:     ttl,
	}
}

func (c *listCache) Get(userID string) ([]*MedicalCase, bool) {
	c.mu.RLock()
	entry, ok := c.entries[userID]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		// Lazy expiration
		c.mu.Lock()
		if e, ok := c.entries[userID]; ok && time.Now().After(e.expiresAt) {
			delete(c.entries, userID)
		}
		c.mu.Unlock()
		return nil, false
	}
	return entry.cases, true
}

func (c *listCache) Set(userID string, cases []*MedicalCase) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[userID] = listCacheEntry{
		cases:     cases,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()
}

func (c *listCache) Invalidate(userID string) {
	c.mu.Lock()
	delete(c.entries, userID)
	c.mu.Unlock()
}
