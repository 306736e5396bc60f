package database

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"khumo/server/internal/models"
)

// queryCache holds filter-keyed listing query results for a short TTL.
// Any write to the properties table clears it wholesale; the TTL only
// bounds staleness for keys untouched by writes.
type queryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	records   []models.PropertyRecord
	expiresAt time.Time
}

func newQueryCache(ttl time.Duration) *queryCache {
	return &queryCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

func (c *queryCache) get(key string) ([]models.PropertyRecord, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.records, true
}

func (c *queryCache) set(key string, records []models.PropertyRecord) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{
		records:   records,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()
}

func (c *queryCache) invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

func (c *queryCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// filterCacheKey fingerprints a filter. Marshalling the struct keeps the key
// stable across identical filters.
func filterCacheKey(filter models.PropertyFilter) string {
	data, err := json.Marshal(filter)
	if err != nil {
		return fmt.Sprintf("%+v", filter)
	}
	return string(data)
}
