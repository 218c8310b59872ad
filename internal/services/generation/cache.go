package generation

import (
	"slices"
	"sync"

	"github.com/Shimizu-Technology/docpost-api/internal/models"
)

// FingerprintPrefix is how many runes of the document go into a cache key.
const FingerprintPrefix = 100

// Fingerprint derives the cache key for a document.
//
// Only the first 100 runes are used, so two documents sharing a name and an
// opening paragraph collide. That is accepted: the cache lives for one
// process and exists to avoid re-billing the same upload.
func Fingerprint(fileName, text string) string {
	runes := []rune(text)
	if len(runes) > FingerprintPrefix {
		runes = runes[:FingerprintPrefix]
	}
	return fileName + "-" + string(runes)
}

// Cache maps fingerprints to drafts. It never evicts.
//
// Go Pattern: sync.RWMutex lets many readers check the cache concurrently
// while writers get exclusive access.
type Cache struct {
	mu     sync.RWMutex
	drafts map[string]models.Draft
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{drafts: make(map[string]models.Draft)}
}

// Get returns a copy of the cached draft for key.
func (c *Cache) Get(key string) (models.Draft, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.drafts[key]
	if !ok {
		return models.Draft{}, false
	}
	return cloneDraft(d), true
}

// Put stores a copy of draft under key, replacing any previous entry.
func (c *Cache) Put(key string, draft models.Draft) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drafts[key] = cloneDraft(draft)
}

// Len reports how many drafts are cached.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.drafts)
}

// cloneDraft copies the slices so callers can't mutate cached entries.
func cloneDraft(d models.Draft) models.Draft {
	d.Hashtags = slices.Clone(d.Hashtags)
	d.Platforms = slices.Clone(d.Platforms)
	return d
}
