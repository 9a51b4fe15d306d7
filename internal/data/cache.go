package data

import (
	"context"
	"sync"
	"time"

	"demand-flex/internal/model"
)

// CacheEntry is a cached scenario dataset.
type CacheEntry struct {
	Dataset   *model.Dataset
	ExpiresAt time.Time
}

// DatasetCache keeps parsed scenario datasets in memory so repeated API
// requests do not re-read the JSON files. Entries expire after ttl.
type DatasetCache struct {
	mu    sync.RWMutex
	store map[string]*CacheEntry
	ttl   time.Duration
	now   func() time.Time
}

func NewDatasetCache(ttl time.Duration) *DatasetCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &DatasetCache{
		store: make(map[string]*CacheEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get retrieves a cached dataset if available and not expired.
func (c *DatasetCache) Get(key string) (*model.Dataset, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.store[key]
	if !ok || c.now().After(entry.ExpiresAt) {
		return nil, false
	}
	return entry.Dataset, true
}

func (c *DatasetCache) Set(key string, ds *model.Dataset) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = &CacheEntry{Dataset: ds, ExpiresAt: c.now().Add(c.ttl)}
}

// Clear removes all entries from the cache.
func (c *DatasetCache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = make(map[string]*CacheEntry)
}

// Len counts entries, expired ones included.
func (c *DatasetCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Load returns the cached dataset of a scenario, reading it from disk on a miss.
func (c *DatasetCache) Load(dataDir, scenario string) (*model.Dataset, error) {
	key := dataDir + "|" + scenario
	if ds, ok := c.Get(key); ok {
		return ds, nil
	}
	ds, err := LoadScenario(dataDir, scenario)
	if err != nil {
		return nil, err
	}
	c.Set(key, ds)
	return ds, nil
}

// Evict drops expired entries.
func (c *DatasetCache) Evict() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, entry := range c.store {
		if now.After(entry.ExpiresAt) {
			delete(c.store, key)
		}
	}
}

// RunCleanup periodically evicts expired entries until ctx is done.
func (c *DatasetCache) RunCleanup(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Evict()
		}
	}
}
