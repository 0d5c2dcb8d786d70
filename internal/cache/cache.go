// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/pulselog/internal/metrics"
)

// cleanupInterval is how often the background sweep removes expired
// entries. Get also evicts lazily, so the sweep only bounds memory for
// keys that stop being read.
const cleanupInterval = time.Minute

// Entry is one cached value with its expiry.
type Entry struct {
	Data      any
	ExpiresAt time.Time
}

// Cache is a TTL cache for derived responses. Report derivations rescan
// the whole log, so the API front-ends them with short-lived entries.
// Safe for concurrent use.
type Cache struct {
	name string
	ttl  time.Duration

	mu      sync.RWMutex
	entries map[string]Entry

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64

	stopOnce sync.Once
	stopCh   chan struct{}
}

// Stats is a point-in-time counter snapshot.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Keys      int
}

// New creates a cache and starts its cleanup sweep. The name labels the
// cache metrics. Call Close to stop the sweep.
func New(name string, ttl time.Duration) *Cache {
	c := &Cache{
		name:    name,
		ttl:     ttl,
		entries: make(map[string]Entry),
		stopCh:  make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Get returns the value for key if present and unexpired. Expired
// entries are evicted on access and count as misses.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		c.misses.Add(1)
		metrics.RecordCacheMiss(c.name)
		return nil, false
	}

	if time.Now().After(entry.ExpiresAt) {
		c.mu.Lock()
		// Recheck under the write lock; a Set may have refreshed it.
		if current, ok := c.entries[key]; ok && current.ExpiresAt.Equal(entry.ExpiresAt) {
			delete(c.entries, key)
			c.evictions.Add(1)
			metrics.RecordCacheEviction(c.name, 1)
		}
		c.mu.Unlock()
		c.misses.Add(1)
		metrics.RecordCacheMiss(c.name)
		return nil, false
	}

	c.hits.Add(1)
	metrics.RecordCacheHit(c.name)
	return entry.Data, true
}

// Set stores a value under the default TTL.
func (c *Cache) Set(key string, value any) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value with an explicit TTL, overwriting any
// existing entry.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = Entry{
		Data:      value,
		ExpiresAt: time.Now().Add(ttl),
	}
	size := len(c.entries)
	c.mu.Unlock()

	metrics.SetCacheSize(c.name, size)
}

// Delete removes one entry. Removing a missing key is a no-op.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	_, existed := c.entries[key]
	if existed {
		delete(c.entries, key)
		c.evictions.Add(1)
	}
	size := len(c.entries)
	c.mu.Unlock()

	if existed {
		metrics.RecordCacheEviction(c.name, 1)
	}
	metrics.SetCacheSize(c.name, size)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	evicted := len(c.entries)
	c.entries = make(map[string]Entry)
	c.mu.Unlock()

	if evicted > 0 {
		c.evictions.Add(int64(evicted))
		metrics.RecordCacheEviction(c.name, evicted)
	}
	metrics.SetCacheSize(c.name, 0)
}

// Len returns the current entry count, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Keys:      c.Len(),
	}
}

// HitRate returns hits as a percentage of all lookups, 0 when nothing
// was looked up yet.
func (c *Cache) HitRate() float64 {
	hits, misses := c.hits.Load(), c.misses.Load()
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// Close stops the cleanup sweep. Idempotent. Entries stay readable.
func (c *Cache) Close() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopCh:
			return
		}
	}
}

func (c *Cache) removeExpired() {
	now := time.Now()

	c.mu.Lock()
	evicted := 0
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
			evicted++
		}
	}
	size := len(c.entries)
	c.mu.Unlock()

	if evicted > 0 {
		c.evictions.Add(int64(evicted))
		metrics.RecordCacheEviction(c.name, evicted)
	}
	metrics.SetCacheSize(c.name, size)
}
