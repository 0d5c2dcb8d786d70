// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func setupCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	c := New("test", ttl)
	t.Cleanup(c.Close)
	return c
}

func TestCache_SetGet(t *testing.T) {
	c := setupCache(t, time.Minute)

	c.Set("dashboard", "payload")

	got, ok := c.Get("dashboard")
	if !ok {
		t.Fatal("Expected hit after Set")
	}
	if got != "payload" {
		t.Errorf("Got %v, want payload", got)
	}
}

func TestCache_Miss(t *testing.T) {
	c := setupCache(t, time.Minute)

	if _, ok := c.Get("absent"); ok {
		t.Error("Expected miss for absent key")
	}

	stats := c.Stats()
	if stats.Misses != 1 || stats.Hits != 0 {
		t.Errorf("Stats = %+v, want 1 miss 0 hits", stats)
	}
}

func TestCache_Expiration(t *testing.T) {
	c := setupCache(t, time.Minute)

	c.SetWithTTL("report", "stale", 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get("report"); ok {
		t.Error("Expected expired entry to miss")
	}

	stats := c.Stats()
	if stats.Evictions != 1 {
		t.Errorf("Evictions = %d, want 1", stats.Evictions)
	}
	if stats.Keys != 0 {
		t.Errorf("Keys = %d, want 0 after lazy eviction", stats.Keys)
	}
}

func TestCache_Overwrite(t *testing.T) {
	c := setupCache(t, time.Minute)

	c.Set("key", "first")
	c.Set("key", "second")

	got, ok := c.Get("key")
	if !ok || got != "second" {
		t.Errorf("Got %v/%v, want second/true", got, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestCache_Delete(t *testing.T) {
	c := setupCache(t, time.Minute)

	c.Set("key", "value")
	c.Delete("key")

	if _, ok := c.Get("key"); ok {
		t.Error("Expected miss after Delete")
	}

	// Deleting a missing key must not inflate evictions.
	before := c.Stats().Evictions
	c.Delete("missing")
	if after := c.Stats().Evictions; after != before {
		t.Errorf("Evictions moved %d -> %d on missing key", before, after)
	}
}

func TestCache_Clear(t *testing.T) {
	c := setupCache(t, time.Minute)

	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("key-%d", i), i)
	}
	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Len = %d after Clear, want 0", c.Len())
	}
	if evictions := c.Stats().Evictions; evictions != 5 {
		t.Errorf("Evictions = %d, want 5", evictions)
	}
}

func TestCache_HitRate(t *testing.T) {
	c := setupCache(t, time.Minute)

	if rate := c.HitRate(); rate != 0 {
		t.Errorf("HitRate = %v before any lookup, want 0", rate)
	}

	c.Set("key", "value")
	c.Get("key")
	c.Get("key")
	c.Get("missing")
	c.Get("missing")

	if rate := c.HitRate(); rate != 50.0 {
		t.Errorf("HitRate = %v, want 50.0", rate)
	}
}

func TestCache_RemoveExpired(t *testing.T) {
	c := setupCache(t, time.Minute)

	c.SetWithTTL("short-1", 1, 5*time.Millisecond)
	c.SetWithTTL("short-2", 2, 5*time.Millisecond)
	c.Set("long", 3)
	time.Sleep(20 * time.Millisecond)

	c.removeExpired()

	if c.Len() != 1 {
		t.Errorf("Len = %d after sweep, want 1", c.Len())
	}
	if _, ok := c.Get("long"); !ok {
		t.Error("Unexpired entry swept")
	}
	if evictions := c.Stats().Evictions; evictions != 2 {
		t.Errorf("Evictions = %d, want 2", evictions)
	}
}

func TestCache_Concurrent(t *testing.T) {
	c := setupCache(t, time.Minute)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := fmt.Sprintf("key-%d", i%10)
				c.Set(key, worker)
				c.Get(key)
				if i%25 == 0 {
					c.Delete(key)
				}
			}
		}(w)
	}
	wg.Wait()

	if c.Len() > 10 {
		t.Errorf("Len = %d, want at most 10", c.Len())
	}
}

func TestCache_CloseIdempotent(t *testing.T) {
	c := New("test", time.Minute)
	c.Set("key", "value")

	c.Close()
	c.Close()

	// Entries stay readable after Close.
	if _, ok := c.Get("key"); !ok {
		t.Error("Expected entry readable after Close")
	}
}
