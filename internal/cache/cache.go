// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

// Package cache provides a small thread-safe TTL cache and stable hash keys
// for caching values derived from large inputs.
package cache

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/beaconkpi/internal/metrics"
)

// DefaultCapacity bounds the number of entries when New is given 0.
const DefaultCapacity = 256

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache maps keys to values that expire after a fixed TTL. When full, the
// entry closest to expiry is evicted.
type Cache[V any] struct {
	mu       sync.Mutex
	entries  map[string]entry[V]
	ttl      time.Duration
	capacity int
	now      func() time.Time

	stats Stats
}

// Stats tracks cache activity.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Keys      int   `json:"keys"`
}

// New returns a cache with the given TTL and capacity.
func New[V any](ttl time.Duration, capacity int) *Cache[V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache[V]{
		entries:  make(map[string]entry[V]),
		ttl:      ttl,
		capacity: capacity,
		now:      time.Now,
	}
}

// Get returns the value for key if present and not expired. Expired entries
// are removed.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if ok && c.now().After(e.expiresAt) {
		delete(c.entries, key)
		c.stats.Evictions++
		ok = false
	}
	if !ok {
		c.stats.Misses++
		metrics.CacheMisses.Inc()
		var zero V
		return zero, false
	}
	c.stats.Hits++
	metrics.CacheHits.Inc()
	return e.value, true
}

// Set stores value under key with the cache TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.evictLocked()
	}
	c.entries[key] = entry[V]{value: value, expiresAt: c.now().Add(c.ttl)}
}

// evictLocked drops expired entries, or the one nearest expiry if none are.
func (c *Cache[V]) evictLocked() {
	now := c.now()
	var (
		victim   string
		earliest time.Time
	)
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
			c.stats.Evictions++
			continue
		}
		if victim == "" || e.expiresAt.Before(earliest) {
			victim, earliest = k, e.expiresAt
		}
	}
	if len(c.entries) >= c.capacity && victim != "" {
		delete(c.entries, victim)
		c.stats.Evictions++
	}
}

// Delete removes key.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.stats.Evictions++
	}
}

// Clear removes every entry.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Evictions += int64(len(c.entries))
	c.entries = make(map[string]entry[V])
	metrics.CacheInvalidations.Inc()
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// GetStats returns a snapshot of the counters.
func (c *Cache[V]) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Keys = len(c.entries)
	return s
}

// HitRate returns hits as a percentage of lookups.
func (c *Cache[V]) HitRate() float64 {
	s := c.GetStats()
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// GenerateKey returns prefix plus the SHA-256 of params' JSON encoding.
// Map keys are encoded in sorted order, so equal inputs give equal keys.
func GenerateKey(prefix string, params any) string {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%s:%v", prefix, params)
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", prefix, sum)
}
