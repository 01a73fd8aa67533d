// AIOPicks - AI-Curated Media Catalog Engine
// Copyright 2026 qooode
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/qooode/aiopicks

// Package cache provides a thread-safe in-memory TTL cache for rendered
// catalog payloads. Serving a catalog page renders the same payload for
// every reader until the lanes are replaced, so the rendered form is
// cached keyed by scoped catalog id.
package cache

import (
	"sync"
	"time"

	"github.com/qooode/aiopicks/internal/metrics"
	"github.com/qooode/aiopicks/internal/models"
)

// cleanupInterval is how often the background sweep removes expired
// entries that were never read again.
const cleanupInterval = 5 * time.Minute

type entry struct {
	payload   models.CatalogPayload
	expiresAt time.Time
}

// PayloadCache caches rendered catalog payloads with a fixed TTL.
//
// Thread safety: safe for concurrent use.
type PayloadCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	stop    chan struct{}
	once    sync.Once
}

// New creates a payload cache and starts its background cleanup sweep.
func New(ttl time.Duration) *PayloadCache {
	c := &PayloadCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		stop:    make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Get returns the cached payload for the key if present and unexpired.
func (c *PayloadCache) Get(key string) (models.CatalogPayload, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		metrics.CacheMisses.Inc()
		return models.CatalogPayload{}, false
	}
	if time.Now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		metrics.CacheMisses.Inc()
		return models.CatalogPayload{}, false
	}

	metrics.CacheHits.Inc()
	return e.payload, true
}

// Set stores a payload under the key with the cache TTL.
func (c *PayloadCache) Set(key string, payload models.CatalogPayload) {
	c.mu.Lock()
	c.entries[key] = entry{payload: payload, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// InvalidateProfile removes every cached payload belonging to the given
// profile. Called after a refresh replaces the profile's lanes.
func (c *PayloadCache) InvalidateProfile(profileID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if owner, _ := models.SplitScopedCatalogID(key); owner == profileID {
			delete(c.entries, key)
		}
	}
}

// Len returns the current number of cached payloads.
func (c *PayloadCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stop terminates the background cleanup sweep.
func (c *PayloadCache) Stop() {
	c.once.Do(func() { close(c.stop) })
}

func (c *PayloadCache) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *PayloadCache) removeExpired() {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}
