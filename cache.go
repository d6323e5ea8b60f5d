// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package routecore

import (
	"container/list"
	"sync"
	"sync/atomic"
)

// cacheKey identifies one cached lookup. The path component is the
// normalized path, so two raw inputs that canonicalize identically share an
// entry.
type cacheKey struct {
	method Method
	path   string
}

type cacheEntry struct {
	key   cacheKey
	match RouteMatch
}

// routeCache is the snapshot's bounded LRU of lookup results. It is the only
// mutable state a snapshot carries.
//
// Reads take the read lock to peek; a hit upgrades to the write lock for
// recency promotion. Inserts evict the least recently read entry once the
// capacity is reached. Hit and miss counts are monotone counters.
type routeCache struct {
	mu       sync.RWMutex
	capacity int
	entries  map[cacheKey]*list.Element
	order    *list.List // front = most recently read

	hits   atomic.Uint64
	misses atomic.Uint64

	diagnostics DiagnosticHandler
}

func newRouteCache(capacity int, diagnostics DiagnosticHandler) *routeCache {
	if capacity <= 0 {
		capacity = defaultCacheCapacity
	}
	return &routeCache{
		capacity:    capacity,
		entries:     make(map[cacheKey]*list.Element, capacity),
		order:       list.New(),
		diagnostics: diagnostics,
	}
}

// get returns the cached match for (method, path) and promotes the entry.
// The returned Params slice is a copy; callers may keep it.
func (c *routeCache) get(method Method, path string) (RouteMatch, bool) {
	key := cacheKey{method: method, path: path}

	c.mu.RLock()
	elem, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		c.misses.Add(1)
		return RouteMatch{}, false
	}

	c.mu.Lock()
	// The entry may have been evicted between the two lock holds.
	elem, ok = c.entries[key]
	if !ok {
		c.mu.Unlock()
		c.misses.Add(1)
		return RouteMatch{}, false
	}
	c.order.MoveToFront(elem)
	match := elem.Value.(*cacheEntry).match
	c.mu.Unlock()

	c.hits.Add(1)
	if len(match.Params) > 0 {
		params := make([]Capture, len(match.Params))
		copy(params, match.Params)
		match.Params = params
	}
	return match, true
}

// put inserts a match, evicting the least recently read entry when full.
// The stored entry owns its Params slice so later caller mutations of the
// returned match cannot reach the cache.
func (c *routeCache) put(method Method, path string, match RouteMatch) {
	if len(match.Params) > 0 {
		params := make([]Capture, len(match.Params))
		copy(params, match.Params)
		match.Params = params
	}
	key := cacheKey{method: method, path: path}

	c.mu.Lock()
	if elem, ok := c.entries[key]; ok {
		elem.Value.(*cacheEntry).match = match
		c.order.MoveToFront(elem)
		c.mu.Unlock()
		return
	}
	var evicted *cacheKey
	if c.order.Len() >= c.capacity {
		back := c.order.Back()
		if back != nil {
			entry := back.Value.(*cacheEntry)
			delete(c.entries, entry.key)
			c.order.Remove(back)
			evicted = &entry.key
		}
	}
	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, match: match})
	c.mu.Unlock()

	if evicted != nil && c.diagnostics != nil {
		c.diagnostics.OnDiagnostic(DiagnosticEvent{
			Kind:    DiagCacheEviction,
			Message: "route cache entry evicted",
			Fields: map[string]any{
				"method": evicted.method.String(),
				"path":   evicted.path,
			},
		})
	}
}

// Metrics returns the monotone hit and miss counters.
func (c *routeCache) Metrics() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// CacheMetrics exposes the snapshot's route cache counters. Both values are
// zero when the cache is disabled.
func (s *Snapshot) CacheMetrics() (hits, misses uint64) {
	if s.cache == nil {
		return 0, 0
	}
	return s.cache.Metrics()
}
