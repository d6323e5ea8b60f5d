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
	"rivaas.dev/routecore/pattern"
)

// Capture is one bound parameter: its name and the (offset, length) span
// within the normalized path. The wildcard capture's name is the literal
// "*".
type Capture = pattern.Capture

// RouteMatch is a successful lookup: the matched route's key and its
// parameter captures in binding order.
type RouteMatch struct {
	Key    RouteKey
	Params []Capture
}

// minStaticBloomRoutes is the static map size below which the bloom filter
// pre-check costs more than the map probe it guards.
const minStaticBloomRoutes = 10

// staticTable is the per-method full-path map for purely static routes,
// fronted by a bloom filter for negative lookups once the table is large
// enough to benefit.
type staticTable struct {
	routes map[string]RouteKey
	bloom  *bloomFilter
}

func newStaticTable(routes map[string]RouteKey) *staticTable {
	t := &staticTable{routes: routes}
	if len(routes) >= minStaticBloomRoutes {
		t.bloom = newBloomFilter(uint64(len(routes))*8, 3)
		for path := range routes {
			t.bloom.add(path)
		}
	}
	return t
}

func (t *staticTable) lookup(path string) (RouteKey, bool) {
	if t == nil || t.routes == nil {
		return 0, false
	}
	if t.bloom != nil && !t.bloom.test(path) {
		return 0, false
	}
	key, ok := t.routes[path]
	return key, ok
}

// snapNode is an immutable tree vertex. The snapshot holds only owned data:
// strings, fixed-size route tables, a map of static children, and the
// pattern children in score order.
type snapNode struct {
	fusedEdge  string
	fusedChild *snapNode

	routes         [methodCount]uint16
	wildcardRoutes [methodCount]uint16

	staticChildren map[string]*snapNode
	patterns       []snapPattern

	// Pattern index, copied from the sealed node: pattern positions by
	// leading-literal head byte, and positions of parameter-first
	// patterns. Together they partition patterns; the matcher merges the
	// two lists to preserve score order while skipping literal-first
	// patterns on a single byte compare.
	patternLitHead    map[byte][]uint16
	patternParamFirst []uint16
}

type snapPattern struct {
	pat   pattern.Pattern
	child *snapNode
}

// Snapshot is the immutable, read-only view of a sealed tree. It is an
// independent deep copy: the mutable tree's arena and interner can be
// released once the snapshot exists.
//
// Thread safety: the snapshot contains no mutable state except the optional
// route cache, which serializes through its own lock. Find is safe for
// unlimited concurrent callers.
type Snapshot struct {
	root         snapNode
	staticTables [methodCount]*staticTable

	cfg config

	// Root pruning filters, copied from the sealed tree.
	pruning           bool
	firstByteBitmaps  [methodCount][4]uint64
	lengthBuckets     [methodCount]uint64
	paramFirstPresent [methodCount]bool
	wildcardPresent   [methodCount]bool

	cache   *routeCache
	metrics *MetricsConfig

	// Shape of the tree at seal time.
	stats Stats
}

// newSnapshot deep-copies the sealed tree into an independent immutable
// structure. Must only be called after Finalize.
func newSnapshot(t *Tree) *Snapshot {
	s := &Snapshot{
		cfg:               t.cfg,
		pruning:           t.rootPruning,
		firstByteBitmaps:  t.firstByteBitmaps,
		lengthBuckets:     t.lengthBuckets,
		paramFirstPresent: t.paramFirstPresent,
		wildcardPresent:   t.wildcardPresent,
		metrics:           t.cfg.metrics,
		stats:             t.Stats(),
	}
	s.root = *copyNode(&t.root)
	if t.staticMap {
		for m := range methodCount {
			if len(t.staticFull[m]) > 0 {
				s.staticTables[m] = newStaticTable(t.staticFull[m])
			}
		}
	}
	if t.cfg.cacheRoutes {
		s.cache = newRouteCache(t.cfg.cacheCapacity, t.cfg.diagnostics)
	}
	return s
}

// copyNode clones a tree node and its subtree out of the arena.
func copyNode(n *node) *snapNode {
	sn := &snapNode{
		fusedEdge:      n.fusedEdge,
		routes:         n.routes,
		wildcardRoutes: n.wildcardRoutes,
	}
	if n.fusedChild != nil {
		sn.fusedChild = copyNode(n.fusedChild)
	}
	if total := n.staticLen(); total > 0 {
		sn.staticChildren = make(map[string]*snapNode, total)
		for i, k := range n.staticKeys {
			sn.staticChildren[k] = copyNode(n.staticVals[i])
		}
		for k, v := range n.staticMap {
			sn.staticChildren[k] = copyNode(v)
		}
	}
	if len(n.patterns) > 0 {
		sn.patterns = make([]snapPattern, len(n.patterns))
		for i, pat := range n.patterns {
			sn.patterns[i] = snapPattern{pat: pat, child: copyNode(n.patternNodes[i])}
		}
		if len(n.patternFirstLitHead) > 0 {
			sn.patternLitHead = make(map[byte][]uint16, len(n.patternFirstLitHead))
			for b, idxs := range n.patternFirstLitHead {
				sn.patternLitHead[b] = append([]uint16(nil), idxs...)
			}
		}
		sn.patternParamFirst = append([]uint16(nil), n.patternParamFirst...)
	}
	return sn
}

// Stats reports the shape of the tree as it was at seal time.
func (s *Snapshot) Stats() Stats { return s.stats }

// Find looks up a route for the method and raw path. The path goes through
// the same normalizer as registration; a normalization failure surfaces as a
// path error, an unmatched path as a NotFoundError wrapping ErrRouteNotFound.
func (s *Snapshot) Find(method Method, path string) (RouteMatch, error) {
	normalized, err := normalizePath(path, &s.cfg)
	if err != nil {
		s.metrics.recordLookup(method, false)
		return RouteMatch{}, err
	}

	if s.cache != nil {
		if match, ok := s.cache.get(method, normalized); ok {
			s.metrics.recordCacheHit(method)
			s.metrics.recordLookup(method, true)
			return match, nil
		}
		s.metrics.recordCacheMiss(method)
	}

	match, ok := s.findNormalized(method, normalized)
	if !ok {
		s.metrics.recordLookup(method, false)
		return RouteMatch{}, &NotFoundError{Method: method, Path: normalized}
	}

	if s.cache != nil {
		s.cache.put(method, normalized, match)
	}
	s.metrics.recordLookup(method, true)
	return match, nil
}

// findNormalized runs the match against an already-normalized path.
func (s *Snapshot) findNormalized(method Method, normalized string) (RouteMatch, bool) {
	if !method.Valid() {
		return RouteMatch{}, false
	}

	if s.pruning && s.pruneMiss(method, normalized) {
		return RouteMatch{}, false
	}

	if key, ok := s.staticTables[method].lookup(normalized); ok {
		return RouteMatch{Key: key}, true
	}

	caps := capturesFromPool()
	key, caps, ok := s.findFrom(&s.root, method, normalized, 0, caps)
	if !ok {
		releaseCaptures(caps)
		return RouteMatch{}, false
	}

	match := RouteMatch{Key: key}
	if len(caps) > 0 {
		match.Params = make([]Capture, len(caps))
		copy(match.Params, caps)
	}
	releaseCaptures(caps)
	return match, true
}

// pruneMiss applies the root filters: a first byte no route for the method
// starts with, or a first-segment length no route can produce, proves the
// path cannot match. Parameter-first patterns and root wildcards disable
// pruning for their methods.
func (s *Snapshot) pruneMiss(method Method, normalized string) bool {
	if s.paramFirstPresent[method] || s.wildcardPresent[method] {
		return false
	}
	b := firstNonSlashByte(normalized)
	if b == 0 {
		// Root path; only the terminal check can decide.
		return false
	}
	if s.firstByteBitmaps[method][int(b)>>6]&(1<<(uint(b)&63)) == 0 {
		return true
	}
	segLen := firstSegmentLength(normalized)
	return s.lengthBuckets[method]&(1<<uint(min(segLen, 63))) == 0
}

// firstSegmentLength measures the first /-delimited segment after the
// leading slashes.
func firstSegmentLength(path string) int {
	i := 0
	for i < len(path) && path[i] == '/' {
		i++
	}
	j := i
	for j < len(path) && path[j] != '/' {
		j++
	}
	return j - i
}
