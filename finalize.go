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
	"sort"
	"strings"

	"rivaas.dev/routecore/pattern"
)

// Finalize seals the tree: it rebuilds pattern metadata and indices, applies
// the automatic tuning decisions, compresses single-child chains, sorts
// every node's static children, computes method masks bottom-up, builds the
// root pruning structures and (when enabled) the per-method static full-path
// map, and marks the root sealed.
//
// Finalize is idempotent: a second call returns immediately without
// rebuilding anything. It is the only path to the sealed state.
func (t *Tree) Finalize() {
	if t.Sealed() {
		return
	}

	t.root.walk(func(n *node) {
		rebuildPatternMeta(n)
		rebuildPatternIndex(n)
	})

	if t.cfg.autoOptimize {
		t.autoTune()
	}
	if t.cfg.enableRootPruning {
		t.rootPruning = true
	}
	if t.cfg.enableStaticFull {
		t.staticMap = true
	}

	t.root.setSealed(true)

	compressNode(&t.root)

	t.root.walk(func(n *node) {
		n.demoteStaticMap()
	})
	sortNodeRecursively(&t.root)

	// The pattern index keys shifted representations during compression;
	// rebuild it against the final layout.
	t.root.walk(func(n *node) {
		rebuildPatternIndex(n)
	})

	computeMask(&t.root)
	t.buildPruningMaps()
	if t.staticMap {
		t.buildStaticMap()
	}

	t.root.walk(func(n *node) {
		n.setDirty(false)
	})

	t.cfg.diag(DiagTreeSealed, "tree sealed", map[string]any{
		"routes": int(t.nextKey),
		"nodes":  t.arena.allocated() + 1,
	})
}

// autoTune applies the finalizer's heuristics: root pruning turns on when
// the root has no parameter-first pattern and no wildcard terminal; the
// static full map turns on at staticMapThreshold terminal static routes.
func (t *Tree) autoTune() {
	rootDynamic := len(t.root.patternParamFirst) > 0
	for m := range methodCount {
		if t.root.wildcardRoutes[m] != 0 {
			rootDynamic = true
			break
		}
	}
	if !rootDynamic {
		t.rootPruning = true
		t.cfg.diag(DiagPruningEnabled, "root-level pruning enabled", nil)
	}

	if countStaticTerminals(&t.root) >= staticMapThreshold {
		t.staticMap = true
	}
}

// countStaticTerminals counts per-method terminals reachable through static
// children only; pattern subtrees are skipped because their terminals can
// never appear in the full-path map.
func countStaticTerminals(n *node) int {
	count := 0
	for m := range methodCount {
		if n.routes[m] != 0 {
			count++
		}
	}
	for _, c := range n.staticVals {
		count += countStaticTerminals(c)
	}
	for _, c := range n.staticMap {
		count += countStaticTerminals(c)
	}
	if n.fusedChild != nil {
		count += countStaticTerminals(n.fusedChild)
	}
	return count
}

// rebuildPatternMeta recomputes the packed (score, minLen, lastLitLen)
// triple for every dynamic pattern at the node, in pattern order.
func rebuildPatternMeta(n *node) {
	if len(n.patterns) == 0 {
		n.patternMeta = nil
		return
	}
	n.patternMeta = n.patternMeta[:0]
	for _, pat := range n.patterns {
		n.patternMeta = append(n.patternMeta, metaFor(pat))
	}
}

// rebuildPatternIndex rebuilds the three pattern filters: leading literal
// text to pattern indices, leading literal first byte to pattern indices,
// and the parameter-first index list.
func rebuildPatternIndex(n *node) {
	n.patternFirstLiteral = nil
	n.patternFirstLitHead = nil
	n.patternParamFirst = nil
	if len(n.patterns) == 0 {
		return
	}

	for idx, pat := range n.patterns {
		first := pat.Parts[0]
		if first.Kind == pattern.KindLiteral {
			if n.patternFirstLiteral == nil {
				n.patternFirstLiteral = make(map[string][]uint16, len(n.patterns))
				n.patternFirstLitHead = make(map[byte][]uint16, len(n.patterns))
			}
			n.patternFirstLiteral[first.Text] = append(n.patternFirstLiteral[first.Text], uint16(idx))
			if len(first.Text) > 0 {
				head := first.Text[0]
				n.patternFirstLitHead[head] = append(n.patternFirstLitHead[head], uint16(idx))
			}
		} else {
			n.patternParamFirst = append(n.patternParamFirst, uint16(idx))
		}
	}
}

// canCompress reports whether n is a pure pass-through: no dynamic children,
// no terminals, exactly one static child with a non-empty key, not already
// fused. An empty key (significant duplicate slash) cannot head an edge.
func canCompress(n *node) bool {
	if len(n.patterns) != 0 || n.hasTerminal() || n.fusedEdge != "" {
		return false
	}
	k, ok := n.onlyStaticKey()
	return ok && k != ""
}

// onlyStaticKey returns the key of the node's single static child.
func (n *node) onlyStaticKey() (string, bool) {
	if len(n.staticKeys) == 1 && len(n.staticMap) == 0 {
		return n.staticKeys[0], true
	}
	if len(n.staticKeys) == 0 && len(n.staticMap) == 1 {
		for k := range n.staticMap {
			return k, true
		}
	}
	return "", false
}

// compressNode fuses single-child chains bottom-up: a qualifying node
// absorbs its only static child's edge, then keeps absorbing while the next
// child also qualifies. The fused node ends up with no static or pattern
// children of its own; the chain's tail hangs off fusedChild.
func compressNode(n *node) {
	for _, c := range n.patternNodes {
		compressNode(c)
	}
	for _, c := range n.staticVals {
		compressNode(c)
	}
	for _, c := range n.staticMap {
		compressNode(c)
	}

	if !canCompress(n) {
		return
	}

	edge, child := n.takeOnlyStaticChild()
	for len(child.patterns) == 0 && !child.hasTerminal() {
		if child.fusedEdge != "" {
			// The child fused its own chain already; flatten it into
			// this edge.
			edge = edge + "/" + child.fusedEdge
			child = child.fusedChild
			continue
		}
		if child.staticLen() != 1 {
			break
		}
		next, grandchild := child.takeOnlyStaticChild()
		edge = edge + "/" + next
		child = grandchild
	}
	n.fusedEdge = edge
	n.fusedChild = child
}

// takeOnlyStaticChild removes and returns the node's single static child.
// Callers have already established staticLen() == 1.
func (n *node) takeOnlyStaticChild() (string, *node) {
	if len(n.staticKeys) == 1 {
		k, c := n.staticKeys[0], n.staticVals[0]
		n.staticKeys = nil
		n.staticVals = nil
		n.staticKeyIDs = nil
		return k, c
	}
	for k, c := range n.staticMap {
		n.staticMap = nil
		return k, c
	}
	return "", nil
}

// sortNodeRecursively orders every node's static children by key bytes
// ascending. Runs after demoteStaticMap so the inline vectors are the only
// representation.
func sortNodeRecursively(n *node) {
	// Interned IDs ordered the build phase; from here on keys sort and
	// compare by bytes.
	n.staticKeyIDs = nil
	if len(n.staticKeys) > 1 {
		sort.Sort(byKeyBytes{n})
	}
	for _, c := range n.staticVals {
		sortNodeRecursively(c)
	}
	for _, c := range n.patternNodes {
		sortNodeRecursively(c)
	}
	if n.fusedChild != nil {
		sortNodeRecursively(n.fusedChild)
	}
}

type byKeyBytes struct{ n *node }

func (s byKeyBytes) Len() int           { return len(s.n.staticKeys) }
func (s byKeyBytes) Less(i, j int) bool { return s.n.staticKeys[i] < s.n.staticKeys[j] }
func (s byKeyBytes) Swap(i, j int) {
	n := s.n
	n.staticKeys[i], n.staticKeys[j] = n.staticKeys[j], n.staticKeys[i]
	n.staticVals[i], n.staticVals[j] = n.staticVals[j], n.staticVals[i]
}

// computeMask computes the 7-bit method mask bottom-up: each node's mask is
// the union of its own terminal methods with all its children's masks.
func computeMask(n *node) uint8 {
	var m uint8
	for i := range methodCount {
		if n.routes[i] != 0 || n.wildcardRoutes[i] != 0 {
			m |= 1 << i
		}
	}
	for _, c := range n.staticVals {
		m |= computeMask(c)
	}
	for _, c := range n.patternNodes {
		m |= computeMask(c)
	}
	if n.fusedChild != nil {
		m |= computeMask(n.fusedChild)
	}
	n.methodMask = m
	return m
}

// buildPruningMaps fills the per-method root filters: the 256-bit first-byte
// bitmap, the 64-bit first-segment length buckets, and the parameter-first
// and wildcard flags. Each root child contributes its bits only to the
// methods present in its subtree mask.
func (t *Tree) buildPruningMaps() {
	t.firstByteBitmaps = [methodCount][4]uint64{}
	t.lengthBuckets = [methodCount]uint64{}
	t.paramFirstPresent = [methodCount]bool{}
	t.wildcardPresent = [methodCount]bool{}

	root := &t.root
	for m := range methodCount {
		if root.wildcardRoutes[m] != 0 {
			t.wildcardPresent[m] = true
		}
	}

	if root.fusedEdge != "" && root.fusedChild != nil {
		first := root.fusedEdge
		if idx := strings.IndexByte(first, '/'); idx >= 0 {
			first = first[:idx]
		}
		t.addPruningKey(first, root.fusedChild.methodMask)
	}

	for i, k := range root.staticKeys {
		if k == "" {
			// Empty keys come from significant duplicate slashes; their
			// first byte is unconstrained, so pruning cannot apply.
			for m := range methodCount {
				if root.staticVals[i].methodMask&(1<<m) != 0 {
					t.paramFirstPresent[m] = true
				}
			}
			continue
		}
		t.addPruningKey(k, root.staticVals[i].methodMask)
	}

	for i, pat := range root.patterns {
		mask := root.patternNodes[i].methodMask
		first := pat.Parts[0]
		if first.Kind == pattern.KindParam {
			for m := range methodCount {
				if mask&(1<<m) != 0 {
					t.paramFirstPresent[m] = true
				}
			}
			continue
		}
		// A leading literal pins the first byte. The segment length is
		// only pinned when the pattern has no parameters at all; with
		// parameters any length at or above the literal minimum can
		// match, so every bucket from there up is possible.
		variable := pat.ParamCount() > 0
		t.addPruningPatternKey(first.Text, pat.MinLiteralLen(), variable, mask)
	}
}

// addPruningKey sets the first-byte bit and the exact length bucket of key
// for every method in mask.
func (t *Tree) addPruningKey(key string, mask uint8) {
	if key == "" {
		return
	}
	b := key[0]
	blk, bit := int(b)>>6, uint64(1)<<(uint(b)&63)
	l := min(len(key), 63)
	for m := range methodCount {
		if mask&(1<<m) == 0 {
			continue
		}
		t.firstByteBitmaps[m][blk] |= bit
		t.lengthBuckets[m] |= 1 << uint(l)
	}
}

// addPruningPatternKey sets the first-byte bit for the pattern's leading
// literal and the length buckets it can occupy: the exact total for a
// literal-only pattern, or minLen through 63 when parameters make the
// segment length open-ended.
func (t *Tree) addPruningPatternKey(lead string, minLen int, variable bool, mask uint8) {
	if lead == "" {
		return
	}
	b := lead[0]
	blk, bit := int(b)>>6, uint64(1)<<(uint(b)&63)

	var lengths uint64
	if variable {
		lengths = ^uint64(0) << uint(min(minLen, 63))
	} else {
		lengths = 1 << uint(min(minLen, 63))
	}

	for m := range methodCount {
		if mask&(1<<m) == 0 {
			continue
		}
		t.firstByteBitmaps[m][blk] |= bit
		t.lengthBuckets[m] |= lengths
	}
}

// buildStaticMap walks the sealed tree and records every purely static
// normalized path, fused edges included, in the per-method full-path maps.
func (t *Tree) buildStaticMap() {
	for m := range methodCount {
		t.staticFull[m] = make(map[string]RouteKey)
	}
	var buf []byte
	collectStatic(&t.root, buf, &t.staticFull)

	total := 0
	for m := range methodCount {
		total += len(t.staticFull[m])
	}
	t.cfg.diag(DiagStaticMapBuilt, "static full-path map built", map[string]any{
		"entries": total,
	})
}

// collectStatic accumulates the path prefix in buf while descending static
// children and fused edges; every terminal along the way lands in the map
// for its method. Pattern subtrees never contribute.
func collectStatic(n *node, buf []byte, maps *[methodCount]map[string]RouteKey) {
	if n.fusedEdge != "" {
		buf = append(buf, '/')
		buf = append(buf, n.fusedEdge...)
	}

	for m := range methodCount {
		if rk := n.routes[m]; rk != 0 {
			key := "/"
			if len(buf) > 0 {
				key = string(buf)
			}
			(*maps)[m][key] = RouteKey(rk - 1)
		}
	}

	for i, k := range n.staticKeys {
		child := buf
		child = append(child, '/')
		child = append(child, k...)
		collectStatic(n.staticVals[i], child, maps)
	}
	if n.fusedChild != nil {
		collectStatic(n.fusedChild, buf, maps)
	}
}
