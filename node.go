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

	"rivaas.dev/routecore/pattern"
)

// staticInlineMax is the number of distinct static keys a node keeps in the
// inline vector before promoting to the hash map. The 4th distinct key
// triggers promotion.
const staticInlineMax = 4

// patternMeta is the packed per-pattern triple used for ordering and
// pruning. score orders dynamic children descending; minLen and lastLitLen
// are byte lengths clamped to the 255-byte segment limit.
type patternMeta struct {
	score      uint16
	minLen     uint8
	lastLitLen uint8
}

func metaFor(p pattern.Pattern) patternMeta {
	return patternMeta{
		score:      pattern.Score(p),
		minLen:     uint8(p.MinLiteralLen()),
		lastLitLen: uint8(p.LastLiteralLen()),
	}
}

type nodeFlags uint8

const (
	flagSealed nodeFlags = 1 << iota
	flagDirty
)

// node is an interior vertex of the radix tree.
//
// Static children live in one of two transparent representations: an inline
// key/value vector (kept sorted by interned key ID while mutable, by key
// bytes after finalize) for small fan-out, or a hash map once the fan-out
// grows. Dynamic pattern children are parallel slices ordered by descending
// score with stable ties. routes and wildcardRoutes store route keys +1 so
// zero means absent.
type node struct {
	staticKeys   []string
	staticVals   []*node
	staticKeyIDs []uint32 // interned IDs aligned with staticKeys
	staticMap    map[string]*node

	patterns     []pattern.Pattern
	patternNodes []*node
	patternMeta  []patternMeta

	// Pattern index, rebuilt at finalize (see rebuildPatternIndex).
	patternFirstLiteral map[string][]uint16
	patternFirstLitHead map[byte][]uint16
	patternParamFirst   []uint16

	routes         [methodCount]uint16
	wildcardRoutes [methodCount]uint16

	methodMask uint8
	flags      nodeFlags

	// Prefix compression, set at finalize only.
	fusedEdge  string
	fusedChild *node
}

func (n *node) sealed() bool     { return n.flags&flagSealed != 0 }
func (n *node) dirty() bool      { return n.flags&flagDirty != 0 }
func (n *node) setSealed(v bool) { n.setFlag(flagSealed, v) }
func (n *node) setDirty(v bool)  { n.setFlag(flagDirty, v) }

func (n *node) setFlag(f nodeFlags, v bool) {
	if v {
		n.flags |= f
	} else {
		n.flags &^= f
	}
}

// hasTerminal reports whether any method terminates at this node, either
// plainly or through the wildcard table.
func (n *node) hasTerminal() bool {
	for m := range methodCount {
		if n.routes[m] != 0 || n.wildcardRoutes[m] != 0 {
			return true
		}
	}
	return false
}

// staticLen is the number of static children across both representations.
func (n *node) staticLen() int {
	return len(n.staticKeys) + len(n.staticMap)
}

// findStatic returns the child for key, or nil. Both representations are
// transparent to the caller.
func (n *node) findStatic(key string) *node {
	if n.staticMap != nil {
		return n.staticMap[key]
	}
	for i, k := range n.staticKeys {
		if k == key {
			return n.staticVals[i]
		}
	}
	return nil
}

// descendStatic returns the child for key, creating it from the arena when
// absent. The inline vector holds up to staticInlineMax-1 entries; the entry
// that would make it staticInlineMax migrates everything into the map.
// While inline, entries stay sorted by interned key ID for deterministic
// iteration.
func (n *node) descendStatic(key string, a *arena, in *interner) *node {
	if n.staticMap != nil {
		child := n.staticMap[key]
		if child == nil {
			child = a.newNode()
			n.staticMap[key] = child
		}
		return child
	}

	for i, k := range n.staticKeys {
		if k == key {
			return n.staticVals[i]
		}
	}

	child := a.newNode()
	if len(n.staticKeys) >= staticInlineMax-1 {
		n.promoteStatic()
		n.staticMap[key] = child
		return child
	}

	n.staticKeys = append(n.staticKeys, key)
	n.staticVals = append(n.staticVals, child)
	n.staticKeyIDs = append(n.staticKeyIDs, in.intern(key))
	n.sortStaticByID()
	return child
}

// promoteStatic migrates the inline vector into the hash map.
func (n *node) promoteStatic() {
	n.staticMap = make(map[string]*node, len(n.staticKeys)*2)
	for i, k := range n.staticKeys {
		n.staticMap[k] = n.staticVals[i]
	}
	n.staticKeys = nil
	n.staticVals = nil
	n.staticKeyIDs = nil
}

// sortStaticByID keeps the inline vector ordered by interned key ID.
func (n *node) sortStaticByID() {
	if len(n.staticKeys) < 2 {
		return
	}
	sort.Sort(byKeyID{n})
}

type byKeyID struct{ n *node }

func (s byKeyID) Len() int { return len(s.n.staticKeys) }
func (s byKeyID) Less(i, j int) bool {
	return s.n.staticKeyIDs[i] < s.n.staticKeyIDs[j]
}
func (s byKeyID) Swap(i, j int) {
	n := s.n
	n.staticKeys[i], n.staticKeys[j] = n.staticKeys[j], n.staticKeys[i]
	n.staticVals[i], n.staticVals[j] = n.staticVals[j], n.staticVals[i]
	n.staticKeyIDs[i], n.staticKeyIDs[j] = n.staticKeyIDs[j], n.staticKeyIDs[i]
}

// demoteStaticMap moves map entries back into the inline vectors. Called at
// finalize so every node iterates children from one representation; the
// caller sorts afterwards.
func (n *node) demoteStaticMap() {
	if n.staticMap == nil {
		return
	}
	for k, v := range n.staticMap {
		n.staticKeys = append(n.staticKeys, k)
		n.staticVals = append(n.staticVals, v)
	}
	n.staticMap = nil
	n.staticKeyIDs = nil
}

// findOrCreatePatternChild locates the child for pat, enforcing the
// position-compatibility policy against every pattern already at the node.
// An equal pattern reuses its child; otherwise a new child is inserted at
// the position dictated by descending score, after all equal scores so ties
// keep insertion order.
func (n *node) findOrCreatePatternChild(pat pattern.Pattern, a *arena) (*node, error) {
	for _, exist := range n.patterns {
		if !pattern.Compatible(exist, pat) {
			return nil, &ParamConflictError{Pattern: pat.String()}
		}
	}
	for i, exist := range n.patterns {
		if exist.Equal(pat) {
			return n.patternNodes[i], nil
		}
	}

	meta := metaFor(pat)
	pos := len(n.patterns)
	for i, m := range n.patternMeta {
		if m.score < meta.score {
			pos = i
			break
		}
	}

	child := a.newNode()
	n.patterns = append(n.patterns, pattern.Pattern{})
	copy(n.patterns[pos+1:], n.patterns[pos:])
	n.patterns[pos] = pat

	n.patternNodes = append(n.patternNodes, nil)
	copy(n.patternNodes[pos+1:], n.patternNodes[pos:])
	n.patternNodes[pos] = child

	n.patternMeta = append(n.patternMeta, patternMeta{})
	copy(n.patternMeta[pos+1:], n.patternMeta[pos:])
	n.patternMeta[pos] = meta

	return child, nil
}

// forEachChild visits every child node across static, pattern, and fused
// representations.
func (n *node) forEachChild(visit func(*node)) {
	for _, c := range n.staticVals {
		visit(c)
	}
	for _, c := range n.staticMap {
		visit(c)
	}
	for _, c := range n.patternNodes {
		visit(c)
	}
	if n.fusedChild != nil {
		visit(n.fusedChild)
	}
}

// walk applies fn to n and every descendant, pre-order.
func (n *node) walk(fn func(*node)) {
	fn(n)
	n.forEachChild(func(c *node) { c.walk(fn) })
}
