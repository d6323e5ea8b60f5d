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

// MaxRoutes is the route key ceiling. Keys are dense uint16 values starting
// at 0; the engine stores them +1 internally so zero means absent, which
// caps the largest assignable key at MaxRoutes-1.
const MaxRoutes = 65_535

// staticMapThreshold is the terminal static route count at which the
// finalizer enables the full-path static map automatically.
const staticMapThreshold = 50

// highParamCountThreshold triggers a diagnostic for routes binding an
// unusual number of parameters.
const highParamCountThreshold = 8

// RouteKey is the dense 16-bit identifier assigned to a route on insert.
// Keys are assigned monotonically starting at 0 and never reused.
type RouteKey uint16

// Tree is the mutable route index built during the registration phase.
// Insert and InsertBulk populate it; Finalize seals it and prepares the
// structures the read-only Snapshot is built from.
//
// Thread safety: the build phase is logically single-writer. Insert,
// InsertBulk, and Finalize must not run concurrently with each other;
// callers that need a concurrency guard use Router, which wraps the tree in
// a lifecycle lock. After Finalize the tree is immutable.
type Tree struct {
	root     node
	cfg      config
	arena    *arena
	interner *interner

	nextKey uint16

	// Per-method index structures, built at Finalize.
	firstByteBitmaps  [methodCount][4]uint64
	lengthBuckets     [methodCount]uint64
	paramFirstPresent [methodCount]bool
	wildcardPresent   [methodCount]bool
	staticFull        [methodCount]map[string]RouteKey

	rootPruning bool
	staticMap   bool
}

// NewTree creates an empty mutable tree with the given configuration.
func NewTree(cfg config) *Tree {
	return &Tree{
		cfg:      cfg,
		arena:    newArena(),
		interner: newInterner(),
	}
}

// Sealed reports whether Finalize has run.
func (t *Tree) Sealed() bool { return t.root.sealed() }

// parsedPath is the preprocessed form of one registration input.
type parsedPath struct {
	normalized string
	segments   []pattern.Pattern
	literals   []string
}

// preprocess normalizes the path and parses every segment, running the full
// per-path validation: wildcard terminality, literal length limits, and
// parameter name uniqueness.
func (t *Tree) preprocess(path string) (parsedPath, error) {
	normalized, err := normalizePath(path, &t.cfg)
	if err != nil {
		return parsedPath{}, err
	}
	segments, literals, err := t.parseSegments(path, normalized)
	if err != nil {
		return parsedPath{}, err
	}
	return parsedPath{normalized: normalized, segments: segments, literals: literals}, nil
}

// parseSegments splits the normalized path on '/' and parses each retained
// segment. Empty segments survive only where the configuration makes them
// significant: in the middle when duplicate slashes are preserved, at the
// end when trailing slashes are strict. The root path "/" parses to an empty
// segment list.
func (t *Tree) parseSegments(original, normalized string) ([]pattern.Pattern, []string, error) {
	if normalized == "/" {
		return nil, nil, nil
	}

	raw := splitSegments(normalized, &t.cfg)
	if len(raw) == 0 {
		return nil, nil, &PathError{Input: original, Err: ErrInvalidAfterNormalization}
	}

	parse := pattern.ParseSegment
	if t.cfg.mixedSegments {
		parse = pattern.ParseSegmentMixed
	}

	segments := make([]pattern.Pattern, 0, len(raw))
	var literals []string
	seenParams := make(map[string]struct{})

	for idx, seg := range raw {
		pat, err := parse(seg)
		if err != nil {
			return nil, nil, err
		}

		if pat.IsWildcard() && idx != len(raw)-1 {
			return nil, nil, &WildcardPositionError{SegmentIndex: idx, TotalSegments: len(raw)}
		}

		minLen := pat.MinLiteralLen()
		lastLit := pat.LastLiteralLen()
		if minLen > pattern.MaxSpanLength || lastLit > pattern.MaxSpanLength {
			return nil, nil, &PatternLengthError{
				Segment:           seg,
				Path:              original,
				MinLength:         minLen,
				LastLiteralLength: lastLit,
			}
		}

		for _, part := range pat.Parts {
			switch part.Kind {
			case pattern.KindParam:
				if _, dup := seenParams[part.Text]; dup {
					return nil, nil, &DuplicateParamError{Name: part.Text, Path: original}
				}
				seenParams[part.Text] = struct{}{}
			case pattern.KindLiteral:
				if part.Text != "" && part.Text != "*" {
					literals = append(literals, part.Text)
				}
			}
		}
		segments = append(segments, pat)
	}

	if len(seenParams) >= highParamCountThreshold {
		t.cfg.diag(DiagHighParamCount, "route binds many parameters", map[string]any{
			"path":   original,
			"params": len(seenParams),
		})
	}
	return segments, literals, nil
}

// splitSegments cuts the normalized path at '/' and drops the empty pieces
// the configuration does not make significant.
func splitSegments(normalized string, cfg *config) []string {
	var out []string
	start := 0
	leading := len(normalized) > 0 && normalized[0] == '/'
	parts := make([]string, 0, 8)
	for i := 0; i <= len(normalized); i++ {
		if i == len(normalized) || normalized[i] == '/' {
			parts = append(parts, normalized[start:i])
			start = i + 1
		}
	}
	for idx, part := range parts {
		isFirst := idx == 0
		isLast := idx == len(parts)-1
		if isFirst && leading && part == "" {
			continue
		}
		if part == "" {
			keep := cfg.allowDuplicateSlash
			if isLast {
				keep = cfg.strictTrailingSlash
			}
			if !keep {
				continue
			}
		}
		out = append(out, part)
	}
	return out
}

// Insert registers a single route and returns its key. Keys are assigned in
// call order: the first accepted insert gets 0, the next 1, and so on.
func (t *Tree) Insert(method Method, path string) (RouteKey, error) {
	if t.Sealed() {
		return 0, &SealedError{Op: "insert", Path: path, Err: ErrTreeSealed}
	}
	parsed, err := t.preprocess(path)
	if err != nil {
		return 0, err
	}
	key, err := t.insertParsed(method, parsed.segments, noPreassignedKey)
	if err != nil {
		return 0, err
	}
	t.cfg.diag(DiagRouteRegistered, "route registered", map[string]any{
		"method": method.String(),
		"path":   parsed.normalized,
		"key":    uint16(key),
	})
	return key, nil
}

// noPreassignedKey makes insertParsed draw from the key counter; the bulk
// loader passes explicit keys instead.
const noPreassignedKey = -1

// insertParsed descends the tree along the parsed segments and records the
// terminal. A preassigned key >= 0 is used verbatim (bulk path); otherwise
// the next key is drawn from the counter after the duplicate check passes.
func (t *Tree) insertParsed(method Method, segments []pattern.Pattern, preassigned int) (RouteKey, error) {
	t.root.setDirty(true)

	cur := &t.root
	for _, pat := range segments {
		if pat.IsWildcard() {
			// parseSegments guarantees terminal position.
			return t.recordWildcard(cur, method, preassigned)
		}

		if lit, ok := pat.PureStatic(); ok {
			cur = cur.descendStatic(lit, t.arena, t.interner)
		} else {
			child, err := cur.findOrCreatePatternChild(pat, t.arena)
			if err != nil {
				return 0, err
			}
			cur = child
		}
		cur.setDirty(true)
	}
	return t.recordTerminal(cur, method, preassigned)
}

// recordTerminal stores the route key for method at n, enforcing the
// duplicate and capacity rules.
func (t *Tree) recordTerminal(n *node, method Method, preassigned int) (RouteKey, error) {
	if existing := n.routes[method]; existing != 0 {
		return 0, &DuplicateRouteError{Method: method, ExistingKey: RouteKey(existing - 1)}
	}
	key, err := t.drawKey(preassigned)
	if err != nil {
		return 0, err
	}
	n.routes[method] = uint16(key) + 1
	n.methodMask |= method.bit()
	n.setDirty(true)
	return key, nil
}

// recordWildcard stores the wildcard route key for method at n.
func (t *Tree) recordWildcard(n *node, method Method, preassigned int) (RouteKey, error) {
	if existing := n.wildcardRoutes[method]; existing != 0 {
		return 0, &DuplicateRouteError{Method: method, ExistingKey: RouteKey(existing - 1), Wildcard: true}
	}
	key, err := t.drawKey(preassigned)
	if err != nil {
		return 0, err
	}
	n.wildcardRoutes[method] = uint16(key) + 1
	n.methodMask |= method.bit()
	n.setDirty(true)
	return key, nil
}

// drawKey returns the preassigned key when the bulk loader reserved one, or
// advances the counter. The counter value MaxRoutes means the key space is
// exhausted; the failed draw leaves the counter unchanged.
func (t *Tree) drawKey(preassigned int) (RouteKey, error) {
	if preassigned >= 0 {
		return RouteKey(preassigned), nil
	}
	if t.nextKey == MaxRoutes {
		return 0, &CapacityError{Requested: 1, NextKey: t.nextKey, Limit: MaxRoutes}
	}
	key := t.nextKey
	t.nextKey++
	return RouteKey(key), nil
}

// firstNonSlashByte returns the first byte of the path that is not '/', or 0
// for the root path.
func firstNonSlashByte(path string) byte {
	for i := 0; i < len(path); i++ {
		if path[i] != '/' {
			return path[i]
		}
	}
	return 0
}

// inferStaticGuess is a cheap whole-path test for "no parameters, no
// wildcard" used by the bulk loader's commit ordering. It may be wrong only
// in the conservative direction.
func inferStaticGuess(path string) bool {
	for i := 0; i < len(path); i++ {
		if path[i] == ':' || path[i] == '*' {
			return false
		}
	}
	return true
}
