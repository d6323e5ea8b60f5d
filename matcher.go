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
	"strings"
	"sync"

	"rivaas.dev/routecore/pattern"
)

// capturePool recycles the per-call capture buffer. Buffers are cleared on
// acquisition, so a pooled slice never leaks captures between lookups.
var capturePool = sync.Pool{
	New: func() any {
		buf := make([]Capture, 0, 8)
		return &buf
	},
}

func capturesFromPool() []Capture {
	return (*capturePool.Get().(*[]Capture))[:0]
}

func releaseCaptures(caps []Capture) {
	caps = caps[:0]
	capturePool.Put(&caps)
}

// findFrom descends from n matching s starting at cursor i. Captures
// accumulate in caps; the returned slice carries whatever was appended
// (callers own the final slice, including on failure).
//
// Search order at each node: fused edge (when present, the only way down),
// end-of-path terminal, static child, dynamic patterns in score order with
// capture backtracking, then the wildcard.
func (snap *Snapshot) findFrom(n *snapNode, method Method, s string, i int, caps []Capture) (RouteKey, []Capture, bool) {
	// Skip one leading '/'.
	skipped := false
	if i < len(s) && s[i] == '/' {
		i++
		skipped = true
	}

	if n.fusedEdge != "" {
		rem := s[i:]
		if !strings.HasPrefix(rem, n.fusedEdge) {
			return 0, caps, false
		}
		next := i + len(n.fusedEdge)
		// The edge must end on a segment boundary.
		if next < len(s) && s[next] != '/' {
			return 0, caps, false
		}
		if n.fusedChild == nil {
			return 0, caps, false
		}
		return snap.findFrom(n.fusedChild, method, s, next, caps)
	}

	if i >= len(s) {
		// With significant trailing slashes a path ending in '/' carries
		// one last empty segment, registered under the empty static key.
		// The plain terminal here belongs to the path without the slash
		// and must not match; only the empty-key child or a wildcard can.
		if skipped && i > 1 && snap.cfg.strictTrailingSlash {
			if child, ok := n.staticChildren[""]; ok {
				if key, out, found := snap.findFrom(child, method, s, i, caps); found {
					return key, out, true
				}
			}
			if wrk := n.wildcardRoutes[method]; wrk != 0 {
				return RouteKey(wrk - 1), caps, true
			}
			return 0, caps, false
		}
		key, ok := n.terminal(method)
		return key, caps, ok
	}

	next := strings.IndexByte(s[i:], '/')
	if next < 0 {
		next = len(s)
	} else {
		next += i
	}
	seg := s[i:next]

	if child, ok := n.staticChildren[seg]; ok {
		if key, out, found := snap.findFrom(child, method, s, next, caps); found {
			return key, out, true
		}
	}

	if len(n.patterns) > 0 && len(seg) > 0 {
		// Candidates are the literal-first patterns whose head byte
		// matches plus every parameter-first pattern. Both index lists
		// are ascending pattern positions, so a two-pointer merge walks
		// candidates in score order.
		lit := n.patternLitHead[seg[0]]
		params := n.patternParamFirst
		li, pi := 0, 0
		for li < len(lit) || pi < len(params) {
			var idx int
			if pi >= len(params) || (li < len(lit) && lit[li] < params[pi]) {
				idx = int(lit[li])
				li++
			} else {
				idx = int(params[pi])
				pi++
			}

			checkpoint := len(caps)
			rel, ok := pattern.MatchSegment(seg, n.patterns[idx].pat, caps)
			if !ok {
				continue
			}
			caps = rel
			// Rebase the fresh captures to absolute path offsets.
			for c := checkpoint; c < len(caps); c++ {
				caps[c].Offset += i
			}
			if key, out, found := snap.findFrom(n.patterns[idx].child, method, s, next, caps); found {
				return key, out, true
			}
			caps = caps[:checkpoint]
		}
	}

	if wrk := n.wildcardRoutes[method]; wrk != 0 {
		capStart := i
		if capStart < len(s) && s[capStart] == '/' {
			capStart++
		}
		if rest := len(s) - capStart; rest > 0 {
			caps = append(caps, Capture{Name: "*", Offset: capStart, Length: rest})
		}
		return RouteKey(wrk - 1), caps, true
	}

	return 0, caps, false
}

// terminal resolves an end-of-path arrival: the plain route wins over the
// wildcard route; neither means no match continues from here.
func (n *snapNode) terminal(method Method) (RouteKey, bool) {
	if rk := n.routes[method]; rk != 0 {
		return RouteKey(rk - 1), true
	}
	if wrk := n.wildcardRoutes[method]; wrk != 0 {
		return RouteKey(wrk - 1), true
	}
	return 0, false
}
