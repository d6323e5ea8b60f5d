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
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// RouteEntry is one (method, path) registration input for InsertBulk.
type RouteEntry struct {
	Method Method
	Path   string
}

// bulkParallelThreshold is the entry count below which preprocessing runs
// inline; spawning workers for a handful of routes costs more than it saves.
const bulkParallelThreshold = 32

// bulkEntry carries one preprocessed input plus the ordering hints used to
// sort the commit phase for tree locality.
type bulkEntry struct {
	idx    int
	method Method
	parsed parsedPath
	head   byte
	plen   int
	static bool
}

// InsertBulk registers all entries in one shot and returns their keys in
// input order.
//
// Keys are preassigned deterministically before commit: entry i receives
// base+i where base is the key counter's value at the start of the call, so
// the returned vector is always [base, base+1, …] regardless of how
// preprocessing was scheduled. Preprocessing (normalization, segment
// parsing, literal collection) runs on parallel workers for large batches;
// the tree commit is sequential.
//
// On a preprocessing failure no key is reserved and the tree is untouched;
// the error reported is the one with the lowest input index. The commit runs
// in locality order (head byte, path length, static first), not input order.
// On a commit failure the call returns nil and the first error met in that
// order; the entries committed before it stay registered whatever their
// input position, and the rest are not. The key counter is restored to one
// past the highest key actually committed, so subsequent Insert calls stay
// consistent with the committed tree state.
func (t *Tree) InsertBulk(entries []RouteEntry) ([]RouteKey, error) {
	if t.Sealed() {
		return nil, &SealedError{Op: "insert_bulk", Count: len(entries), Err: ErrTreeSealed}
	}
	n := len(entries)
	if n == 0 {
		return nil, nil
	}

	pre := make([]bulkEntry, n)
	errs := make([]error, n)

	preprocessOne := func(i int) {
		parsed, err := t.preprocess(entries[i].Path)
		if err != nil {
			errs[i] = err
			return
		}
		pre[i] = bulkEntry{
			idx:    i,
			method: entries[i].Method,
			parsed: parsed,
			head:   firstNonSlashByte(parsed.normalized),
			plen:   len(parsed.normalized),
			static: inferStaticGuess(parsed.normalized),
		}
	}

	if n < bulkParallelThreshold {
		for i := range entries {
			preprocessOne(i)
		}
	} else {
		workers := min(runtime.GOMAXPROCS(0), n)
		chunk := (n + workers - 1) / workers
		var g errgroup.Group
		for lo := 0; lo < n; lo += chunk {
			hi := min(lo+chunk, n)
			g.Go(func() error {
				for i := lo; i < hi; i++ {
					preprocessOne(i)
				}
				return nil
			})
		}
		// Workers only write their own slots and never return errors
		// through the group; Wait is the barrier that stops all
		// preprocessing before any shared state is read.
		_ = g.Wait()
	}

	// Report the failure with the lowest input index.
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	// Warm the interner with the sorted set of unique literals so key IDs
	// are deterministic regardless of commit order.
	uniq := make(map[string]struct{})
	for i := range pre {
		for _, lit := range pre[i].parsed.literals {
			uniq[lit] = struct{}{}
		}
	}
	lits := make([]string, 0, len(uniq))
	for lit := range uniq {
		lits = append(lits, lit)
	}
	sort.Strings(lits)
	for _, lit := range lits {
		t.interner.intern(lit)
	}

	// Reserve the key range before commit.
	base := t.nextKey
	if int(base)+n > MaxRoutes {
		return nil, &CapacityError{Requested: n, NextKey: base, Limit: MaxRoutes}
	}
	t.nextKey = base + uint16(n)

	// Commit ordered by head byte, then path length, static routes first:
	// neighbors in the tree are committed together. Input order still
	// dictates key assignment through the preserved idx.
	order := make([]*bulkEntry, n)
	for i := range pre {
		order[i] = &pre[i]
	}
	sort.SliceStable(order, func(a, b int) bool {
		ea, eb := order[a], order[b]
		if ea.head != eb.head {
			return ea.head < eb.head
		}
		if ea.plen != eb.plen {
			return ea.plen < eb.plen
		}
		return ea.static && !eb.static
	})

	out := make([]RouteKey, n)
	committed := -1
	for _, e := range order {
		key := int(base) + e.idx
		if _, err := t.insertParsed(e.method, e.parsed.segments, key); err != nil {
			next := base
			if committed >= 0 {
				next = uint16(committed) + 1
			}
			t.nextKey = next
			return nil, err
		}
		out[e.idx] = RouteKey(key)
		if key > committed {
			committed = key
		}
	}

	t.cfg.diag(DiagBulkCommitted, "bulk routes committed", map[string]any{
		"count":    n,
		"base_key": uint16(base),
	})
	return out, nil
}
