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
	"sync"
	"sync/atomic"
)

// Router is the lifecycle guard around the engine: a mutable Tree during the
// registration phase and an immutable Snapshot after Seal. It enforces the
// one-way build-then-lookup contract so callers don't have to.
//
// Thread safety: Add, AddBulk, and Seal serialize on an internal write lock.
// Find and Snapshot read the sealed snapshot through an atomic pointer and
// never block each other. Callers that manage their own lifecycle
// synchronization can use Tree and Snapshot directly.
type Router struct {
	mu       sync.Mutex
	tree     *Tree
	snapshot atomic.Pointer[Snapshot]
	metrics  *MetricsConfig
}

// New creates an empty router with the given options.
func New(opts ...Option) *Router {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Router{
		tree:    NewTree(cfg),
		metrics: cfg.metrics,
	}
}

// Add registers a single route and returns its key. Keys are dense and
// assigned in call order starting at 0. Fails with ErrAddWhileSealed once
// Seal has run.
func (r *Router) Add(method Method, path string) (RouteKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.snapshot.Load() != nil {
		return 0, &SealedError{Op: "add", Path: path, Err: ErrAddWhileSealed}
	}
	key, err := r.tree.Insert(method, path)
	if err != nil {
		return 0, err
	}
	r.metrics.recordRouteRegistered(1)
	return key, nil
}

// AddBulk registers all entries in one shot; see Tree.InsertBulk for the key
// assignment and failure contract. Fails with ErrBulkAddWhileSealed once
// Seal has run.
func (r *Router) AddBulk(entries []RouteEntry) ([]RouteKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.snapshot.Load() != nil {
		return nil, &SealedError{Op: "add_bulk", Count: len(entries), Err: ErrBulkAddWhileSealed}
	}
	keys, err := r.tree.InsertBulk(entries)
	if err != nil {
		return nil, err
	}
	r.metrics.recordRouteRegistered(int64(len(keys)))
	return keys, nil
}

// Seal finalizes the tree, builds the read-only snapshot, and switches the
// router into the lookup phase. The mutable tree's arena and interner are
// released; the snapshot is an independent deep copy. Sealing an already
// sealed router is a no-op.
func (r *Router) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.snapshot.Load() != nil {
		return
	}
	r.tree.Finalize()
	snap := newSnapshot(r.tree)
	r.tree.resetAfterSeal()
	r.snapshot.Store(snap)
}

// resetAfterSeal drops the build-phase allocations the snapshot does not
// reference.
func (t *Tree) resetAfterSeal() {
	t.arena.release()
	t.interner.reset()
	for m := range methodCount {
		t.staticFull[m] = nil
	}
	t.root = node{flags: flagSealed}
}

// Find looks up a route. Fails with ErrFindWhileMutable before Seal; after
// Seal it dispatches against the shared snapshot.
func (r *Router) Find(method Method, path string) (RouteMatch, error) {
	snap := r.snapshot.Load()
	if snap == nil {
		return RouteMatch{}, &SealedError{Op: "find", Path: path, Err: ErrFindWhileMutable}
	}
	return snap.Find(method, path)
}

// Snapshot returns the shared read-only snapshot. Fails with
// ErrSnapshotUnavailable before Seal.
func (r *Router) Snapshot() (*Snapshot, error) {
	snap := r.snapshot.Load()
	if snap == nil {
		return nil, &SealedError{Op: "snapshot", Err: ErrSnapshotUnavailable}
	}
	return snap, nil
}

// Sealed reports whether Seal has run.
func (r *Router) Sealed() bool {
	return r.snapshot.Load() != nil
}

// Stats reports the shape of the route index. After Seal the numbers
// describe the tree as it was at seal time.
func (r *Router) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	if snap := r.snapshot.Load(); snap != nil {
		return snap.stats
	}
	return r.tree.Stats()
}

// Metrics returns the engine's metrics configuration, or nil when metrics
// are disabled.
func (r *Router) Metrics() *MetricsConfig {
	return r.metrics
}
