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

// Package routecore is a high-performance HTTP route matching engine.
//
// The engine indexes URL path patterns during a mutable build phase, then
// transitions - via a one-way seal - into an immutable lookup phase where
// concurrent readers dispatch request paths in expected O(path length) time.
//
// # Lifecycle
//
// A Router moves through exactly two phases:
//
//	r := routecore.New()
//	key, _ := r.Add(routecore.MethodGet, "/users/:id")
//	r.Seal()
//	match, _ := r.Find(routecore.MethodGet, "/users/123")
//	// match.Key == key, match.Params == [{id 7 3}]
//
// Registration (Add, AddBulk) only works before Seal; lookup (Find,
// Snapshot) only works after. The transition is one-way: there is no
// unsealing, no route removal, and no mutation of a sealed router.
//
// # Patterns
//
// Paths are /-delimited. Each segment is a literal ("users"), a parameter
// (":id", capturing the whole segment), or the terminal wildcard ("*",
// capturing the rest of the path under the name "*"):
//
//	/health                 static
//	/users/:id/posts        one parameter
//	/files/*                wildcard tail
//
// WithMixedSegmentSyntax additionally allows literals and parameters
// interleaved within one segment ("file-:id.txt").
//
// When several patterns could match a segment, the most specific wins:
// patterns are scored at registration and tried in descending score order,
// static children always before patterns, patterns always before the
// wildcard.
//
// # Matching structure
//
// Routes live in a segment-level radix tree. Sealing compresses single-child
// chains into fused edges, builds per-node pattern indices, and - for trees
// with enough static routes - a per-method full-path map that answers purely
// static lookups with a single probe. Root-level first-byte and
// segment-length filters reject obvious misses before descent. All tuning is
// automatic by default; see the With* options to force individual features.
//
// # Concurrency
//
// The build phase is single-writer: Router serializes Add/AddBulk/Seal
// internally. After Seal the snapshot is immutable and Find is lock-free;
// the only exception is the optional route cache (WithRouteCache), which
// serializes through a reader-writer lock.
//
// # Observability
//
// WithDiagnostics receives structured events (route registered, tree sealed,
// cache evictions); WithMetrics publishes OpenTelemetry counters through a
// private Prometheus registry. Both are off by default and change no engine
// behavior.
package routecore
