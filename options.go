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

// defaultCacheCapacity bounds the route cache when WithRouteCache is used
// without an explicit capacity.
const defaultCacheCapacity = 256

// config is the engine configuration record. It is assembled by New from
// functional options and copied into the tree and, at seal, into the
// snapshot (the lookup path re-runs the normalizer with the same flags).
type config struct {
	caseSensitive       bool
	strictTrailingSlash bool
	decodePercent       bool
	allowDuplicateSlash bool

	enableRootPruning bool
	enableStaticFull  bool
	autoOptimize      bool

	cacheRoutes   bool
	cacheCapacity int

	mixedSegments bool

	diagnostics DiagnosticHandler
	metrics     *MetricsConfig
}

func defaultConfig() config {
	return config{
		caseSensitive: true,
		autoOptimize:  true,
		cacheCapacity: defaultCacheCapacity,
	}
}

// diag emits a diagnostic event when a handler is configured. Behavior is
// unchanged whether diagnostics are collected or not.
func (c *config) diag(kind DiagnosticKind, message string, fields map[string]any) {
	if c.diagnostics == nil {
		return
	}
	c.diagnostics.OnDiagnostic(DiagnosticEvent{Kind: kind, Message: message, Fields: fields})
}

// Option configures a Router.
type Option func(*config)

// WithCaseInsensitive lowercases ASCII letters during normalization, so
// "/Users" and "/users" register and match identically.
//
// Default: case sensitive.
func WithCaseInsensitive() Option {
	return func(c *config) {
		c.caseSensitive = false
	}
}

// WithStrictTrailingSlash makes a trailing '/' significant: "/users/" and
// "/users" are distinct routes.
//
// Default: trailing slashes are trimmed during normalization.
func WithStrictTrailingSlash() Option {
	return func(c *config) {
		c.strictTrailingSlash = true
	}
}

// WithPercentDecoding decodes %HH triples before validation, rejecting
// invalid triples and decoded control bytes.
//
// Default: '%' passes through verbatim.
func WithPercentDecoding() Option {
	return func(c *config) {
		c.decodePercent = true
	}
}

// WithDuplicateSlashes preserves runs of '/' instead of collapsing them.
// Duplicate slashes become significant everywhere, including at the end of
// the path, so "//" no longer matches "/".
//
// Default: "//" collapses to "/".
func WithDuplicateSlashes() Option {
	return func(c *config) {
		c.allowDuplicateSlash = true
	}
}

// WithRootLevelPruning forces the root first-byte bitmap and length-bucket
// checks before descent. Without this option the finalizer enables pruning
// automatically when the root has no parameter-first pattern and no wildcard
// terminal (unless automatic optimization is disabled).
func WithRootLevelPruning() Option {
	return func(c *config) {
		c.enableRootPruning = true
	}
}

// WithStaticRouteFullMapping forces the per-method full-path map for purely
// static routes. Without this option the finalizer builds the map
// automatically once the tree holds 50 or more terminal static routes
// (unless automatic optimization is disabled).
func WithStaticRouteFullMapping() Option {
	return func(c *config) {
		c.enableStaticFull = true
	}
}

// WithoutAutomaticOptimization stops the finalizer from toggling root-level
// pruning and the static full map on its own; only the explicit options
// above control them.
//
// Default: automatic optimization is enabled.
func WithoutAutomaticOptimization() Option {
	return func(c *config) {
		c.autoOptimize = false
	}
}

// WithRouteCache enables the bounded LRU route cache on the snapshot, keyed
// by (method, normalized path).
//
// Default: disabled. Capacity defaults to 256; see WithRouteCacheCapacity.
func WithRouteCache() Option {
	return func(c *config) {
		c.cacheRoutes = true
	}
}

// WithRouteCacheCapacity enables the route cache with the given entry bound.
// Values below 1 fall back to the default capacity.
func WithRouteCacheCapacity(capacity int) Option {
	return func(c *config) {
		c.cacheRoutes = true
		if capacity > 0 {
			c.cacheCapacity = capacity
		}
	}
}

// WithMixedSegmentSyntax enables the extended segment grammar, allowing
// literals and parameters interleaved within one segment ("file-:id.txt").
//
// Default: the minimal grammar, which rejects ':' anywhere but segment start.
func WithMixedSegmentSyntax() Option {
	return func(c *config) {
		c.mixedSegments = true
	}
}

// WithDiagnostics sets a diagnostic handler for the engine.
//
// Diagnostic events are optional informational events emitted at
// registration, seal, and lookup time. The engine functions correctly
// whether diagnostics are collected or not.
//
// Example with logging:
//
//	import "log/slog"
//
//	handler := routecore.DiagnosticHandlerFunc(func(e routecore.DiagnosticEvent) {
//	    slog.Info(e.Message, "kind", e.Kind, "fields", e.Fields)
//	})
//	r := routecore.New(routecore.WithDiagnostics(handler))
func WithDiagnostics(handler DiagnosticHandler) Option {
	return func(c *config) {
		c.diagnostics = handler
	}
}
