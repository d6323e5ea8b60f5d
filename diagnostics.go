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

// DiagnosticEvent represents an engine diagnostic or anomaly.
//
// Diagnostic events are optional - the engine functions correctly whether
// they are collected or not. They provide visibility into registration and
// seal-time decisions for observability systems.
type DiagnosticEvent struct {
	Kind    DiagnosticKind
	Message string
	Fields  map[string]any // Structured context
}

// DiagnosticKind categorizes diagnostic events.
type DiagnosticKind string

const (
	// Registration diagnostics
	DiagRouteRegistered DiagnosticKind = "route_registered"
	DiagBulkCommitted   DiagnosticKind = "bulk_routes_committed"
	DiagHighParamCount  DiagnosticKind = "route_param_count_high"

	// Seal diagnostics
	DiagTreeSealed     DiagnosticKind = "tree_sealed"
	DiagStaticMapBuilt DiagnosticKind = "static_full_map_built"
	DiagPruningEnabled DiagnosticKind = "root_pruning_enabled"

	// Lookup diagnostics
	DiagCacheEviction DiagnosticKind = "route_cache_eviction"
)

// DiagnosticHandler receives diagnostic events from the engine.
// Implementations may log, emit metrics, trace events, or ignore them.
//
// This interface is optional - if not provided, diagnostics are silently
// dropped. The engine's behavior is unchanged whether diagnostics are
// collected or not.
type DiagnosticHandler interface {
	OnDiagnostic(DiagnosticEvent)
}

// DiagnosticHandlerFunc is a function adapter for DiagnosticHandler.
type DiagnosticHandlerFunc func(DiagnosticEvent)

func (f DiagnosticHandlerFunc) OnDiagnostic(e DiagnosticEvent) {
	f(e)
}
