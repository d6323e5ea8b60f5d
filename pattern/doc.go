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

// Package pattern implements the segment grammar used by the route matching
// engine: parsing a single /-delimited path segment into a typed sequence of
// literal and parameter parts, scoring patterns for most-specific-first
// ordering, and matching an input segment against a pattern to extract
// parameter captures.
//
// The minimal grammar accepts three segment shapes:
//
//   - "*"        the wildcard sentinel (legal only as the last path segment)
//   - ":ident"   a pure parameter; ident is [A-Za-z_][A-Za-z0-9_]*
//   - anything else is a pure literal; ':' anywhere but segment start and
//     '(' / ')' are rejected
//
// ParseSegmentMixed additionally accepts literals and parameters interleaved
// within one segment (e.g. "file-:id.txt"), which the matcher supports
// natively.
//
// The package has no dependencies on the tree; the engine composes these
// pieces the same way the route compiler composes pre-computed route
// metadata.
package pattern
