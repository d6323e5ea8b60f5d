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

// interner maps byte strings to stable dense uint32 IDs so that segment keys
// can be compared and ordered by integer. IDs are assigned first-come,
// first-served and never reused.
//
// Thread safety: the interner belongs to the mutable tree and is only
// touched during the single-writer build phase; the snapshot never sees it.
type interner struct {
	ids map[string]uint32
	rev []string
}

func newInterner() *interner {
	return &interner{ids: make(map[string]uint32, 64)}
}

// intern returns the ID for s, assigning the next dense ID on first sight.
func (in *interner) intern(s string) uint32 {
	if id, ok := in.ids[s]; ok {
		return id
	}
	id := uint32(len(in.rev))
	in.rev = append(in.rev, s)
	in.ids[s] = id
	return id
}

// reset drops all interned strings. Called after seal so the build-phase
// tables can be collected.
func (in *interner) reset() {
	in.ids = make(map[string]uint32)
	in.rev = nil
}
