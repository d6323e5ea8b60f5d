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

// arenaChunkSize is the number of nodes allocated per slab. Insert-heavy
// builds touch nodes in registration order, so slab locality helps the
// finalize walk.
const arenaChunkSize = 256

// arena bulk-allocates tree nodes from slabs owned by the mutable tree.
// Nodes never outlive the arena: seal deep-copies the reachable structure
// into the snapshot and then the whole arena is released at once.
//
// Thread safety: build phase is single-writer; the arena has no locks.
type arena struct {
	chunks [][]node
	used   int // nodes used in the last chunk
}

func newArena() *arena {
	return &arena{}
}

// newNode hands out a zeroed node from the current slab, growing by one slab
// when exhausted.
func (a *arena) newNode() *node {
	if len(a.chunks) == 0 || a.used == arenaChunkSize {
		a.chunks = append(a.chunks, make([]node, arenaChunkSize))
		a.used = 0
	}
	chunk := a.chunks[len(a.chunks)-1]
	n := &chunk[a.used]
	a.used++
	return n
}

// allocated reports the total number of nodes handed out.
func (a *arena) allocated() int {
	if len(a.chunks) == 0 {
		return 0
	}
	return (len(a.chunks)-1)*arenaChunkSize + a.used
}

// release drops all slabs.
func (a *arena) release() {
	a.chunks = nil
	a.used = 0
}
