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

import "hash/fnv"

// bloomFilter provides negative lookups for the static full-path map: "not
// in the set" answers are exact, "maybe in the set" falls through to the
// map. Implementation uses FNV-1a with seed XOR for the k hash positions.
type bloomFilter struct {
	bits  []uint64
	size  uint64
	seeds []uint64
}

// newBloomFilter sizes the filter for the given bit count and hash function
// count. Size is clamped to a minimum of 64 bits.
func newBloomFilter(size uint64, numHashFuncs int) *bloomFilter {
	size = max(size, 64)
	bf := &bloomFilter{
		bits:  make([]uint64, (size+63)/64),
		size:  size,
		seeds: make([]uint64, numHashFuncs),
	}
	for i := range numHashFuncs {
		bf.seeds[i] = uint64(i + 1)
	}
	return bf
}

func bloomBaseHash(data string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(data))
	return h.Sum64()
}

func (bf *bloomFilter) add(data string) {
	base := bloomBaseHash(data)
	for _, seed := range bf.seeds {
		pos := (base ^ seed) % bf.size
		bf.bits[pos/64] |= 1 << (pos % 64)
	}
}

func (bf *bloomFilter) test(data string) bool {
	base := bloomBaseHash(data)
	for _, seed := range bf.seeds {
		pos := (base ^ seed) % bf.size
		if bf.bits[pos/64]&(1<<(pos%64)) == 0 {
			return false
		}
	}
	return true
}
