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

// Stats describes the shape of the route index.
type Stats struct {
	// Routes is the number of route keys assigned.
	Routes int
	// StaticRoutes counts terminals reachable through static children only.
	StaticRoutes int
	// Nodes is the number of tree vertices, root included.
	Nodes int
	// MaxDepth is the longest root-to-leaf chain, counting fused edges as
	// one vertex.
	MaxDepth int
	// Sealed reports whether Finalize has run.
	Sealed bool
}

// Stats walks the tree and reports its shape. Safe at any point of the build
// phase and after seal.
func (t *Tree) Stats() Stats {
	s := Stats{
		Routes:       int(t.nextKey),
		StaticRoutes: countStaticTerminals(&t.root),
		Sealed:       t.Sealed(),
	}
	s.Nodes, s.MaxDepth = measure(&t.root, 1)
	return s
}

func measure(n *node, depth int) (nodes, maxDepth int) {
	nodes = 1
	maxDepth = depth
	n.forEachChild(func(c *node) {
		cn, cd := measure(c, depth+1)
		nodes += cn
		if cd > maxDepth {
			maxDepth = cd
		}
	})
	return nodes, maxDepth
}
