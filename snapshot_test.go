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
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sealRouter(t *testing.T, opts []Option, routes ...RouteEntry) *Router {
	t.Helper()
	r := New(opts...)
	for _, e := range routes {
		_, err := r.Add(e.Method, e.Path)
		require.NoError(t, err, "route %s %s", e.Method, e.Path)
	}
	r.Seal()
	return r
}

func TestFindStaticRoute(t *testing.T) {
	t.Parallel()

	r := sealRouter(t, nil, RouteEntry{MethodGet, "/hello"})

	match, err := r.Find(MethodGet, "/hello")
	require.NoError(t, err)
	assert.Equal(t, RouteKey(0), match.Key)
	assert.Empty(t, match.Params)

	_, err = r.Find(MethodPost, "/hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRouteNotFound)
}

func TestFindParameterCapture(t *testing.T) {
	t.Parallel()

	r := sealRouter(t, nil, RouteEntry{MethodGet, "/users/:id/profile"})

	match, err := r.Find(MethodGet, "/users/123/profile")
	require.NoError(t, err)
	assert.Equal(t, RouteKey(0), match.Key)
	require.Len(t, match.Params, 1)
	assert.Equal(t, Capture{Name: "id", Offset: 7, Length: 3}, match.Params[0])

	// Duplicate slashes collapse before matching; the two-segment result
	// does not reach the three-segment route.
	_, err = r.Find(MethodGet, "/users//profile")
	assert.ErrorIs(t, err, ErrRouteNotFound)
}

func TestFindAfterParamConflict(t *testing.T) {
	t.Parallel()

	r := New()
	key, err := r.Add(MethodGet, "/users/:id")
	require.NoError(t, err)
	require.Equal(t, RouteKey(0), key)

	// The conflicting name is rejected and the first pattern is untouched.
	_, err = r.Add(MethodGet, "/users/:name")
	require.ErrorIs(t, err, ErrParamNameConflict)
	r.Seal()

	match, err := r.Find(MethodGet, "/users/42")
	require.NoError(t, err)
	assert.Equal(t, RouteKey(0), match.Key)
	require.Len(t, match.Params, 1)
	assert.Equal(t, Capture{Name: "id", Offset: 7, Length: 2}, match.Params[0])
}

func TestFindWildcardCapture(t *testing.T) {
	t.Parallel()

	r := sealRouter(t, nil, RouteEntry{MethodGet, "/files/*"})

	match, err := r.Find(MethodGet, "/files/media/images/logo.png")
	require.NoError(t, err)
	assert.Equal(t, RouteKey(0), match.Key)
	require.Len(t, match.Params, 1)
	tail := match.Params[0]
	assert.Equal(t, "*", tail.Name)
	assert.Equal(t, 7, tail.Offset)
	assert.Equal(t, 21, tail.Length)
	assert.Equal(t, "media/images/logo.png", "/files/media/images/logo.png"[tail.Offset:tail.Offset+tail.Length])
}

func TestFindRootPath(t *testing.T) {
	t.Parallel()

	r := sealRouter(t, nil, RouteEntry{MethodGet, "/"})

	match, err := r.Find(MethodGet, "/")
	require.NoError(t, err)
	assert.Equal(t, RouteKey(0), match.Key)
	assert.Empty(t, match.Params)

	// "//" normalizes to "/" by default.
	match, err = r.Find(MethodGet, "//")
	require.NoError(t, err)
	assert.Equal(t, RouteKey(0), match.Key)

	_, err = r.Find(MethodGet, "/anything")
	assert.ErrorIs(t, err, ErrRouteNotFound)
}

func TestFindRootPathDuplicateSlashes(t *testing.T) {
	t.Parallel()

	r := sealRouter(t, []Option{WithDuplicateSlashes()}, RouteEntry{MethodGet, "/"})

	// With duplicate slashes significant, "//" is not "/".
	_, err := r.Find(MethodGet, "//")
	assert.ErrorIs(t, err, ErrRouteNotFound)

	match, err := r.Find(MethodGet, "/")
	require.NoError(t, err)
	assert.Equal(t, RouteKey(0), match.Key)
}

func TestFindRootWildcard(t *testing.T) {
	t.Parallel()

	r := sealRouter(t, nil, RouteEntry{MethodGet, "/*"})

	match, err := r.Find(MethodGet, "/any/depth/of/path")
	require.NoError(t, err)
	assert.Equal(t, RouteKey(0), match.Key)
	require.Len(t, match.Params, 1)
	assert.Equal(t, Capture{Name: "*", Offset: 1, Length: 17}, match.Params[0])
}

func TestFindStaticBeatsParameter(t *testing.T) {
	t.Parallel()

	r := sealRouter(t, nil,
		RouteEntry{MethodGet, "/users/all"},
		RouteEntry{MethodGet, "/users/:id"},
	)

	match, err := r.Find(MethodGet, "/users/all")
	require.NoError(t, err)
	assert.Equal(t, RouteKey(0), match.Key)
	assert.Empty(t, match.Params)

	match, err = r.Find(MethodGet, "/users/42")
	require.NoError(t, err)
	assert.Equal(t, RouteKey(1), match.Key)
}

func TestFindParameterBeatsWildcard(t *testing.T) {
	t.Parallel()

	r := sealRouter(t, nil,
		RouteEntry{MethodGet, "/files/:name"},
		RouteEntry{MethodGet, "/files/*"},
	)

	// One segment: the parameter wins.
	match, err := r.Find(MethodGet, "/files/readme")
	require.NoError(t, err)
	assert.Equal(t, RouteKey(0), match.Key)

	// Two segments: only the wildcard can match.
	match, err = r.Find(MethodGet, "/files/a/b")
	require.NoError(t, err)
	assert.Equal(t, RouteKey(1), match.Key)
}

func TestFindMostSpecificPatternWins(t *testing.T) {
	t.Parallel()

	r := sealRouter(t, []Option{WithMixedSegmentSyntax()},
		RouteEntry{MethodGet, "/d/:rest"},
		RouteEntry{MethodGet, "/d/file-:id"},
	)

	// Both match "file-7"; the higher-scored literal-first pattern wins.
	match, err := r.Find(MethodGet, "/d/file-7")
	require.NoError(t, err)
	assert.Equal(t, RouteKey(1), match.Key)
	require.Len(t, match.Params, 1)
	assert.Equal(t, "id", match.Params[0].Name)

	match, err = r.Find(MethodGet, "/d/other")
	require.NoError(t, err)
	assert.Equal(t, RouteKey(0), match.Key)
	assert.Equal(t, "rest", match.Params[0].Name)
}

func TestFindBacktracksAcrossPatterns(t *testing.T) {
	t.Parallel()

	// The first pattern matches the segment but its subtree cannot finish
	// the path; the matcher must drop its captures and try the next.
	r := sealRouter(t, []Option{WithMixedSegmentSyntax()},
		RouteEntry{MethodGet, "/x/v:num/deep"},
		RouteEntry{MethodGet, "/x/:any/flat"},
	)

	match, err := r.Find(MethodGet, "/x/v1/flat")
	require.NoError(t, err)
	assert.Equal(t, RouteKey(1), match.Key)
	require.Len(t, match.Params, 1)
	assert.Equal(t, "any", match.Params[0].Name)
	assert.Equal(t, 3, match.Params[0].Offset)
	assert.Equal(t, 2, match.Params[0].Length)
}

func TestFindFusedEdgeBoundaries(t *testing.T) {
	t.Parallel()

	r := sealRouter(t, nil, RouteEntry{MethodGet, "/api/v1/users"})

	match, err := r.Find(MethodGet, "/api/v1/users")
	require.NoError(t, err)
	assert.Equal(t, RouteKey(0), match.Key)

	// Prefixes of the fused edge do not match.
	_, err = r.Find(MethodGet, "/api/v1")
	assert.ErrorIs(t, err, ErrRouteNotFound)
	// Nor does a segment that merely extends the edge text.
	_, err = r.Find(MethodGet, "/api/v1/users2")
	assert.ErrorIs(t, err, ErrRouteNotFound)
	_, err = r.Find(MethodGet, "/api/v1/users/extra")
	assert.ErrorIs(t, err, ErrRouteNotFound)
}

func TestFindStrictTrailingSlash(t *testing.T) {
	t.Parallel()

	r := sealRouter(t, []Option{WithStrictTrailingSlash()},
		RouteEntry{MethodGet, "/users"},
		RouteEntry{MethodGet, "/users/"},
	)

	match, err := r.Find(MethodGet, "/users")
	require.NoError(t, err)
	assert.Equal(t, RouteKey(0), match.Key)

	match, err = r.Find(MethodGet, "/users/")
	require.NoError(t, err)
	assert.Equal(t, RouteKey(1), match.Key)
}

func TestFindStrictTrailingSlashNoFallback(t *testing.T) {
	t.Parallel()

	r := sealRouter(t, []Option{WithStrictTrailingSlash()},
		RouteEntry{MethodGet, "/users"},
	)

	_, err := r.Find(MethodGet, "/users/")
	assert.ErrorIs(t, err, ErrRouteNotFound)

	// The root path is not caught by the trailing-slash rule; with no route
	// registered at "/" it is simply not found.
	_, err = r.Find(MethodGet, "/")
	assert.ErrorIs(t, err, ErrRouteNotFound)
}

func TestFindMethodIsolation(t *testing.T) {
	t.Parallel()

	r := sealRouter(t, nil,
		RouteEntry{MethodGet, "/res"},
		RouteEntry{MethodPost, "/res"},
		RouteEntry{MethodDelete, "/res/:id"},
	)

	get, err := r.Find(MethodGet, "/res")
	require.NoError(t, err)
	post, err := r.Find(MethodPost, "/res")
	require.NoError(t, err)
	assert.NotEqual(t, get.Key, post.Key)

	_, err = r.Find(MethodPut, "/res")
	assert.ErrorIs(t, err, ErrRouteNotFound)
}

func TestFindInvalidPathSurfacesNormalizerError(t *testing.T) {
	t.Parallel()

	r := sealRouter(t, nil, RouteEntry{MethodGet, "/a"})

	_, err := r.Find(MethodGet, "/a b")
	assert.ErrorIs(t, err, ErrControlOrWhitespace)
	_, err = r.Find(MethodGet, "")
	assert.ErrorIs(t, err, ErrEmptyPath)
	_, err = r.Find(MethodGet, "/../etc")
	assert.ErrorIs(t, err, ErrInvalidParentTraversal)
}

func TestFindWithStaticFullMap(t *testing.T) {
	t.Parallel()

	// Force the map and verify static lookups short-circuit through it.
	r := New(WithStaticRouteFullMapping())
	for i := range 60 {
		_, err := r.Add(MethodGet, fmt.Sprintf("/route/%d", i))
		require.NoError(t, err)
	}
	r.Seal()

	snap, err := r.Snapshot()
	require.NoError(t, err)
	require.NotNil(t, snap.staticTables[MethodGet])

	match, err := r.Find(MethodGet, "/route/33")
	require.NoError(t, err)
	assert.Equal(t, RouteKey(33), match.Key)
	assert.Empty(t, match.Params)

	_, err = r.Find(MethodGet, "/route/99")
	assert.ErrorIs(t, err, ErrRouteNotFound)
}

func TestFindWithRootPruning(t *testing.T) {
	t.Parallel()

	r := sealRouter(t, []Option{WithRootLevelPruning()},
		RouteEntry{MethodGet, "/users/:id"},
		RouteEntry{MethodGet, "/health"},
	)

	// Matching still works with pruning active.
	match, err := r.Find(MethodGet, "/users/9")
	require.NoError(t, err)
	assert.Equal(t, RouteKey(0), match.Key)

	// A first byte no route starts with is pruned to a miss.
	_, err = r.Find(MethodGet, "/zzz")
	assert.ErrorIs(t, err, ErrRouteNotFound)

	// A first-segment length no route can produce is pruned too.
	_, err = r.Find(MethodGet, "/userssssss/9")
	assert.ErrorIs(t, err, ErrRouteNotFound)
}

func TestFindEmptyWildcardTail(t *testing.T) {
	t.Parallel()

	r := sealRouter(t, nil, RouteEntry{MethodGet, "/files/*"})

	// "/files" arrives at the wildcard node with nothing left to capture:
	// the wildcard terminal matches with no "*" capture.
	match, err := r.Find(MethodGet, "/files")
	require.NoError(t, err)
	assert.Equal(t, RouteKey(0), match.Key)
	assert.Empty(t, match.Params)
}

func TestSnapshotIndependentOfTree(t *testing.T) {
	t.Parallel()

	r := sealRouter(t, nil,
		RouteEntry{MethodGet, "/a/b/c"},
		RouteEntry{MethodGet, "/a/:id/c"},
	)

	snap, err := r.Snapshot()
	require.NoError(t, err)

	// The router's tree was reset at seal; the snapshot keeps matching.
	match, err := snap.Find(MethodGet, "/a/b/c")
	require.NoError(t, err)
	assert.Equal(t, RouteKey(0), match.Key)
	match, err = snap.Find(MethodGet, "/a/42/c")
	require.NoError(t, err)
	assert.Equal(t, RouteKey(1), match.Key)
}

func TestConcurrentFinds(t *testing.T) {
	t.Parallel()

	entries := make([]RouteEntry, 0, 128)
	for i := range 64 {
		entries = append(entries,
			RouteEntry{MethodGet, fmt.Sprintf("/static/%d", i)},
			RouteEntry{MethodGet, fmt.Sprintf("/dyn%d/:id", i)},
		)
	}
	r := New()
	keys, err := r.AddBulk(entries)
	require.NoError(t, err)
	r.Seal()

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 64 {
				match, err := r.Find(MethodGet, fmt.Sprintf("/static/%d", i))
				assert.NoError(t, err)
				assert.Equal(t, keys[i*2], match.Key)

				match, err = r.Find(MethodGet, fmt.Sprintf("/dyn%d/%d", i, w))
				assert.NoError(t, err)
				assert.Equal(t, keys[i*2+1], match.Key)
			}
		}()
	}
	wg.Wait()
}

func TestCaptureSpansInBounds(t *testing.T) {
	t.Parallel()

	r := sealRouter(t, nil,
		RouteEntry{MethodGet, "/a/:p1/b/:p2/*"},
	)

	path := "/a/xx/b/yyy/tail/more"
	match, err := r.Find(MethodGet, path)
	require.NoError(t, err)
	require.Len(t, match.Params, 3)
	for _, c := range match.Params {
		assert.LessOrEqual(t, c.Offset+c.Length, len(path))
		assert.Positive(t, c.Length)
	}
	assert.Equal(t, "xx", path[match.Params[0].Offset:match.Params[0].Offset+match.Params[0].Length])
	assert.Equal(t, "yyy", path[match.Params[1].Offset:match.Params[1].Offset+match.Params[1].Length])
	assert.Equal(t, "tail/more", path[match.Params[2].Offset:match.Params[2].Offset+match.Params[2].Length])
}
