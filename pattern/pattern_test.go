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

package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSegment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		segment string
		want    Pattern
		wantErr error
	}{
		{
			name:    "pure literal",
			segment: "users",
			want:    Pattern{Parts: []Part{{Kind: KindLiteral, Text: "users"}}},
		},
		{
			name:    "wildcard sentinel",
			segment: "*",
			want:    Pattern{Parts: []Part{{Kind: KindLiteral, Text: "*"}}},
		},
		{
			name:    "pure parameter",
			segment: ":id",
			want:    Pattern{Parts: []Part{{Kind: KindParam, Text: "id"}}},
		},
		{
			name:    "parameter with underscore",
			segment: ":post_id",
			want:    Pattern{Parts: []Part{{Kind: KindParam, Text: "post_id"}}},
		},
		{
			name:    "parameter leading underscore",
			segment: ":_private",
			want:    Pattern{Parts: []Part{{Kind: KindParam, Text: "_private"}}},
		},
		{
			name:    "empty segment is an empty literal",
			segment: "",
			want:    Pattern{Parts: []Part{{Kind: KindLiteral, Text: ""}}},
		},
		{
			name:    "parameter missing name",
			segment: ":",
			wantErr: ErrParameterMissingName,
		},
		{
			name:    "parameter starts with digit",
			segment: ":1abc",
			wantErr: ErrParameterInvalidStart,
		},
		{
			name:    "parameter invalid character",
			segment: ":ab-cd",
			wantErr: ErrParameterInvalidCharacter,
		},
		{
			name:    "open parenthesis rejected",
			segment: "a(b",
			wantErr: ErrParenthesisNotAllowed,
		},
		{
			name:    "close parenthesis rejected",
			segment: ":id)",
			wantErr: ErrParenthesisNotAllowed,
		},
		{
			name:    "mixed syntax rejected by minimal parser",
			segment: "file-:id",
			wantErr: ErrMixedParameterLiteralSyntax,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseSegment(tt.segment)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}

func TestParseSegmentMixed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		segment string
		want    Pattern
		wantErr error
	}{
		{
			name:    "literal parameter literal",
			segment: "file-:id.txt",
			want: Pattern{Parts: []Part{
				{Kind: KindLiteral, Text: "file-"},
				{Kind: KindParam, Text: "id"},
				{Kind: KindLiteral, Text: ".txt"},
			}},
		},
		{
			name:    "two parameters with separator",
			segment: ":major.:minor",
			want: Pattern{Parts: []Part{
				{Kind: KindParam, Text: "major"},
				{Kind: KindLiteral, Text: "."},
				{Kind: KindParam, Text: "minor"},
			}},
		},
		{
			name:    "trailing parameter",
			segment: "v:version",
			want: Pattern{Parts: []Part{
				{Kind: KindLiteral, Text: "v"},
				{Kind: KindParam, Text: "version"},
			}},
		},
		{
			name:    "plain literal passes through",
			segment: "archive.tar.gz",
			want:    Pattern{Parts: []Part{{Kind: KindLiteral, Text: "archive.tar.gz"}}},
		},
		{
			name:    "colon with no name",
			segment: "file-:.txt",
			wantErr: ErrParameterMissingName,
		},
		{
			name:    "parenthesis still rejected",
			segment: ":id(\\d+)",
			wantErr: ErrParenthesisNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseSegmentMixed(tt.segment)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}

func TestPatternPredicates(t *testing.T) {
	t.Parallel()

	wild, err := ParseSegment("*")
	require.NoError(t, err)
	assert.True(t, wild.IsWildcard())

	lit, err := ParseSegment("users")
	require.NoError(t, err)
	assert.False(t, lit.IsWildcard())
	text, ok := lit.PureStatic()
	assert.True(t, ok)
	assert.Equal(t, "users", text)

	param, err := ParseSegment(":id")
	require.NoError(t, err)
	_, ok = param.PureStatic()
	assert.False(t, ok)
	assert.Equal(t, 1, param.ParamCount())
	assert.Equal(t, 0, param.MinLiteralLen())

	mixed, err := ParseSegmentMixed("file-:id.txt")
	require.NoError(t, err)
	assert.Equal(t, 9, mixed.MinLiteralLen())
	assert.Equal(t, 4, mixed.LastLiteralLen())
	assert.Equal(t, "file-:id.txt", mixed.String())
}

func TestCompatible(t *testing.T) {
	t.Parallel()

	parse := func(seg string) Pattern {
		p, err := ParseSegmentMixed(seg)
		require.NoError(t, err)
		return p
	}

	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"same parameter name", ":id", ":id", true},
		{"different parameter names", ":id", ":name", false},
		{"different lengths never conflict", ":id", "file-:id", true},
		{"literal vs parameter at same position", "file-:id", ":dir-", true},
		{"same-position parameter disagreement", "a-:x", "b-:y", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Compatible(parse(tt.a), parse(tt.b)))
		})
	}
}
