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

import "strings"

// MaxSpanLength bounds a single parameter capture and any literal run within
// one segment. Segments exceeding it are rejected at registration and never
// match at lookup.
const MaxSpanLength = 255

// Capture records one bound parameter as a (name, offset, length) triple.
// Offsets from MatchSegment are relative to the segment; the engine rebases
// them to absolute positions in the normalized path.
type Capture struct {
	Name   string
	Offset int
	Length int
}

// MatchSegment matches seg against the pattern and appends the resulting
// parameter captures to out, returning the extended slice and whether the
// whole segment was consumed.
//
// Literal parts compare byte-exact. A parameter part spans up to the next
// literal part when one follows (located with a single-byte or substring
// scan), or to the end of the segment otherwise; the span must be non-empty
// and at most MaxSpanLength bytes. Segments are slash-free by construction,
// so the matcher never consumes '/'.
//
// On failure out is returned unchanged in length; callers use the original
// length as the backtrack checkpoint.
func MatchSegment(seg string, p Pattern, out []Capture) ([]Capture, bool) {
	mark := len(out)
	i := 0
	for idx := 0; idx < len(p.Parts); idx++ {
		part := p.Parts[idx]
		if part.Kind == KindLiteral {
			lit := part.Text
			if i+len(lit) > len(seg) || seg[i:i+len(lit)] != lit {
				return out[:mark], false
			}
			i += len(lit)
			continue
		}

		end := len(seg)
		if idx+1 < len(p.Parts) && p.Parts[idx+1].Kind == KindLiteral {
			next := p.Parts[idx+1].Text
			var pos int
			if len(next) == 1 {
				pos = strings.IndexByte(seg[i:], next[0])
			} else {
				pos = strings.Index(seg[i:], next)
			}
			if pos < 0 {
				return out[:mark], false
			}
			end = i + pos
		}
		if end == i || end-i > MaxSpanLength {
			return out[:mark], false
		}
		out = append(out, Capture{Name: part.Text, Offset: i, Length: end - i})
		i = end
	}
	if i != len(seg) {
		return out[:mark], false
	}
	return out, true
}
