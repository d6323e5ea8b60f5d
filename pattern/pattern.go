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

// Kind discriminates the two part variants. The matcher switches on it;
// there is no open subtyping.
type Kind uint8

const (
	// KindLiteral is a byte-exact text part.
	KindLiteral Kind = iota
	// KindParam is a named parameter capturing a non-empty span.
	KindParam
)

// Part is one element of a segment pattern: either a literal byte sequence
// or a named parameter. Text holds the literal text for KindLiteral and the
// parameter name for KindParam.
type Part struct {
	Kind Kind
	Text string
}

// Pattern is the parsed form of one /-delimited path segment: an ordered
// sequence of literal and parameter parts. Equality is structural over Parts.
type Pattern struct {
	Parts []Part
}

// Equal reports whether two patterns have identical part sequences.
func (p Pattern) Equal(o Pattern) bool {
	if len(p.Parts) != len(o.Parts) {
		return false
	}
	for i := range p.Parts {
		if p.Parts[i] != o.Parts[i] {
			return false
		}
	}
	return true
}

// IsWildcard reports whether the pattern is the wildcard sentinel: a single
// literal part whose text is exactly "*".
func (p Pattern) IsWildcard() bool {
	return len(p.Parts) == 1 && p.Parts[0].Kind == KindLiteral && p.Parts[0].Text == "*"
}

// PureStatic returns the literal text and true when the pattern consists of
// exactly one literal part (and is not the wildcard sentinel).
func (p Pattern) PureStatic() (string, bool) {
	if len(p.Parts) == 1 && p.Parts[0].Kind == KindLiteral && p.Parts[0].Text != "*" {
		return p.Parts[0].Text, true
	}
	return "", false
}

// MinLiteralLen is the sum of the byte lengths of all literal parts: the
// minimum number of bytes any matching segment must contain from literals.
func (p Pattern) MinLiteralLen() int {
	n := 0
	for _, part := range p.Parts {
		if part.Kind == KindLiteral {
			n += len(part.Text)
		}
	}
	return n
}

// LastLiteralLen is the byte length of the last literal part, or 0 when the
// pattern ends in parameters only.
func (p Pattern) LastLiteralLen() int {
	for i := len(p.Parts) - 1; i >= 0; i-- {
		if p.Parts[i].Kind == KindLiteral {
			return len(p.Parts[i].Text)
		}
	}
	return 0
}

// ParamCount returns the number of parameter parts.
func (p Pattern) ParamCount() int {
	n := 0
	for _, part := range p.Parts {
		if part.Kind == KindParam {
			n++
		}
	}
	return n
}

// String reconstructs the source form of the pattern (":name" for parameter
// parts, literal text otherwise).
func (p Pattern) String() string {
	var b strings.Builder
	for _, part := range p.Parts {
		if part.Kind == KindParam {
			b.WriteByte(':')
		}
		b.WriteString(part.Text)
	}
	return b.String()
}

// Compatible reports whether two patterns may coexist at the same tree node.
// Patterns of different lengths never conflict. Same-length patterns conflict
// only when a parameter part at some position carries a different name in
// each pattern; literal-vs-literal and literal-vs-parameter at the same
// position are allowed.
func Compatible(a, b Pattern) bool {
	if len(a.Parts) != len(b.Parts) {
		return true
	}
	for i := range a.Parts {
		pa, pb := a.Parts[i], b.Parts[i]
		if pa.Kind == KindParam && pb.Kind == KindParam && pa.Text != pb.Text {
			return false
		}
	}
	return true
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentByte(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}

// validateParamName checks the identifier rules for a parameter name.
func validateParamName(seg, name string) error {
	if name == "" {
		return &ParseError{Segment: seg, Err: ErrParameterMissingName}
	}
	if !isIdentStart(name[0]) {
		return &ParseError{Segment: seg, Name: name, Char: name[0], Err: ErrParameterInvalidStart}
	}
	for i := 1; i < len(name); i++ {
		if !isIdentByte(name[i]) {
			return &ParseError{Segment: seg, Name: name[:i], Char: name[i], Err: ErrParameterInvalidCharacter}
		}
	}
	return nil
}

// ParseSegment parses one segment under the minimal grammar.
//
// A segment that is exactly "*" parses as the wildcard sentinel (the caller
// enforces terminal position). A segment starting with ':' is a pure
// parameter and must be a valid identifier to its end. Segments containing
// '(' or ')' are rejected; any other ':' placement is rejected. Everything
// else is a pure literal, including the empty string (which only the engine's
// duplicate-slash mode produces).
func ParseSegment(seg string) (Pattern, error) {
	if strings.IndexByte(seg, '(') >= 0 || strings.IndexByte(seg, ')') >= 0 {
		return Pattern{}, &ParseError{Segment: seg, Err: ErrParenthesisNotAllowed}
	}
	if len(seg) > 0 && seg[0] == ':' {
		name := seg[1:]
		if err := validateParamName(seg, name); err != nil {
			return Pattern{}, err
		}
		return Pattern{Parts: []Part{{Kind: KindParam, Text: name}}}, nil
	}
	if strings.IndexByte(seg, ':') >= 0 {
		return Pattern{}, &ParseError{Segment: seg, Err: ErrMixedParameterLiteralSyntax}
	}
	return Pattern{Parts: []Part{{Kind: KindLiteral, Text: seg}}}, nil
}

// ParseSegmentMixed parses one segment under the extended grammar, allowing
// literals and parameters interleaved within the segment ("file-:id.txt").
// A ':' introduces a parameter that runs while identifier bytes continue;
// the remainder resumes as literal text. Parenthesis are still rejected, and
// the wildcard sentinel behaves as in ParseSegment.
func ParseSegmentMixed(seg string) (Pattern, error) {
	if strings.IndexByte(seg, '(') >= 0 || strings.IndexByte(seg, ')') >= 0 {
		return Pattern{}, &ParseError{Segment: seg, Err: ErrParenthesisNotAllowed}
	}
	if strings.IndexByte(seg, ':') < 0 {
		return Pattern{Parts: []Part{{Kind: KindLiteral, Text: seg}}}, nil
	}

	var parts []Part
	i := 0
	for i < len(seg) {
		if seg[i] == ':' {
			j := i + 1
			for j < len(seg) && isIdentByte(seg[j]) {
				j++
			}
			name := seg[i+1 : j]
			if err := validateParamName(seg, name); err != nil {
				return Pattern{}, err
			}
			parts = append(parts, Part{Kind: KindParam, Text: name})
			i = j
			continue
		}
		j := i
		for j < len(seg) && seg[j] != ':' {
			j++
		}
		parts = append(parts, Part{Kind: KindLiteral, Text: seg[i:j]})
		i = j
	}
	return Pattern{Parts: parts}, nil
}
