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

import "strings"

// pcharAllowed reports whether b is legal in a path: the RFC 3986 pchar set
// plus '/' and '%'. Bytes at or below 0x20 and at or above 0x80 are handled
// by the caller before this table is consulted; 0x7f reaches the table and
// is rejected here.
func pcharAllowed(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	}
	switch b {
	case '-', '.', '_', '~', '!', '$', '&', '\'', '(', ')', '*', '+', ',', ';', '=', ':', '@', '/', '%':
		return true
	}
	return false
}

// decodePercent expands %HH triples in-place order. An incomplete triple or a
// non-hex digit is an error; decoded bytes go through the same validation as
// raw input, so decoded control bytes are rejected there.
func decodePercent(input string) (string, error) {
	if strings.IndexByte(input, '%') < 0 {
		return input, nil
	}
	var b strings.Builder
	b.Grow(len(input))
	for i := 0; i < len(input); {
		if input[i] != '%' {
			b.WriteByte(input[i])
			i++
			continue
		}
		if i+2 >= len(input) {
			return "", &PathError{Input: input, Index: i, Err: ErrInvalidPercentEncoding}
		}
		hi, okHi := hexVal(input[i+1])
		lo, okLo := hexVal(input[i+2])
		if !okHi || !okLo {
			return "", &PathError{Input: input, Index: i, Err: ErrInvalidPercentEncoding}
		}
		b.WriteByte(hi<<4 | lo)
		i += 3
	}
	return b.String(), nil
}

func hexVal(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	}
	return 0, false
}

// validatePathBytes runs the character rules against candidate, reporting
// errors in terms of the caller's original input.
func validatePathBytes(candidate, original string) error {
	if candidate == "" {
		return &PathError{Input: original, Err: ErrEmptyPath}
	}
	for i := 0; i < len(candidate); i++ {
		b := candidate[i]
		if b >= 0x80 {
			return &PathError{Input: original, Index: i, Byte: b, Err: ErrNonASCIIPath}
		}
		if b <= 0x20 {
			return &PathError{Input: original, Index: i, Byte: b, Err: ErrControlOrWhitespace}
		}
		if !pcharAllowed(b) {
			return &PathError{Input: original, Index: i, Byte: b, Err: ErrDisallowedCharacter}
		}
	}
	return nil
}

// collapseDuplicateSlashes rewrites runs of '/' to a single '/'.
func collapseDuplicateSlashes(s string) string {
	if !strings.Contains(s, "//") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	prevSlash := false
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			if prevSlash {
				continue
			}
			prevSlash = true
		} else {
			prevSlash = false
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// trimTrailingSlashes removes trailing '/' bytes but never empties the path:
// "///" normalizes to "/".
func trimTrailingSlashes(s string) string {
	end := len(s)
	for end > 1 && s[end-1] == '/' {
		end--
	}
	return s[:end]
}

// containsParentTraversal reports whether any /-delimited segment is the
// literal "..".
func containsParentTraversal(s string) bool {
	for rest := s; rest != ""; {
		var seg string
		if idx := strings.IndexByte(rest, '/'); idx >= 0 {
			seg, rest = rest[:idx], rest[idx+1:]
		} else {
			seg, rest = rest, ""
		}
		if seg == ".." {
			return true
		}
	}
	return false
}

// normalizePath validates and canonicalizes a raw path according to the
// configured flags. The same function runs at registration and at lookup, so
// both phases agree byte-for-byte on the canonical form.
//
// Order of operations: optional percent-decoding, optional ASCII
// case-folding, character validation, duplicate-slash collapsing (unless
// duplicates are significant), trailing-slash trimming (unless trailing
// slashes are significant — which they also are whenever duplicate slashes
// are preserved, since a trailing run is a duplicate), and finally the
// parent-traversal check.
func normalizePath(path string, cfg *config) (string, error) {
	working := path
	if cfg.decodePercent {
		decoded, err := decodePercent(path)
		if err != nil {
			return "", err
		}
		working = decoded
	}
	if !cfg.caseSensitive {
		working = strings.ToLower(working)
	}

	if err := validatePathBytes(working, path); err != nil {
		return "", err
	}

	normalized := working
	if !cfg.allowDuplicateSlash {
		normalized = collapseDuplicateSlashes(normalized)
	}
	if !cfg.strictTrailingSlash && !cfg.allowDuplicateSlash {
		normalized = trimTrailingSlashes(normalized)
	}
	if normalized == "" {
		return "", &PathError{Input: path, Err: ErrEmptyPath}
	}
	if containsParentTraversal(normalized) {
		return "", &PathError{Input: path, Err: ErrInvalidParentTraversal}
	}
	return normalized, nil
}
