// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cutefs

// MaxNameLength is the longest name, in bytes, a single path
// component may have.
const MaxNameLength = 31

// outcome classifies how a path component ended.
type outcome int

const (
	// outcomeEnd: the component is the last one in the path.
	outcomeEnd outcome = iota
	// outcomeSubdir: the component was followed by a separator and
	// more components remain.
	outcomeSubdir
	// outcomeFail: the component contained a disallowed byte or was
	// too long.
	outcomeFail
)

// nameByteAllowed reports whether b may appear in a name. Bytes at or
// below space and '/' are terminators and never reach this check.
func nameByteAllowed(b byte) bool {
	switch {
	case b >= 0x7F:
		return true
	case b == '"':
		return false
	case b >= '!' && b <= ')':
		return true
	case b >= '*' && b <= ',':
		return false
	case b >= '-' && b <= '9':
		return true
	case b >= ':' && b <= '?':
		return false
	case b == '|':
		return false
	case b >= '[' && b <= ']':
		return false
	default:
		return true
	}
}

// skipSeparators drops leading separators and spaces.
func skipSeparators(path string) string {
	i := 0
	for i < len(path) && (path[i] == '/' || path[i] == ' ') {
		i++
	}
	return path[i:]
}

// splitComponent parses the next component of path. It returns the
// component name, the unparsed remainder (meaningful only for
// outcomeSubdir), and how the component ended.
//
// A byte at or below space ends the whole path. Names longer than
// MaxNameLength are scanned to their terminator and then failed.
// An empty name with outcomeEnd means the path had no components left.
func splitComponent(path string) (name, rest string, result outcome) {
	path = skipSeparators(path)

	length := 0
	for length < len(path) {
		b := path[length]
		if b <= ' ' {
			break
		}
		if b == '/' {
			name = path[:length]
			if length > MaxNameLength {
				return "", "", outcomeFail
			}
			next := skipSeparators(path[length:])
			if next == "" || next[0] <= ' ' {
				return name, "", outcomeEnd
			}
			return name, next, outcomeSubdir
		}
		if !nameByteAllowed(b) {
			return "", "", outcomeFail
		}
		length++
	}

	if length > MaxNameLength {
		return "", "", outcomeFail
	}
	return path[:length], "", outcomeEnd
}

// traceResult is the outcome of resolving a path against the tree.
type traceResult struct {
	// found is the entry the path names, or nil.
	found *entry

	// parent is the insertion parent: the directory in which the
	// final component would be created. Set only when found is nil.
	parent *entry

	// leaf is the final component name. Empty when the path names
	// the root.
	leaf string
}

// tracePath walks path from root.
//
// A path naming an existing entry returns it in found. A path whose
// only missing component is the last one returns the directory that
// would hold it in parent. Every other path fails: ErrPathSyntax for a
// malformed path, ErrNotDirectory when a file appears before the last
// component, ErrNotFound when an intermediate directory is missing.
func tracePath(root *entry, path string) (traceResult, error) {
	if path != "" && path[0] < ' ' {
		return traceResult{}, ErrPathSyntax
	}

	directory := root
	rest := path
	for {
		name, next, result := splitComponent(rest)
		if result == outcomeFail {
			return traceResult{}, ErrPathSyntax
		}
		if name == "" {
			return traceResult{found: directory}, nil
		}

		child := directory.child(name)
		if child == nil {
			if result == outcomeEnd {
				return traceResult{parent: directory, leaf: name}, nil
			}
			return traceResult{}, ErrNotFound
		}
		if result == outcomeEnd {
			return traceResult{found: child, leaf: name}, nil
		}
		if !child.isDir() {
			return traceResult{}, ErrNotDirectory
		}
		directory = child
		rest = next
	}
}
