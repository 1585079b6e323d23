// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cutefs

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bureau-foundation/cutefs/lib/blockdev"
)

// FileType distinguishes files from directories.
type FileType uint8

const (
	TypeFile FileType = iota + 1
	TypeDirectory
)

func (t FileType) String() string {
	switch t {
	case TypeFile:
		return "file"
	case TypeDirectory:
		return "directory"
	default:
		return fmt.Sprintf("unknown(%d)", t)
	}
}

// entry is one node of the tree. Directories own children; files own
// blocks. Both slices are exclusively owned by the entry.
type entry struct {
	name     string
	kind     FileType
	size     int64
	refCount int
	parent   *entry
	children []*entry
	blocks   []blockdev.BlockID
}

func (e *entry) isDir() bool {
	return e.kind == TypeDirectory
}

// child returns the direct child called name, or nil.
func (e *entry) child(name string) *entry {
	for _, child := range e.children {
		if child.name == name {
			return child
		}
	}
	return nil
}

// isAncestorOf reports whether e is other or one of other's parents.
func (e *entry) isAncestorOf(other *entry) bool {
	for node := other; node != nil; node = node.parent {
		if node == e {
			return true
		}
	}
	return false
}

// newEntry creates an empty entry of the given kind and appends it to
// parent's children. The caller has already checked that the name is
// free in parent.
func newEntry(parent *entry, name string, kind FileType) (*entry, error) {
	if parent == nil || !parent.isDir() {
		return nil, ErrNotDirectory
	}
	created := &entry{
		name:   name,
		kind:   kind,
		parent: parent,
	}
	parent.children = append(parent.children, created)
	return created, nil
}

// detach removes e from its parent's children. A file's blocks must
// already have been released.
func (e *entry) detach() {
	if e.parent == nil {
		return
	}
	if index := slices.Index(e.parent.children, e); index >= 0 {
		e.parent.children = slices.Delete(e.parent.children, index, index+1)
	}
	e.parent = nil
}

// moveTo detaches e from its current parent and appends it to
// newParent's children.
func (e *entry) moveTo(newParent *entry) {
	e.detach()
	e.parent = newParent
	newParent.children = append(newParent.children, e)
}

// path rebuilds the absolute path of e from its ancestors.
func (e *entry) path() string {
	if e.parent == nil {
		return "/"
	}
	var names []string
	for node := e; node.parent != nil; node = node.parent {
		names = append(names, node.name)
	}
	slices.Reverse(names)
	return "/" + strings.Join(names, "/")
}
