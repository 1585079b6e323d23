// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cutefs

import (
	"fmt"
	"strings"
)

// FileInfo describes an entry.
type FileInfo struct {
	Name string
	Type FileType
	Size int64
}

// IsDir reports whether the entry is a directory.
func (i FileInfo) IsDir() bool {
	return i.Type == TypeDirectory
}

// DirEntry is one result of ReadDir.
type DirEntry struct {
	Name string
	Type FileType
}

func (e *entry) info() FileInfo {
	return FileInfo{Name: e.name, Type: e.kind, Size: e.size}
}

// Stat describes the entry path names.
func (v *Volume) Stat(path string) (FileInfo, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.root == nil {
		return FileInfo{}, opError("stat", path, ErrClosed)
	}
	trace, err := tracePath(v.root, path)
	if err != nil {
		return FileInfo{}, opError("stat", path, err)
	}
	if trace.found == nil {
		return FileInfo{}, opError("stat", path, ErrNotFound)
	}
	return trace.found.info(), nil
}

// Fstat describes the entry an open handle refers to.
func (v *Volume) Fstat(handle *Handle) (FileInfo, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.checkHandle(handle); err != nil {
		return FileInfo{}, opError("fstat", "", err)
	}
	return handle.entry.info(), nil
}

// ReadDir returns the child of a directory handle at the handle's
// position and advances the position by one. ok is false once the
// position has moved past the last child.
//
// Children appear in creation order, with entries renamed into the
// directory appended at the end. Removing a child while a handle
// iterates shifts the remaining children down by one.
func (v *Volume) ReadDir(handle *Handle) (DirEntry, bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.checkHandle(handle); err != nil {
		return DirEntry{}, false, opError("readdir", "", err)
	}
	directory := handle.entry
	if !directory.isDir() {
		return DirEntry{}, false, opError("readdir", directory.path(), ErrNotDirectory)
	}
	if handle.position < 0 || handle.position >= int64(len(directory.children)) {
		return DirEntry{}, false, nil
	}

	child := directory.children[handle.position]
	handle.position++
	return DirEntry{Name: child.name, Type: child.kind}, true, nil
}

// Unlink removes the entry path names. A file's blocks go back to the
// pool. It fails with ErrBusy while the entry has open handles, with
// ErrNotEmpty for a directory that still has children, and with
// ErrInvalid for the root.
func (v *Volume) Unlink(path string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.root == nil {
		return opError("unlink", path, ErrClosed)
	}
	trace, err := tracePath(v.root, path)
	if err != nil {
		return opError("unlink", path, err)
	}
	if trace.found == nil {
		return opError("unlink", path, ErrNotFound)
	}
	return opError("unlink", path, v.unlinkEntry(trace.found))
}

func (v *Volume) unlinkEntry(e *entry) error {
	switch {
	case e.parent == nil:
		return ErrInvalid
	case e.refCount > 0:
		return ErrBusy
	case e.isDir() && len(e.children) > 0:
		return ErrNotEmpty
	}
	if !e.isDir() {
		v.shrinkToZero(e)
	}
	e.detach()
	return nil
}

// Rename moves the entry at oldPath to newPath.
//
// If newPath names an existing entry of the same kind, that entry is
// removed first under the same rules as Unlink. A directory cannot
// replace a file (ErrNotDirectory) nor a file a directory
// (ErrIsDirectory). Renaming a path to itself, or to another path
// naming the same entry, succeeds without change. Moving a directory
// beneath itself fails with ErrInvalid, as does renaming the root.
// Neither entry may have open handles.
func (v *Volume) Rename(oldPath, newPath string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.root == nil {
		return opError("rename", oldPath, ErrClosed)
	}
	if err := v.rename(oldPath, newPath); err != nil {
		return opError("rename", oldPath, err)
	}
	return nil
}

func (v *Volume) rename(oldPath, newPath string) error {
	if oldPath == newPath {
		return nil
	}
	if strings.HasPrefix(newPath, oldPath+"/") {
		return ErrInvalid
	}

	source, err := tracePath(v.root, oldPath)
	if err != nil {
		return err
	}
	moving := source.found
	switch {
	case moving == nil:
		return ErrNotFound
	case moving.parent == nil:
		return ErrInvalid
	case moving.refCount > 0:
		return ErrBusy
	}

	dest, err := tracePath(v.root, newPath)
	if err != nil {
		return err
	}

	var newParent *entry
	leaf := dest.leaf
	switch replaced := dest.found; {
	case replaced == moving:
		return nil
	case replaced != nil:
		if moving.isDir() && !replaced.isDir() {
			return ErrNotDirectory
		}
		if !moving.isDir() && replaced.isDir() {
			return ErrIsDirectory
		}
		if replaced.parent == nil {
			return ErrInvalid
		}
		if moving.isAncestorOf(replaced.parent) {
			return ErrInvalid
		}
		newParent = replaced.parent
		if err := v.unlinkEntry(replaced); err != nil {
			return fmt.Errorf("replacing %s: %w", newPath, err)
		}
	default:
		newParent = dest.parent
	}

	if moving.isAncestorOf(newParent) {
		return ErrInvalid
	}

	moving.moveTo(newParent)
	moving.name = leaf
	v.logger.Debug("entry renamed", "from", oldPath, "to", moving.path())
	return nil
}
