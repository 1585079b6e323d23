// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cutefs

import (
	"errors"
	"io/fs"
	"path"
)

// WalkFunc is called by Walk for every entry visited. Returning
// fs.SkipDir from a directory skips its children; returning it from
// a file skips the file's remaining siblings. fs.SkipAll stops the
// walk without error.
type WalkFunc func(path string, info FileInfo) error

// Walk visits the tree rooted at root in depth-first order, parents
// before children. Paths passed to fn are absolute and cleaned.
//
// The volume lock is released between entries, so fn may call back
// into the volume. Entries created or removed during the walk may or
// may not be visited.
func (v *Volume) Walk(root string, fn WalkFunc) error {
	info, err := v.Stat(root)
	if err != nil {
		return err
	}
	err = v.walk(path.Clean("/"+root), info, fn)
	if errors.Is(err, fs.SkipDir) || errors.Is(err, fs.SkipAll) {
		return nil
	}
	return err
}

func (v *Volume) walk(name string, info FileInfo, fn WalkFunc) error {
	if err := fn(name, info); err != nil || !info.IsDir() {
		return err
	}

	children, err := v.list(name)
	if err != nil {
		return err
	}
	for _, child := range children {
		childPath := path.Join(name, child.Name)
		childInfo, err := v.Stat(childPath)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		err = v.walk(childPath, childInfo, fn)
		if err == nil {
			continue
		}
		if errors.Is(err, fs.SkipDir) {
			if childInfo.IsDir() {
				continue
			}
			return nil
		}
		return err
	}
	return nil
}

// list reads every entry of a directory through a temporary handle.
func (v *Volume) list(directory string) ([]DirEntry, error) {
	handle, err := v.Open(directory, Directory)
	if err != nil {
		return nil, err
	}
	var entries []DirEntry
	for {
		next, ok, err := handle.ReadDir()
		if err != nil {
			handle.Close()
			return nil, err
		}
		if !ok {
			break
		}
		entries = append(entries, next)
	}
	return entries, handle.Close()
}
