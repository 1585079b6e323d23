// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cutefs

import (
	"io"
	"strings"
)

// Flag selects how Open resolves and opens a path.
type Flag uint32

const (
	// ReadOnly opens for reading. It is the zero value.
	ReadOnly Flag = 0
	// WriteOnly opens for writing only.
	WriteOnly Flag = 1 << 0
	// ReadWrite opens for reading and writing.
	ReadWrite Flag = 1 << 1
	// Create creates the entry if the path's last component is missing.
	Create Flag = 1 << 2
	// Exclusive, together with Create, fails if the entry exists.
	Exclusive Flag = 1 << 3
	// Truncate releases a file's blocks when it is opened for writing.
	Truncate Flag = 1 << 4
	// Append starts the handle's position at the end of the file.
	Append Flag = 1 << 5
	// Directory opens (or creates) a directory instead of a file.
	Directory Flag = 1 << 6
)

const accessMask = WriteOnly | ReadWrite

func (f Flag) writable() bool {
	return f&accessMask != 0
}

func (f Flag) readable() bool {
	return f&WriteOnly == 0
}

func (f Flag) String() string {
	var names []string
	switch {
	case f&ReadWrite != 0:
		names = append(names, "rdwr")
	case f&WriteOnly != 0:
		names = append(names, "wronly")
	default:
		names = append(names, "rdonly")
	}
	for _, bit := range []struct {
		flag Flag
		name string
	}{
		{Create, "create"},
		{Exclusive, "excl"},
		{Truncate, "trunc"},
		{Append, "append"},
		{Directory, "directory"},
	} {
		if f&bit.flag != 0 {
			names = append(names, bit.name)
		}
	}
	return strings.Join(names, "|")
}

// Handle is an open file or directory. It does not own the entry it
// refers to; the entry stays alive because its reference count keeps
// it from being unlinked.
//
// Handle implements io.Reader, io.Writer, io.Seeker and io.Closer by
// delegating to its volume.
type Handle struct {
	volume   *Volume
	entry    *entry
	flags    Flag
	position int64

	// size is the file size seen by this handle: taken at open and
	// refreshed by every write through the handle.
	size int64
}

// Flags returns the flags the handle was opened with.
func (h *Handle) Flags() Flag {
	return h.flags
}

// Read reads from the current position. It returns io.EOF once the
// position reaches the end of the file.
func (h *Handle) Read(p []byte) (int, error) {
	count, err := h.volume.Read(h, p)
	if err == nil && count == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	return count, err
}

// Write writes at the current position. A write shortened by a full
// pool reports io.ErrShortWrite.
func (h *Handle) Write(p []byte) (int, error) {
	count, err := h.volume.Write(h, p)
	if err == nil && count < len(p) {
		err = io.ErrShortWrite
	}
	return count, err
}

// Seek moves the position. io.SeekEnd is relative to the size seen
// by this handle.
func (h *Handle) Seek(offset int64, whence int) (int64, error) {
	return h.volume.seekFrom(h, offset, whence)
}

// ReadDir returns the next entry of a directory handle. ok is false
// once every entry has been returned.
func (h *Handle) ReadDir() (next DirEntry, ok bool, err error) {
	return h.volume.ReadDir(h)
}

// Close releases the handle.
func (h *Handle) Close() error {
	return h.volume.Close(h)
}

// Open resolves path and returns a handle on it, creating the entry
// first when flags asks for it:
//
//   - With Directory, an existing file fails with ErrNotDirectory and
//     a missing entry is created as a directory if Create is set.
//   - Without Directory, an existing directory fails with
//     ErrIsDirectory and a missing entry is created as a file if
//     Create is set.
//   - Create with Exclusive fails with ErrExist if the entry exists.
//   - A missing entry without Create fails with ErrNotFound.
//   - A file opened writable with Truncate loses its blocks.
func (v *Volume) Open(path string, flags Flag) (*Handle, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.root == nil {
		return nil, opError("open", path, ErrClosed)
	}
	target, err := v.resolveForOpen(path, flags)
	if err != nil {
		return nil, opError("open", path, err)
	}

	target.refCount++
	handle := &Handle{
		volume: v,
		entry:  target,
		flags:  flags,
		size:   target.size,
	}
	if flags&Append != 0 {
		handle.position = target.size
	}
	return handle, nil
}

// Mkdir creates a directory. It fails with ErrExist if path already
// names an entry of either kind.
func (v *Volume) Mkdir(path string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.root == nil {
		return opError("mkdir", path, ErrClosed)
	}
	trace, err := tracePath(v.root, path)
	if err != nil {
		return opError("mkdir", path, err)
	}
	if trace.found != nil {
		return opError("mkdir", path, ErrExist)
	}
	if _, err := newEntry(trace.parent, trace.leaf, TypeDirectory); err != nil {
		return opError("mkdir", path, err)
	}
	return nil
}

// Close releases a handle. Closing a handle twice, or a handle from
// another volume, fails with ErrInvalid.
func (v *Volume) Close(handle *Handle) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.checkHandle(handle); err != nil {
		return opError("close", "", err)
	}
	if handle.entry.refCount > 0 {
		handle.entry.refCount--
	}
	handle.entry = nil
	return nil
}

// resolveForOpen applies Open's resolution and creation rules and
// returns the entry to bind a handle to.
func (v *Volume) resolveForOpen(path string, flags Flag) (*entry, error) {
	if flags&WriteOnly != 0 && flags&ReadWrite != 0 {
		return nil, ErrInvalid
	}
	if flags&Directory != 0 && flags.writable() {
		return nil, ErrIsDirectory
	}

	trace, err := tracePath(v.root, path)
	if err != nil {
		return nil, err
	}

	exclusive := flags&(Create|Exclusive) == Create|Exclusive
	target := trace.found

	if flags&Directory != 0 {
		switch {
		case target != nil && !target.isDir():
			return nil, ErrNotDirectory
		case target != nil && exclusive:
			return nil, ErrExist
		case target == nil && flags&Create == 0:
			return nil, ErrNotFound
		case target == nil:
			return newEntry(trace.parent, trace.leaf, TypeDirectory)
		}
		return target, nil
	}

	switch {
	case target != nil && target.isDir():
		return nil, ErrIsDirectory
	case target != nil && exclusive:
		return nil, ErrExist
	case target == nil && flags&Create == 0:
		return nil, ErrNotFound
	case target == nil:
		target, err = newEntry(trace.parent, trace.leaf, TypeFile)
		if err != nil {
			return nil, err
		}
	}

	if flags.writable() && flags&Truncate != 0 {
		v.shrinkToZero(target)
	}
	return target, nil
}

// checkHandle rejects nil, closed, and foreign handles, and every
// handle once the volume is unmounted.
func (v *Volume) checkHandle(handle *Handle) error {
	if v.root == nil {
		return ErrClosed
	}
	if handle == nil || handle.volume != v || handle.entry == nil {
		return ErrInvalid
	}
	return nil
}
