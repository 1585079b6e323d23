// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cutefs

import (
	"errors"
	"fmt"
)

var (
	// ErrPathSyntax reports a path containing a disallowed byte, a
	// name longer than MaxNameLength, or a leading control byte.
	ErrPathSyntax = errors.New("invalid path")

	// ErrNotFound reports that a path does not resolve to an entry.
	ErrNotFound = errors.New("no such file or directory")

	// ErrExist reports an exclusive create of an existing entry.
	ErrExist = errors.New("file exists")

	// ErrIsDirectory reports a directory where a file was required.
	ErrIsDirectory = errors.New("is a directory")

	// ErrNotDirectory reports a file where a directory was required.
	ErrNotDirectory = errors.New("not a directory")

	// ErrBusy reports an entry that still has open handles.
	ErrBusy = errors.New("resource busy")

	// ErrNotEmpty reports removal or replacement of a directory that
	// still has children. It wraps ErrBusy.
	ErrNotEmpty = fmt.Errorf("%w: directory not empty", ErrBusy)

	// ErrNoSpace reports that the block pool could not supply a block.
	ErrNoSpace = errors.New("no free blocks")

	// ErrInvalid reports a bad handle, a bad flag combination, or an
	// argument out of range.
	ErrInvalid = errors.New("invalid argument")

	// ErrIO reports a block transfer that the pool did not complete.
	ErrIO = errors.New("block transfer failed")

	// ErrClosed reports an operation on an unmounted volume.
	ErrClosed = errors.New("volume is not mounted")
)

// OpError records the operation and path that produced an error.
type OpError struct {
	Op   string
	Path string
	Err  error
}

func (e *OpError) Error() string {
	if e.Path == "" {
		return "cutefs " + e.Op + ": " + e.Err.Error()
	}
	return "cutefs " + e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() error {
	return e.Err
}

func opError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Path: path, Err: err}
}
