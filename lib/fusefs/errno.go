// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fusefs

import (
	"errors"
	"syscall"

	"github.com/bureau-foundation/cutefs/lib/cutefs"
)

// Errno translates an error returned by a cutefs volume into the errno
// the kernel should see. nil maps to 0. Errors from outside the engine
// map to EIO.
func Errno(err error) syscall.Errno {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, cutefs.ErrNotFound):
		return syscall.ENOENT
	case errors.Is(err, cutefs.ErrExist):
		return syscall.EEXIST
	case errors.Is(err, cutefs.ErrIsDirectory):
		return syscall.EISDIR
	case errors.Is(err, cutefs.ErrNotDirectory):
		return syscall.ENOTDIR
	case errors.Is(err, cutefs.ErrBusy):
		// Includes ErrNotEmpty.
		return syscall.EBUSY
	case errors.Is(err, cutefs.ErrNoSpace):
		return syscall.ENOMEM
	case errors.Is(err, cutefs.ErrInvalid), errors.Is(err, cutefs.ErrPathSyntax):
		return syscall.EINVAL
	case errors.Is(err, cutefs.ErrClosed):
		return syscall.ENODEV
	default:
		return syscall.EIO
	}
}

// lookupErrno is Errno for name resolution, where a name the engine
// cannot parse simply does not exist.
func lookupErrno(err error) syscall.Errno {
	if errors.Is(err, cutefs.ErrPathSyntax) {
		return syscall.ENOENT
	}
	return Errno(err)
}
