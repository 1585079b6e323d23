// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fusefs

import (
	"context"
	"log/slog"
	"sync"
	"syscall"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/bureau-foundation/cutefs/lib/cutefs"
)

// fileHandle wraps an engine handle for the lifetime of one open(2).
// The kernel passes explicit offsets, so every transfer repositions
// the engine handle first; mu keeps the seek and the transfer together.
type fileHandle struct {
	mu      sync.Mutex
	handle  *cutefs.Handle
	options *Options
}

var _ gofuse.FileReader = (*fileHandle)(nil)
var _ gofuse.FileWriter = (*fileHandle)(nil)
var _ gofuse.FileReleaser = (*fileHandle)(nil)

func (f *fileHandle) Read(ctx context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	f.mu.Lock()
	defer f.mu.Unlock()

	volume := f.options.Volume
	info, err := volume.Fstat(f.handle)
	if err != nil {
		return nil, Errno(err)
	}
	if off >= info.Size {
		return fuse.ReadResultData(nil), 0
	}
	if _, err := volume.Seek(f.handle, off); err != nil {
		return nil, Errno(err)
	}

	count, err := volume.Read(f.handle, dest)
	if err != nil {
		f.options.Logger.Error("read failed",
			"path", info.Name,
			"offset", off,
			"bytes", count,
			"error", err,
		)
		if count == 0 {
			return nil, Errno(err)
		}
	}
	return fuse.ReadResultData(dest[:count]), 0
}

// Write stores data at off. A write the volume can only partly hold
// reports the bytes it took; the kernel retries the rest and gets
// ENOMEM once nothing fits.
func (f *fileHandle) Write(ctx context.Context, data []byte, off int64) (uint32, syscall.Errno) {
	f.mu.Lock()
	defer f.mu.Unlock()

	volume := f.options.Volume
	if _, err := volume.Seek(f.handle, off); err != nil {
		return 0, Errno(err)
	}
	count, err := volume.Write(f.handle, data)
	if err != nil {
		if count == 0 {
			return 0, Errno(err)
		}
		f.options.Logger.Error("write failed",
			"offset", off,
			"bytes", count,
			"error", err,
		)
	}
	return uint32(count), 0
}

func (f *fileHandle) Release(ctx context.Context) syscall.Errno {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Errno(f.options.Volume.Close(f.handle))
}

// dirStream lists a directory through an engine directory handle, one
// entry per Next. Entries added or removed while the stream is open
// shift later positions, as they do for the engine's own ReadDir.
type dirStream struct {
	handle *cutefs.Handle
	logger *slog.Logger

	next    fuse.DirEntry
	hasNext bool
	err     syscall.Errno
}

var _ gofuse.DirStream = (*dirStream)(nil)

// advance reads the entry Next will return.
func (s *dirStream) advance() {
	entry, ok, err := s.handle.ReadDir()
	if err != nil {
		s.logger.Error("readdir failed", "error", err)
		s.err = Errno(err)
		s.hasNext = false
		return
	}
	s.hasNext = ok
	if !ok {
		return
	}
	mode := uint32(syscall.S_IFREG)
	if entry.Type == cutefs.TypeDirectory {
		mode = syscall.S_IFDIR
	}
	s.next = fuse.DirEntry{Name: entry.Name, Mode: mode}
}

func (s *dirStream) HasNext() bool {
	return s.hasNext
}

func (s *dirStream) Next() (fuse.DirEntry, syscall.Errno) {
	if !s.hasNext {
		if s.err != 0 {
			return fuse.DirEntry{}, s.err
		}
		return fuse.DirEntry{}, syscall.EINVAL
	}
	current := s.next
	s.advance()
	return current, 0
}

func (s *dirStream) Close() {
	if err := s.handle.Close(); err != nil {
		s.logger.Warn("closing directory handle", "error", err)
	}
}
