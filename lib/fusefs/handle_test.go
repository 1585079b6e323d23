// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fusefs

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"math"
	"syscall"
	"testing"

	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/bureau-foundation/cutefs/lib/blockdev"
	"github.com/bureau-foundation/cutefs/lib/cutefs"
)

func testOptions(t *testing.T, blockCount, blockSize int) *Options {
	t.Helper()
	pool, err := blockdev.NewMemoryPool(blockCount, blockSize)
	if err != nil {
		t.Fatalf("NewMemoryPool: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	volume, err := cutefs.Mount(cutefs.Options{Pool: pool, Logger: logger})
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	t.Cleanup(func() { volume.Unmount() })
	return &Options{Mountpoint: "/unused", Volume: volume, Logger: logger}
}

func openFileHandle(t *testing.T, options *Options, path string, flags cutefs.Flag) *fileHandle {
	t.Helper()
	handle, err := options.Volume.Open(path, flags)
	if err != nil {
		t.Fatalf("Open(%q): %v", path, err)
	}
	return &fileHandle{handle: handle, options: options}
}

func readResult(t *testing.T, result fuse.ReadResult, size int) []byte {
	t.Helper()
	data, status := result.Bytes(make([]byte, size))
	if !status.Ok() {
		t.Fatalf("ReadResult.Bytes: %v", status)
	}
	return data
}

func TestFileHandleOffsets(t *testing.T) {
	options := testOptions(t, 4, 16)
	ctx := context.Background()
	file := openFileHandle(t, options, "/f", cutefs.Create|cutefs.ReadWrite)

	if count, errno := file.Write(ctx, []byte("hello world"), 0); errno != 0 || count != 11 {
		t.Fatalf("Write = %d, %v", count, errno)
	}
	if count, errno := file.Write(ctx, []byte("W"), 6); errno != 0 || count != 1 {
		t.Fatalf("Write at 6 = %d, %v", count, errno)
	}

	result, errno := file.Read(ctx, make([]byte, 64), 0)
	if errno != 0 {
		t.Fatalf("Read: %v", errno)
	}
	if got := readResult(t, result, 64); string(got) != "hello World" {
		t.Errorf("content = %q", got)
	}

	result, errno = file.Read(ctx, make([]byte, 3), 8)
	if errno != 0 {
		t.Fatalf("Read at 8: %v", errno)
	}
	if got := readResult(t, result, 3); string(got) != "rld" {
		t.Errorf("content at 8 = %q", got)
	}

	// Reads at or past the end are empty rather than errors.
	for _, offset := range []int64{11, 100} {
		result, errno := file.Read(ctx, make([]byte, 8), offset)
		if errno != 0 {
			t.Fatalf("Read at %d: %v", offset, errno)
		}
		if got := readResult(t, result, 8); len(got) != 0 {
			t.Errorf("Read at %d = %q, want empty", offset, got)
		}
	}

	if errno := file.Release(ctx); errno != 0 {
		t.Fatalf("Release: %v", errno)
	}
	if errno := file.Release(ctx); errno != syscall.EINVAL {
		t.Errorf("second Release = %v, want EINVAL", errno)
	}
}

func TestFileHandleWriteWhenFull(t *testing.T) {
	options := testOptions(t, 2, 16)
	ctx := context.Background()
	file := openFileHandle(t, options, "/f", cutefs.Create|cutefs.WriteOnly)
	defer file.Release(ctx)

	count, errno := file.Write(ctx, bytes.Repeat([]byte{1}, 40), 0)
	if errno != 0 || count != 31 {
		t.Fatalf("Write = %d, %v, want 31 bytes", count, errno)
	}
	if count, errno := file.Write(ctx, []byte{2}, 31); errno != 0 || count != 1 {
		t.Fatalf("Write into last byte = %d, %v", count, errno)
	}
	if _, errno := file.Write(ctx, []byte{3}, 32); errno != syscall.ENOMEM {
		t.Errorf("Write on full volume = %v, want ENOMEM", errno)
	}
}

func TestFileHandleWriteAtHugeOffset(t *testing.T) {
	options := testOptions(t, 4, 16)
	ctx := context.Background()
	file := openFileHandle(t, options, "/f", cutefs.Create|cutefs.ReadWrite)
	defer file.Release(ctx)

	if _, errno := file.Write(ctx, []byte("0123456789"), math.MaxInt64-5); errno != syscall.ENOMEM {
		t.Errorf("Write near MaxInt64 = %v, want ENOMEM", errno)
	}
	// The volume keeps serving after the rejected write.
	if count, errno := file.Write(ctx, []byte("abc"), 0); errno != 0 || count != 3 {
		t.Fatalf("Write = %d, %v, want 3", count, errno)
	}
	result, errno := file.Read(ctx, make([]byte, 3), 0)
	if errno != 0 {
		t.Fatalf("Read: %v", errno)
	}
	if data := readResult(t, result, 3); string(data) != "abc" {
		t.Errorf("Read = %q, want %q", data, "abc")
	}
}

func TestFileHandleReadOnWriteOnly(t *testing.T) {
	options := testOptions(t, 2, 16)
	ctx := context.Background()
	file := openFileHandle(t, options, "/f", cutefs.Create|cutefs.WriteOnly)
	defer file.Release(ctx)

	if _, errno := file.Write(ctx, []byte("abc"), 0); errno != 0 {
		t.Fatalf("Write: %v", errno)
	}
	if _, errno := file.Read(ctx, make([]byte, 3), 0); errno != syscall.EINVAL {
		t.Errorf("Read on write-only handle = %v, want EINVAL", errno)
	}
}

func TestDirStream(t *testing.T) {
	options := testOptions(t, 4, 16)
	volume := options.Volume
	if err := volume.Mkdir("/sub"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	file, err := volume.Open("/file", cutefs.Create)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	file.Close()

	handle, err := volume.Open("/", cutefs.Directory)
	if err != nil {
		t.Fatalf("Open(/): %v", err)
	}
	stream := &dirStream{handle: handle, logger: options.Logger}
	stream.advance()

	var names []string
	var modes []uint32
	for stream.HasNext() {
		entry, errno := stream.Next()
		if errno != 0 {
			t.Fatalf("Next: %v", errno)
		}
		names = append(names, entry.Name)
		modes = append(modes, entry.Mode)
	}
	if len(names) != 2 || names[0] != "sub" || names[1] != "file" {
		t.Errorf("names = %v, want [sub file]", names)
	}
	if len(modes) == 2 && (modes[0] != syscall.S_IFDIR || modes[1] != syscall.S_IFREG) {
		t.Errorf("modes = %o", modes)
	}
	if _, errno := stream.Next(); errno != syscall.EINVAL {
		t.Errorf("Next past end = %v, want EINVAL", errno)
	}

	stream.Close()
	if err := volume.Unlink("/sub"); err != nil {
		t.Errorf("Unlink after stream close: %v", err)
	}
}

func TestEngineFlags(t *testing.T) {
	tests := []struct {
		flags uint32
		want  cutefs.Flag
	}{
		{syscall.O_RDONLY, cutefs.ReadOnly},
		{syscall.O_WRONLY, cutefs.WriteOnly},
		{syscall.O_RDWR, cutefs.ReadWrite},
		{syscall.O_WRONLY | syscall.O_TRUNC, cutefs.WriteOnly | cutefs.Truncate},
		{syscall.O_RDWR | syscall.O_APPEND, cutefs.ReadWrite | cutefs.Append},
		{syscall.O_WRONLY | syscall.O_EXCL, cutefs.WriteOnly | cutefs.Exclusive},
		{syscall.O_RDONLY | syscall.O_NOFOLLOW | syscall.O_CLOEXEC, cutefs.ReadOnly},
	}
	for _, test := range tests {
		if got := engineFlags(test.flags); got != test.want {
			t.Errorf("engineFlags(%#o) = %v, want %v", test.flags, got, test.want)
		}
	}
}
