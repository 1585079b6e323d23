// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cutefs

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/bureau-foundation/cutefs/lib/testutil"
)

func TestWriteThenReadAcrossBlocks(t *testing.T) {
	volume, _ := newTestVolume(t, 4, 16)

	handle, err := volume.Open("/a.txt", Create|WriteOnly)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	content := bytes.Repeat([]byte{0xAA}, 40)
	count, err := volume.Write(handle, content)
	if err != nil || count != 40 {
		t.Fatalf("Write = %d, %v, want 40", count, err)
	}
	if err := volume.Close(handle); err != nil {
		t.Fatalf("Close: %v", err)
	}

	info, err := volume.Stat("/a.txt")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size != 40 {
		t.Errorf("size = %d, want 40", info.Size)
	}
	requireFree(t, volume, 1)

	handle, err = volume.Open("/a.txt", ReadOnly)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer handle.Close()
	buffer := make([]byte, 40)
	count, err = volume.Read(handle, buffer)
	if err != nil || count != 40 {
		t.Fatalf("Read = %d, %v, want 40", count, err)
	}
	if !bytes.Equal(buffer, content) {
		t.Errorf("read back %x", buffer)
	}
}

func TestWriteStraddlingBlockBoundary(t *testing.T) {
	volume, _ := newTestVolume(t, 4, 16)

	handle, err := volume.Open("/f", Create|ReadWrite)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer handle.Close()

	head := bytes.Repeat([]byte{'a'}, 15)
	if _, err := handle.Write(head); err != nil {
		t.Fatalf("Write head: %v", err)
	}
	if _, err := handle.Write([]byte("bc")); err != nil {
		t.Fatalf("Write tail: %v", err)
	}
	requireFree(t, volume, 2)

	if _, err := handle.Seek(0, io.SeekStart); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	got, err := io.ReadAll(handle)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if want := append(head, 'b', 'c'); !bytes.Equal(got, want) {
		t.Errorf("content = %q, want %q", got, want)
	}
}

func TestOverwriteMiddleKeepsSurroundingBytes(t *testing.T) {
	volume, _ := newTestVolume(t, 4, 8)
	writeFile(t, volume, "/f", []byte("abcdefghijklmnopqrst"))

	handle, err := volume.Open("/f", WriteOnly)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := volume.Seek(handle, 6); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if _, err := handle.Write([]byte("XXXXXXXXXX")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	handle.Close()

	if got := readFile(t, volume, "/f"); string(got) != "abcdefXXXXXXXXXXqrst" {
		t.Errorf("content = %q", got)
	}
	requireFree(t, volume, 1)
}

func TestWriteBeyondEndLeavesZeroGap(t *testing.T) {
	volume, _ := newTestVolume(t, 4, 16)

	handle, err := volume.Open("/sparse", Create|WriteOnly)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := volume.Seek(handle, 20); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if _, err := handle.Write([]byte("tail")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	handle.Close()

	got := readFile(t, volume, "/sparse")
	want := append(make([]byte, 20), "tail"...)
	if !bytes.Equal(got, want) {
		t.Errorf("content = %q, want %q", got, want)
	}
}

func TestReadPositions(t *testing.T) {
	volume, _ := newTestVolume(t, 4, 16)
	writeFile(t, volume, "/f", []byte("0123456789"))

	handle, err := volume.Open("/f", ReadOnly)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer handle.Close()
	buffer := make([]byte, 32)

	if _, err := volume.Seek(handle, 10); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if count, err := volume.Read(handle, buffer); count != 0 || err != nil {
		t.Errorf("Read at end = %d, %v, want 0, nil", count, err)
	}

	if _, err := volume.Seek(handle, 11); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if _, err := volume.Read(handle, buffer); !errors.Is(err, ErrInvalid) {
		t.Errorf("Read past end: got %v, want ErrInvalid", err)
	}

	if _, err := volume.Seek(handle, 3); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	count, err := volume.Read(handle, buffer)
	if err != nil || string(buffer[:count]) != "3456789" {
		t.Errorf("Read = %q, %v", buffer[:count], err)
	}
	if position, _ := volume.Tell(handle); position != 10 {
		t.Errorf("position after read = %d, want 10", position)
	}
}

func TestWriteClampedToFreeBlocks(t *testing.T) {
	volume, _ := newTestVolume(t, 4, 16)

	handle, err := volume.Open("/big", Create|ReadWrite)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer handle.Close()

	// 65 bytes need five blocks; only four exist. The write stops one
	// byte short of the pool's capacity.
	count, err := volume.Write(handle, bytes.Repeat([]byte{1}, 65))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if count != 63 {
		t.Errorf("clamped write = %d bytes, want 63", count)
	}
	requireFree(t, volume, 0)

	// A write that fits the blocks already held still succeeds.
	count, err = volume.Write(handle, []byte{2})
	if err != nil || count != 1 {
		t.Fatalf("Write = %d, %v, want 1", count, err)
	}

	if _, err := volume.Write(handle, []byte{3}); !errors.Is(err, ErrNoSpace) {
		t.Errorf("write on full file: got %v, want ErrNoSpace", err)
	}

	info, _ := volume.Fstat(handle)
	if info.Size != 64 {
		t.Errorf("size = %d, want 64", info.Size)
	}
}

func TestWriteEndingOnBlockBoundary(t *testing.T) {
	volume, _ := newTestVolume(t, 4, 16)
	handle, err := volume.Open("/f", Create|WriteOnly)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer handle.Close()

	// Exactly four blocks' worth fits in four blocks.
	count, err := volume.Write(handle, bytes.Repeat([]byte{7}, 64))
	if err != nil || count != 64 {
		t.Fatalf("Write = %d, %v, want 64", count, err)
	}
	requireFree(t, volume, 0)
}

func TestWriteAtUnreachableOffset(t *testing.T) {
	volume, _ := newTestVolume(t, 4, 16)
	handle, err := volume.Open("/f", Create|ReadWrite)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer handle.Close()

	for _, offset := range []int64{math.MaxInt64 - 5, math.MaxInt64, 64} {
		if _, err := volume.Seek(handle, offset); err != nil {
			t.Fatalf("Seek(%d): %v", offset, err)
		}
		count, err := volume.Write(handle, []byte("0123456789"))
		if count != 0 || !errors.Is(err, ErrNoSpace) {
			t.Errorf("Write at %d = %d, %v, want 0, ErrNoSpace", offset, count, err)
		}
		if position, _ := volume.Tell(handle); position != offset {
			t.Errorf("position after failed Write = %d, want %d", position, offset)
		}
	}
	requireFree(t, volume, 4)

	// The last byte of the volume is still writable.
	if _, err := volume.Seek(handle, 63); err != nil {
		t.Fatalf("Seek(63): %v", err)
	}
	count, err := volume.Write(handle, []byte{1})
	if err != nil || count != 1 {
		t.Fatalf("Write at 63 = %d, %v, want 1", count, err)
	}
	info, _ := volume.Fstat(handle)
	if info.Size != 64 {
		t.Errorf("size = %d, want 64", info.Size)
	}
}

func TestHandleWriteReportsShortWrite(t *testing.T) {
	volume, _ := newTestVolume(t, 1, 16)
	handle, err := volume.Open("/f", Create|WriteOnly)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer handle.Close()

	count, err := handle.Write(make([]byte, 32))
	if count != 15 || !errors.Is(err, io.ErrShortWrite) {
		t.Errorf("Write = %d, %v, want 15, io.ErrShortWrite", count, err)
	}
}

func TestGrowthFailureKeepsPartialBlocks(t *testing.T) {
	pool := testutil.NewFaultPool(newTestPool(t, 4, 16))
	volume := mountPool(t, pool)

	handle, err := volume.Open("/f", Create|WriteOnly)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	pool.FailAllocAfter(1)
	count, err := volume.Write(handle, make([]byte, 40))
	if count != 0 || !errors.Is(err, ErrNoSpace) {
		t.Fatalf("Write = %d, %v, want 0, ErrNoSpace", count, err)
	}

	requireFree(t, volume, 3)
	info, _ := volume.Fstat(handle)
	if info.Size != 0 {
		t.Errorf("size = %d, want 0", info.Size)
	}

	handle.Close()
	if err := volume.Unlink("/f"); err != nil {
		t.Fatalf("Unlink: %v", err)
	}
	requireFree(t, volume, 4)
}

func TestReadTransferFailure(t *testing.T) {
	pool := testutil.NewFaultPool(newTestPool(t, 4, 16))
	volume := mountPool(t, pool)
	writeFile(t, volume, "/f", bytes.Repeat([]byte{9}, 40))

	handle, err := volume.Open("/f", ReadOnly)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer handle.Close()

	pool.FailReadAfter(1)
	buffer := make([]byte, 40)
	count, err := volume.Read(handle, buffer)
	if !errors.Is(err, ErrIO) {
		t.Fatalf("Read: got %v, want ErrIO", err)
	}
	if count != 16 {
		t.Errorf("Read returned %d bytes before failing, want 16", count)
	}
	if position, _ := volume.Tell(handle); position != 16 {
		t.Errorf("position = %d, want 16", position)
	}
}

func TestWriteTransferFailure(t *testing.T) {
	pool := testutil.NewFaultPool(newTestPool(t, 4, 16))
	volume := mountPool(t, pool)

	handle, err := volume.Open("/f", Create|WriteOnly)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer handle.Close()

	pool.FailWriteAfter(2)
	count, err := volume.Write(handle, make([]byte, 48))
	if !errors.Is(err, ErrIO) || count != 32 {
		t.Fatalf("Write = %d, %v, want 32, ErrIO", count, err)
	}
	info, _ := volume.Fstat(handle)
	if info.Size != 32 {
		t.Errorf("size = %d, want 32", info.Size)
	}
}
