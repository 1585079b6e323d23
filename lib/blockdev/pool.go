// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package blockdev

import (
	"errors"
	"fmt"
)

// ErrExhausted is returned by Alloc when every block is in use.
var ErrExhausted = errors.New("blockdev: no free blocks")

// BlockID identifies one block within a pool. Values are opaque to
// callers; only the issuing pool knows how they map to storage.
type BlockID uint32

// Geometry describes the fixed layout of a pool.
type Geometry struct {
	BlockCount int
	BlockSize  int
}

// Bytes returns the total capacity of the pool in bytes.
func (g Geometry) Bytes() int64 {
	return int64(g.BlockCount) * int64(g.BlockSize)
}

// Validate rejects layouts that cannot hold any data.
func (g Geometry) Validate() error {
	if g.BlockSize <= 0 {
		return fmt.Errorf("block size must be positive, got %d", g.BlockSize)
	}
	if g.BlockCount <= 0 {
		return fmt.Errorf("block count must be positive, got %d", g.BlockCount)
	}
	return nil
}

// Pool is a fixed-size block allocator with block-granular I/O.
//
// ReadBlock and WriteBlock transfer exactly one block: buf must be at
// least BlockSize bytes long and only the first BlockSize bytes are
// used. They report success as a bool rather than an error; a false
// result means nothing useful was transferred.
type Pool interface {
	// Geometry reports the block count and block size.
	Geometry() (Geometry, error)

	// Alloc takes one block out of the free set. It returns
	// ErrExhausted when none remain.
	Alloc() (BlockID, error)

	// Free returns a block to the free set. Freeing an unallocated
	// or unknown block is a no-op.
	Free(id BlockID)

	// ReadBlock copies the content of block id into buf.
	ReadBlock(id BlockID, buf []byte) bool

	// WriteBlock replaces the content of block id with buf.
	WriteBlock(id BlockID, buf []byte) bool

	// Close releases the pool. Block IDs issued by it become invalid.
	Close() error
}

// freeList tracks which blocks of a pool are allocated. Blocks are
// handed out lowest-first on a fresh pool and most-recently-freed
// first afterwards.
type freeList struct {
	free      []BlockID
	allocated []bool
}

func newFreeList(count int) *freeList {
	list := &freeList{
		free:      make([]BlockID, count),
		allocated: make([]bool, count),
	}
	for i := range count {
		list.free[i] = BlockID(count - 1 - i)
	}
	return list
}

func (l *freeList) take() (BlockID, bool) {
	if len(l.free) == 0 {
		return 0, false
	}
	id := l.free[len(l.free)-1]
	l.free = l.free[:len(l.free)-1]
	l.allocated[id] = true
	return id, true
}

func (l *freeList) put(id BlockID) bool {
	if !l.isAllocated(id) {
		return false
	}
	l.allocated[id] = false
	l.free = append(l.free, id)
	return true
}

func (l *freeList) isAllocated(id BlockID) bool {
	return int(id) < len(l.allocated) && l.allocated[id]
}

func (l *freeList) available() int {
	return len(l.free)
}
