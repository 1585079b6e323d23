// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cutefs

import "fmt"

// grow appends count blocks to e, allocating them one at a time. If
// the pool runs dry partway, the blocks obtained so far stay attached
// to e and ErrNoSpace is returned.
func (v *Volume) grow(e *entry, count int) error {
	for allocated := range count {
		block, err := v.pool.Alloc()
		if err != nil {
			v.logger.Warn("block allocation failed",
				"entry", e.path(),
				"requested", count,
				"allocated", allocated,
				"error", err,
			)
			return fmt.Errorf("%w: allocated %d of %d blocks: %v", ErrNoSpace, allocated, count, err)
		}
		e.blocks = append(e.blocks, block)
		v.freeBlocks--
	}
	return nil
}

// shrinkToZero returns every block of e to the pool and resets its
// size.
func (v *Volume) shrinkToZero(e *entry) {
	for _, block := range e.blocks {
		v.pool.Free(block)
		v.freeBlocks++
	}
	e.blocks = nil
	e.size = 0
}

// blocksFor returns how many blocks hold the first end bytes of a file.
func (v *Volume) blocksFor(end int64) int64 {
	size := int64(v.blockSize)
	return (end + size - 1) / size
}
