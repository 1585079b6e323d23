// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package blockdev

import (
	"errors"
	"fmt"
	"sync"
)

// MemoryPool is a Pool whose blocks live in process memory. Blocks
// are zero-filled when allocated. MemoryPool is safe for concurrent
// use.
type MemoryPool struct {
	geometry Geometry

	mu     sync.Mutex
	data   []byte
	blocks *freeList
	closed bool
}

var _ Pool = (*MemoryPool)(nil)

// NewMemoryPool creates an in-memory pool of blockCount blocks of
// blockSize bytes each.
func NewMemoryPool(blockCount, blockSize int) (*MemoryPool, error) {
	geometry := Geometry{BlockCount: blockCount, BlockSize: blockSize}
	if err := geometry.Validate(); err != nil {
		return nil, fmt.Errorf("memory pool: %w", err)
	}
	return &MemoryPool{
		geometry: geometry,
		data:     make([]byte, geometry.Bytes()),
		blocks:   newFreeList(blockCount),
	}, nil
}

// Geometry reports the pool layout.
func (p *MemoryPool) Geometry() (Geometry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return Geometry{}, errors.New("memory pool is closed")
	}
	return p.geometry, nil
}

// Alloc takes the next free block and zeroes it.
func (p *MemoryPool) Alloc() (BlockID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, errors.New("memory pool is closed")
	}
	id, ok := p.blocks.take()
	if !ok {
		return 0, ErrExhausted
	}
	clear(p.block(id))
	return id, nil
}

// Free returns id to the free set.
func (p *MemoryPool) Free(id BlockID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.blocks.put(id)
}

// ReadBlock copies block id into buf.
func (p *MemoryPool) ReadBlock(id BlockID, buf []byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || len(buf) < p.geometry.BlockSize || !p.blocks.isAllocated(id) {
		return false
	}
	copy(buf, p.block(id))
	return true
}

// WriteBlock copies buf into block id.
func (p *MemoryPool) WriteBlock(id BlockID, buf []byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || len(buf) < p.geometry.BlockSize || !p.blocks.isAllocated(id) {
		return false
	}
	copy(p.block(id), buf[:p.geometry.BlockSize])
	return true
}

// Available returns the number of unallocated blocks.
func (p *MemoryPool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.blocks.available()
}

// Close drops the block storage.
func (p *MemoryPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.data = nil
	return nil
}

func (p *MemoryPool) block(id BlockID) []byte {
	offset := int64(id) * int64(p.geometry.BlockSize)
	return p.data[offset : offset+int64(p.geometry.BlockSize)]
}
