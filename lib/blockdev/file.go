// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build darwin || linux

package blockdev

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"golang.org/x/sys/unix"
)

// FilePool is a Pool laid out in a fixed-size file: block n occupies
// bytes [n*BlockSize, (n+1)*BlockSize). Reads go through a read-only
// memory map; writes use pwrite to avoid triggering read-before-write
// page faults. The kernel keeps the shared mapping coherent with the
// written data.
//
// Which blocks are allocated is tracked in memory only. Reopening a
// file yields a pool with every block free.
type FilePool struct {
	geometry Geometry
	path     string

	mu     sync.Mutex
	fd     int
	data   []byte // mmap'd MAP_SHARED, PROT_READ
	blocks *freeList
	zero   []byte
}

var _ Pool = (*FilePool)(nil)

// NewFilePool creates or opens the device file at path sized for the
// requested geometry. A new (empty) file is extended to size. An
// existing file of a different size is rejected: delete the file to
// change the geometry.
func NewFilePool(path string, blockCount, blockSize int) (*FilePool, error) {
	geometry := Geometry{BlockCount: blockCount, BlockSize: blockSize}
	if err := geometry.Validate(); err != nil {
		return nil, fmt.Errorf("file pool %s: %w", path, err)
	}
	size := geometry.Bytes()

	fd, err := unix.Open(path, unix.O_CREAT|unix.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening block device %s: %w", path, err)
	}

	var stat unix.Stat_t
	if err := unix.Fstat(fd, &stat); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("stating block device: %w", err)
	}

	if stat.Size == 0 {
		if err := unix.Ftruncate(fd, size); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("sizing new block device to %d bytes: %w", size, err)
		}
	} else if stat.Size != size {
		unix.Close(fd)
		return nil, fmt.Errorf("block device %s is %d bytes but the geometry needs %d; delete the file to change it",
			path, stat.Size, size)
	}

	data, err := unix.Mmap(fd, 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("memory-mapping block device: %w", err)
	}

	return &FilePool{
		geometry: geometry,
		path:     path,
		fd:       fd,
		data:     data,
		blocks:   newFreeList(blockCount),
		zero:     make([]byte, blockSize),
	}, nil
}

// Geometry reports the pool layout.
func (p *FilePool) Geometry() (Geometry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.data == nil {
		return Geometry{}, fmt.Errorf("block device %s is closed", p.path)
	}
	return p.geometry, nil
}

// Alloc takes the next free block and zeroes it on the device.
func (p *FilePool) Alloc() (BlockID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.data == nil {
		return 0, fmt.Errorf("block device %s is closed", p.path)
	}
	id, ok := p.blocks.take()
	if !ok {
		return 0, ErrExhausted
	}
	if err := p.pwrite(p.zero, p.offset(id)); err != nil {
		p.blocks.put(id)
		return 0, fmt.Errorf("zeroing block %d: %w", id, err)
	}
	return id, nil
}

// Free returns id to the free set. The block content is left as is.
func (p *FilePool) Free(id BlockID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blocks.put(id)
}

// ReadBlock copies block id out of the memory map.
func (p *FilePool) ReadBlock(id BlockID, buf []byte) (ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.data == nil || len(buf) < p.geometry.BlockSize || !p.blocks.isAllocated(id) {
		return false
	}

	// An I/O error on the backing file surfaces as SIGBUS on the
	// mapping; turn it into a failed read instead of a crash.
	old := debug.SetPanicOnFault(true)
	defer func() {
		debug.SetPanicOnFault(old)
		if recover() != nil {
			ok = false
		}
	}()

	offset := p.offset(id)
	copy(buf, p.data[offset:offset+int64(p.geometry.BlockSize)])
	return true
}

// WriteBlock writes buf to block id with pwrite.
func (p *FilePool) WriteBlock(id BlockID, buf []byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.data == nil || len(buf) < p.geometry.BlockSize || !p.blocks.isAllocated(id) {
		return false
	}
	return p.pwrite(buf[:p.geometry.BlockSize], p.offset(id)) == nil
}

// Sync flushes written blocks to stable storage.
func (p *FilePool) Sync() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.data == nil {
		return fmt.Errorf("block device %s is closed", p.path)
	}
	return unix.Fsync(p.fd)
}

// Close unmaps the device and closes the file descriptor.
func (p *FilePool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.data == nil {
		return nil
	}

	var errs []error
	if err := unix.Munmap(p.data); err != nil {
		errs = append(errs, fmt.Errorf("unmapping block device: %w", err))
	}
	if err := unix.Close(p.fd); err != nil {
		errs = append(errs, fmt.Errorf("closing block device fd: %w", err))
	}
	p.data = nil
	p.fd = -1
	return errors.Join(errs...)
}

// Path returns the backing file path.
func (p *FilePool) Path() string {
	return p.path
}

func (p *FilePool) offset(id BlockID) int64 {
	return int64(id) * int64(p.geometry.BlockSize)
}

// pwrite writes all of buf at off, retrying short writes.
func (p *FilePool) pwrite(buf []byte, off int64) error {
	for len(buf) > 0 {
		written, err := unix.Pwrite(p.fd, buf, off)
		if err != nil {
			return fmt.Errorf("pwrite at offset %d: %w", off, err)
		}
		buf = buf[written:]
		off += int64(written)
	}
	return nil
}
