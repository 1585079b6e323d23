// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package blockdev

import (
	"sync"

	"github.com/zeebo/blake3"
)

// Digest is the BLAKE3-256 digest of one block.
type Digest [32]byte

// HashBlock returns the digest of a block's content.
func HashBlock(data []byte) Digest {
	return Digest(blake3.Sum256(data))
}

// VerifiedPool wraps a Pool and checks every block read against the
// digest recorded when it was last written. A mismatch fails the read,
// so corruption in the underlying store shows up as a transfer failure
// instead of silently returned bytes.
//
// Blocks that were allocated but never written are checked against
// the digest of a zero block, matching the zero-fill guarantee of the
// pools in this package.
type VerifiedPool struct {
	inner     Pool
	blockSize int
	zero      Digest

	mu      sync.Mutex
	digests map[BlockID]Digest
	// onMismatch, when set, is called with the block that failed
	// verification. It runs without the pool lock held.
	onMismatch func(BlockID)
}

var _ Pool = (*VerifiedPool)(nil)

// NewVerifiedPool wraps inner. The geometry is read once up front.
func NewVerifiedPool(inner Pool) (*VerifiedPool, error) {
	geometry, err := inner.Geometry()
	if err != nil {
		return nil, err
	}
	return &VerifiedPool{
		inner:     inner,
		blockSize: geometry.BlockSize,
		zero:      HashBlock(make([]byte, geometry.BlockSize)),
		digests:   make(map[BlockID]Digest),
	}, nil
}

// OnMismatch registers a callback invoked whenever a read fails
// verification.
func (p *VerifiedPool) OnMismatch(callback func(BlockID)) {
	p.mu.Lock()
	p.onMismatch = callback
	p.mu.Unlock()
}

// Geometry delegates to the wrapped pool.
func (p *VerifiedPool) Geometry() (Geometry, error) {
	return p.inner.Geometry()
}

// Alloc delegates to the wrapped pool and records the zero digest.
func (p *VerifiedPool) Alloc() (BlockID, error) {
	id, err := p.inner.Alloc()
	if err != nil {
		return 0, err
	}
	p.mu.Lock()
	p.digests[id] = p.zero
	p.mu.Unlock()
	return id, nil
}

// Free forgets the block's digest and frees it in the wrapped pool.
func (p *VerifiedPool) Free(id BlockID) {
	p.mu.Lock()
	delete(p.digests, id)
	p.mu.Unlock()
	p.inner.Free(id)
}

// ReadBlock reads through the wrapped pool and verifies the content.
func (p *VerifiedPool) ReadBlock(id BlockID, buf []byte) bool {
	if !p.inner.ReadBlock(id, buf) {
		return false
	}

	p.mu.Lock()
	want, known := p.digests[id]
	callback := p.onMismatch
	p.mu.Unlock()

	if known && HashBlock(buf[:p.blockSize]) == want {
		return true
	}
	if callback != nil {
		callback(id)
	}
	return false
}

// WriteBlock writes through the wrapped pool and records the new
// digest on success.
func (p *VerifiedPool) WriteBlock(id BlockID, buf []byte) bool {
	if len(buf) < p.blockSize {
		return false
	}
	if !p.inner.WriteBlock(id, buf) {
		return false
	}
	digest := HashBlock(buf[:p.blockSize])
	p.mu.Lock()
	p.digests[id] = digest
	p.mu.Unlock()
	return true
}

// Close closes the wrapped pool.
func (p *VerifiedPool) Close() error {
	p.mu.Lock()
	p.digests = nil
	p.mu.Unlock()
	return p.inner.Close()
}
