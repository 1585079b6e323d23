// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"sync"

	"github.com/bureau-foundation/cutefs/lib/blockdev"
)

// FaultPool wraps a pool and injects failures. Each limit counts down
// successful calls: once it reaches zero, every further call of that
// kind fails. A negative limit never fails.
type FaultPool struct {
	blockdev.Pool

	mu          sync.Mutex
	allocLimit  int
	readLimit   int
	writeLimit  int
	closeErr    error
	allocations int
}

// NewFaultPool wraps inner with every limit disabled.
func NewFaultPool(inner blockdev.Pool) *FaultPool {
	return &FaultPool{
		Pool:       inner,
		allocLimit: -1,
		readLimit:  -1,
		writeLimit: -1,
	}
}

// FailAllocAfter lets count more allocations succeed.
func (p *FaultPool) FailAllocAfter(count int) {
	p.mu.Lock()
	p.allocLimit = count
	p.mu.Unlock()
}

// FailReadAfter lets count more block reads succeed.
func (p *FaultPool) FailReadAfter(count int) {
	p.mu.Lock()
	p.readLimit = count
	p.mu.Unlock()
}

// FailWriteAfter lets count more block writes succeed.
func (p *FaultPool) FailWriteAfter(count int) {
	p.mu.Lock()
	p.writeLimit = count
	p.mu.Unlock()
}

// FailClose makes Close return err after closing the wrapped pool.
func (p *FaultPool) FailClose(err error) {
	p.mu.Lock()
	p.closeErr = err
	p.mu.Unlock()
}

// Allocations returns how many allocations have succeeded.
func (p *FaultPool) Allocations() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.allocations
}

func (p *FaultPool) Alloc() (blockdev.BlockID, error) {
	if !p.consume(&p.allocLimit) {
		return 0, blockdev.ErrExhausted
	}
	id, err := p.Pool.Alloc()
	if err == nil {
		p.mu.Lock()
		p.allocations++
		p.mu.Unlock()
	}
	return id, err
}

func (p *FaultPool) ReadBlock(id blockdev.BlockID, buf []byte) bool {
	return p.consume(&p.readLimit) && p.Pool.ReadBlock(id, buf)
}

func (p *FaultPool) WriteBlock(id blockdev.BlockID, buf []byte) bool {
	return p.consume(&p.writeLimit) && p.Pool.WriteBlock(id, buf)
}

func (p *FaultPool) Close() error {
	err := p.Pool.Close()
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closeErr != nil {
		return p.closeErr
	}
	return err
}

func (p *FaultPool) consume(limit *int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case *limit < 0:
		return true
	case *limit == 0:
		return false
	default:
		*limit--
		return true
	}
}
