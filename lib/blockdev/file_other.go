// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !darwin && !linux

package blockdev

import "fmt"

// FilePool is only available on platforms with mmap and pwrite.
type FilePool struct{ MemoryPool }

// NewFilePool always fails on this platform.
func NewFilePool(path string, blockCount, blockSize int) (*FilePool, error) {
	return nil, fmt.Errorf("file pool %s: not supported on this platform", path)
}
