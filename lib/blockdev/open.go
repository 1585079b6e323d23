// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package blockdev

import "fmt"

// Kind selects the storage behind a pool.
type Kind string

const (
	// KindMemory keeps blocks in process memory.
	KindMemory Kind = "memory"
	// KindFile lays blocks out in a fixed-size file.
	KindFile Kind = "file"
)

// Config describes the pool stack to build.
type Config struct {
	// Kind is the storage backend.
	Kind Kind

	// Path is the device file for KindFile. Ignored for KindMemory.
	Path string

	// BlockCount and BlockSize fix the geometry.
	BlockCount int
	BlockSize  int

	// Verify wraps the pool in a VerifiedPool.
	Verify bool
}

// Open builds the pool described by config. The caller owns the
// returned pool and must Close it (normally by unmounting the volume
// that uses it).
func Open(config Config) (Pool, error) {
	var pool Pool
	switch config.Kind {
	case KindMemory, "":
		memory, err := NewMemoryPool(config.BlockCount, config.BlockSize)
		if err != nil {
			return nil, err
		}
		pool = memory
	case KindFile:
		if config.Path == "" {
			return nil, fmt.Errorf("file pool requires a device path")
		}
		file, err := NewFilePool(config.Path, config.BlockCount, config.BlockSize)
		if err != nil {
			return nil, err
		}
		pool = file
	default:
		return nil, fmt.Errorf("unknown block device kind %q", config.Kind)
	}

	if !config.Verify {
		return pool, nil
	}
	verified, err := NewVerifiedPool(pool)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("wrapping pool for verification: %w", err)
	}
	return verified, nil
}
