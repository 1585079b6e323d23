// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cutefs

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/bureau-foundation/cutefs/lib/blockdev"
)

// Options configures Mount.
type Options struct {
	// Pool supplies the blocks that hold file content. The volume
	// takes ownership and closes it on a successful Unmount.
	Pool blockdev.Pool

	// Logger receives diagnostic messages. If nil, errors are logged
	// to stderr.
	Logger *slog.Logger
}

// Volume is a mounted filesystem instance.
type Volume struct {
	// mu guards everything below, including the scratch buffer.
	mu sync.Mutex

	root       *entry
	pool       blockdev.Pool
	blockSize  int
	blockCount int
	freeBlocks int

	// scratch stages partial-block reads and writes.
	scratch []byte

	logger *slog.Logger
}

// Statfs describes the block usage of a volume.
type Statfs struct {
	BlockSize  int
	BlockCount int
	FreeBlocks int
}

// Mount creates a volume on top of options.Pool. The volume starts
// with an empty root directory and every block of the pool free.
func Mount(options Options) (*Volume, error) {
	if options.Pool == nil {
		return nil, fmt.Errorf("block pool is required")
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
	}

	geometry, err := options.Pool.Geometry()
	if err != nil {
		return nil, fmt.Errorf("reading pool geometry: %w", err)
	}
	if err := geometry.Validate(); err != nil {
		return nil, fmt.Errorf("unusable pool geometry: %w", err)
	}

	volume := &Volume{
		root:       &entry{name: ".", kind: TypeDirectory},
		pool:       options.Pool,
		blockSize:  geometry.BlockSize,
		blockCount: geometry.BlockCount,
		freeBlocks: geometry.BlockCount,
		scratch:    make([]byte, geometry.BlockSize),
		logger:     options.Logger,
	}

	volume.logger.Info("volume mounted",
		"block_size", geometry.BlockSize,
		"block_count", geometry.BlockCount,
	)
	return volume, nil
}

// Unmount deletes every entry under the root, closes the pool, and
// releases the scratch buffer. It fails without closing anything if
// an entry cannot be deleted (typically because a handle is still
// open); entries deleted before the failure stay deleted.
func (v *Volume) Unmount() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.root == nil {
		return opError("unmount", "", ErrClosed)
	}

	if err := v.deleteTree(v.root); err != nil {
		v.logger.Error("unmount failed", "error", err)
		return opError("unmount", "/", err)
	}

	var errs []error
	if err := v.pool.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing block pool: %w", err))
	}
	v.root = nil
	v.pool = nil
	v.scratch = nil

	v.logger.Info("volume unmounted")
	return errors.Join(errs...)
}

// Statfs reports block size, total blocks, and free blocks.
func (v *Volume) Statfs() (Statfs, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.root == nil {
		return Statfs{}, opError("statfs", "", ErrClosed)
	}
	return Statfs{
		BlockSize:  v.blockSize,
		BlockCount: v.blockCount,
		FreeBlocks: v.freeBlocks,
	}, nil
}

// deleteTree unlinks every descendant of directory, children before
// their parents, and stops at the first failure.
func (v *Volume) deleteTree(directory *entry) error {
	for len(directory.children) > 0 {
		child := directory.children[len(directory.children)-1]
		if child.isDir() {
			if err := v.deleteTree(child); err != nil {
				return err
			}
		}
		if err := v.unlinkEntry(child); err != nil {
			return fmt.Errorf("deleting %s: %w", child.path(), err)
		}
	}
	return nil
}
