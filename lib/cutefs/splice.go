// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cutefs

import (
	"io"
	"math"
)

// Read reads up to len(buf) bytes at the handle's position and
// advances it. Reading at the end of the file returns 0 bytes; reading
// from a position past the end fails with ErrInvalid.
//
// If a block transfer fails partway, Read returns the bytes copied so
// far together with ErrIO.
func (v *Volume) Read(handle *Handle, buf []byte) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.checkHandle(handle); err != nil {
		return 0, opError("read", "", err)
	}
	if handle.entry.isDir() {
		return 0, opError("read", handle.entry.path(), ErrIsDirectory)
	}
	if !handle.flags.readable() {
		return 0, opError("read", handle.entry.path(), ErrInvalid)
	}

	count, err := v.readAt(handle.entry, handle.position, buf)
	handle.position += int64(count)
	return count, opError("read", handle.entry.path(), err)
}

// Write writes buf at the handle's position and advances it, growing
// the file as needed.
//
// When the pool cannot supply every block the write needs, the write
// is shortened to end one byte before the end of the last block that
// can be granted, and the shortened count is returned without an
// error. Callers must check the count. If nothing at all fits,
// ErrNoSpace is returned.
func (v *Volume) Write(handle *Handle, buf []byte) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.checkHandle(handle); err != nil {
		return 0, opError("write", "", err)
	}
	if handle.entry.isDir() {
		return 0, opError("write", handle.entry.path(), ErrIsDirectory)
	}
	if !handle.flags.writable() {
		return 0, opError("write", handle.entry.path(), ErrInvalid)
	}

	count, err := v.writeAt(handle.entry, handle.position, buf)
	handle.position += int64(count)
	handle.size = handle.entry.size
	return count, opError("write", handle.entry.path(), err)
}

// Seek sets the handle's position to offset bytes from the start. A
// position past the end of the file is allowed; a later write fills
// the gap with whatever the newly allocated blocks hold.
func (v *Volume) Seek(handle *Handle, offset int64) (int64, error) {
	return v.seekFrom(handle, offset, io.SeekStart)
}

// Tell returns the handle's position.
func (v *Volume) Tell(handle *Handle) (int64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.checkHandle(handle); err != nil {
		return 0, opError("tell", "", err)
	}
	return handle.position, nil
}

func (v *Volume) seekFrom(handle *Handle, offset int64, whence int) (int64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.checkHandle(handle); err != nil {
		return 0, opError("seek", "", err)
	}

	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = handle.position
	case io.SeekEnd:
		base = handle.size
	default:
		return 0, opError("seek", handle.entry.path(), ErrInvalid)
	}
	if offset > 0 && base > math.MaxInt64-offset {
		return 0, opError("seek", handle.entry.path(), ErrInvalid)
	}
	position := base + offset
	if position < 0 {
		return 0, opError("seek", handle.entry.path(), ErrInvalid)
	}
	handle.position = position
	return position, nil
}

// readAt copies file bytes starting at position into buf, capped at
// the file size.
func (v *Volume) readAt(e *entry, position int64, buf []byte) (int, error) {
	if position > e.size {
		return 0, ErrInvalid
	}
	length := min(int64(len(buf)), e.size-position)
	if length == 0 {
		return 0, nil
	}
	if v.blocksFor(position+length) > int64(len(e.blocks)) {
		return 0, ErrInvalid
	}
	return v.transfer(e, position, buf[:length], false)
}

// writeAt copies buf into the file starting at position, growing the
// block list first and clamping the write to the blocks available.
func (v *Volume) writeAt(e *entry, position int64, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	if position < 0 {
		return 0, ErrInvalid
	}

	blockSize := int64(v.blockSize)
	// No block exists at or past the volume's capacity, so nothing
	// written there can fit. This also keeps position+len(buf) far
	// from overflowing.
	if position >= int64(v.blockCount)*blockSize {
		return 0, ErrNoSpace
	}
	length := int64(len(buf))
	have := int64(len(e.blocks))
	needed := v.blocksFor(position + length)

	if needed-have > int64(v.freeBlocks) {
		// Shorten the write so that it ends on the last byte-but-one
		// of the last block that can still be granted.
		lastBlock := have + int64(v.freeBlocks) - 1
		length = lastBlock*blockSize + (blockSize - 1) - position
		if length <= 0 {
			return 0, ErrNoSpace
		}
		v.logger.Debug("write clamped to free space",
			"entry", e.path(),
			"requested", len(buf),
			"clamped", length,
			"free_blocks", v.freeBlocks,
		)
		buf = buf[:length]
		needed = v.blocksFor(position + length)
	}

	if needed > have {
		if err := v.grow(e, int(needed-have)); err != nil {
			return 0, err
		}
	}

	count, err := v.transfer(e, position, buf, true)
	if end := position + int64(count); end > e.size {
		e.size = end
	}
	return count, err
}

// transfer moves buf to or from the file's blocks starting at
// position. A block only partly covered by the range goes through the
// scratch buffer: read in full, then sliced out of or merged into and
// written back. A block the range covers entirely moves directly
// between buf and the pool.
//
// The blocks covering the range must already exist.
func (v *Volume) transfer(e *entry, position int64, buf []byte, write bool) (int, error) {
	blockSize := int64(v.blockSize)
	done := 0
	for done < len(buf) {
		at := position + int64(done)
		index := at / blockSize
		offset := at % blockSize
		count := min(blockSize-offset, int64(len(buf)-done))
		block := e.blocks[index]
		chunk := buf[done : done+int(count)]

		var ok bool
		switch {
		case count == blockSize && write:
			ok = v.pool.WriteBlock(block, chunk)
		case count == blockSize:
			ok = v.pool.ReadBlock(block, chunk)
		default:
			ok = v.pool.ReadBlock(block, v.scratch)
			if ok && write {
				copy(v.scratch[offset:], chunk)
				ok = v.pool.WriteBlock(block, v.scratch)
			} else if ok {
				copy(chunk, v.scratch[offset:offset+count])
			}
		}

		if !ok {
			v.logger.Warn("block transfer failed",
				"entry", e.path(),
				"block_index", index,
				"write", write,
				"transferred", done,
			)
			return done, ErrIO
		}
		done += int(count)
	}
	return done, nil
}
