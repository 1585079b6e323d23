// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cutefs is a small hierarchical filesystem engine that keeps
// its directory tree in memory and stores file content in fixed-size
// blocks drawn from a [blockdev.Pool].
//
// A [Volume] is created by [Mount] and torn down by [Volume.Unmount].
// Every public method takes the volume's single mutex for its whole
// duration, so operations are serialized and never observe a
// half-applied change. The mutex is not reentrant: no method of Volume
// calls another public method while holding it.
//
// # Paths
//
// Paths are slash-separated. Leading separators and spaces are
// skipped, and the empty path (or one made only of separators) names
// the root directory. Names are at most [MaxNameLength] bytes and may
// not contain any of the bytes
//
//	" * + , : ; < = > ? [ \ ] |
//
// A control byte or space ends the path. A path that starts with a
// control byte is rejected outright.
//
// # Files
//
// A file owns an ordered list of block IDs and a byte size. Writes grow
// the list one block at a time; when the pool cannot supply every
// block a write needs, the write is shortened to fit what is available
// instead of failing. Partial head and tail blocks are staged through a
// single block-sized scratch buffer owned by the volume; fully covered
// blocks move directly between the caller's buffer and the pool.
//
// # Handles
//
// [Volume.Open] returns a [Handle] carrying the open flags and a byte
// position. An entry with open handles cannot be unlinked, renamed, or
// replaced by a rename. Directory handles are read with
// [Volume.ReadDir], which returns exactly one entry per call.
//
// # Errors
//
// Operations return [*OpError] values wrapping one of the sentinel
// errors in this package; use errors.Is to classify them. Translation
// to POSIX errno values is left to the adapter that exposes the volume
// (see lib/fusefs).
package cutefs
