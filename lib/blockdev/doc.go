// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package blockdev provides the fixed-size block pools that back a
// cutefs volume.
//
// A [Pool] hands out opaque [BlockID] values one at a time, reads and
// writes whole blocks, and takes them back on Free. The filesystem
// engine never interprets a BlockID beyond storing and comparing it.
//
// Three implementations are provided:
//
//   - [MemoryPool] keeps every block in process memory. Nothing
//     survives Close.
//   - [FilePool] lays blocks out in a fixed-size file. Reads copy out
//     of a read-only shared memory map; writes go through pwrite so
//     that a write never faults a page in first.
//   - [VerifiedPool] wraps another pool and records a BLAKE3 digest of
//     every block it writes. A read whose content no longer matches
//     the recorded digest fails, which the engine treats as a transfer
//     failure.
//
// [Open] assembles the configured stack from a [Config].
//
// Allocation state is volatile in every implementation: the free map
// lives in memory and a FilePool starts with every block free.
package blockdev
