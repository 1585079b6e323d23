// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package fusefs exposes a cutefs volume as a POSIX filesystem through
// FUSE (github.com/hanwen/go-fuse/v2).
//
// Nodes hold no state of their own: every operation rebuilds the
// node's path from the go-fuse inode tree and calls the volume with
// it, so renames done through the mount stay coherent without any
// bookkeeping here. Open files map one-to-one onto cutefs handles;
// FUSE reads and writes carry explicit offsets, which the file handle
// turns into a seek followed by a transfer.
//
// Directory listings are driven by the volume's one-entry-per-call
// ReadDir: the kernel's readdir stream pulls entries from an open
// directory handle as it goes.
//
// [Errno] is the only place cutefs errors become errno values.
package fusefs
