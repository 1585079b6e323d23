// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for cutefs packages.
//
// [FaultPool] wraps a [blockdev.Pool] and fails allocations or block
// transfers on demand, so tests can drive the engine's out-of-space
// and I/O error paths without a real device misbehaving.
//
// [MountDir] creates a temporary directory for FUSE mount points.
//
// [RequireReceive] and [RequireClosed] wait on a channel with a
// timeout, for tests whose failure mode is a hang (concurrent workers,
// calls through a FUSE mount).
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
