// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for the cutefs binary.
//
// [Version], [GitCommit], [GitDirty], and [BuildTime] are injected at
// build time via -ldflags -X. When the commit was not injected, it is
// taken from the VCS stamp the Go toolchain embeds in the binary, if
// any.
package version
