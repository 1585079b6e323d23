// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the cutefs
// binary.
//
// Configuration is loaded from a single file specified by either the
// CUTEFS_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There is no automatic file search and environment
// variables never override values in the file.
//
// The file has four sections: device (the block pool), mount (the FUSE
// mountpoint), image (the saved volume image), and log. Path fields
// expand ${HOME} and ${VAR:-default} after loading. [Config.Validate]
// reports every problem in one joined error.
package config
