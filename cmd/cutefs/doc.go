// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Cutefs serves an in-memory cutefs volume through FUSE and manages
// the image files volumes are saved to.
//
// "cutefs mount" builds the configured block device, restores the
// configured image if one exists, serves the volume until SIGINT or
// SIGTERM (or an external fusermount -u), saves the image, and
// unmounts. The "image" subcommands read image files offline.
package main
