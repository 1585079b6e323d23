// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"os"
	"testing"
)

// MountDir creates an empty directory in /tmp to use as a FUSE mount
// point. The directory is removed when the test completes; the test
// must unmount anything mounted on it first.
func MountDir(t *testing.T) string {
	t.Helper()
	directory, err := os.MkdirTemp("/tmp", "cutefs-test-*")
	if err != nil {
		t.Fatalf("creating mount directory: %v", err)
	}
	t.Cleanup(func() {
		_ = os.RemoveAll(directory)
	})
	return directory
}
