// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"testing"
	"time"
)

// RequireReceive returns the next value from ch, failing the test if
// none arrives within timeout or ch is closed first. what describes
// the wait for the failure message: a plain string, or a format
// string and its arguments.
//
//	err := testutil.RequireReceive(t, done, 5*time.Second, "writing %s", path)
func RequireReceive[T any](t testing.TB, ch <-chan T, timeout time.Duration, what ...any) T {
	t.Helper()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case value, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed without a value while %s", describe(what))
		}
		return value
	case <-timer.C:
		t.Fatalf("timed out after %v %s", timeout, describe(what))
	}
	panic("unreachable")
}

// RequireClosed waits for ch to be closed (or to deliver a value),
// failing the test after timeout.
func RequireClosed(t testing.TB, ch <-chan struct{}, timeout time.Duration, what ...any) {
	t.Helper()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
	case <-timer.C:
		t.Fatalf("timed out after %v waiting for close: %s", timeout, describe(what))
	}
}

func describe(what []any) string {
	switch {
	case len(what) == 0:
		return "(no description)"
	case len(what) == 1:
		return fmt.Sprint(what[0])
	}
	if format, ok := what[0].(string); ok {
		return fmt.Sprintf(format, what[1:]...)
	}
	return fmt.Sprint(what...)
}
