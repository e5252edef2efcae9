// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"time"
)

// TB is the part of testing.TB the helpers call.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
}

// RequireReceive returns the next value sent on ch. The test fails if
// ch is closed first or nothing arrives within timeout. The trailing
// arguments describe what was awaited, either as a single value or as
// a format string and its operands:
//
//	plan := testutil.RequireReceive(t, plans, 5*time.Second, "plan for %s", serverID)
func RequireReceive[T any](t TB, ch <-chan T, timeout time.Duration, description ...any) T {
	t.Helper()
	deadline := time.NewTimer(timeout) //nolint:realclock bounds a hung test
	defer deadline.Stop()

	select {
	case value, open := <-ch:
		if open {
			return value
		}
		t.Fatalf("channel closed while waiting for %s", describe(description))
	case <-deadline.C:
		t.Fatalf("no value after %v while waiting for %s", timeout, describe(description))
	}
	var zero T
	return zero
}

func describe(description []any) string {
	switch {
	case len(description) == 0:
		return "a value"
	case len(description) == 1:
		return fmt.Sprint(description[0])
	}
	if format, ok := description[0].(string); ok {
		return fmt.Sprintf(format, description[1:]...)
	}
	return fmt.Sprint(description...)
}
