// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"log/slog"
	"strings"
	"testing"
)

// Logger returns a debug-level text logger whose output goes to t.Log.
func Logger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(data []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimRight(string(data), "\n"))
	return len(data), nil
}
