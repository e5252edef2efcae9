// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive] wraps the select-with-timeout pattern so that tests
// waiting on goroutines (the reconcile loop, the poller) fail with a
// message instead of hanging. It is the only place tests touch real
// wall-clock time; everything else runs on clock.Fake.
//
// [Logger] routes slog output through t.Log so component logs appear
// next to the failing test and only when it fails or runs verbose.
package testutil
