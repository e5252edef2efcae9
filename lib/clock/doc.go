// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock lets code that depends on wall time run under a
// deterministic clock in tests.
//
// Pattern expansion reads "today" from a Clock, and the periodic
// reconcile and polling loops tick on a Clock's Ticker. Production wires
// [Real]; tests wire [Fake] and drive time forward explicitly:
//
//	fake := clock.Fake(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
//	go bot.Run(ctx)
//	fake.WaitForTimers(1)   // the loop has created its ticker
//	fake.Advance(time.Hour) // exactly one tick is delivered
//
// WaitForTimers closes the race between a goroutine registering a timer
// and the test advancing past it, so tests never sleep on real time.
package clock
