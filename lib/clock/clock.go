// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock is the time source injected into components that read the
// current time or wait on timers.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the time once d has
	// elapsed. A non-positive d delivers immediately.
	After(d time.Duration) <-chan time.Time

	// NewTicker returns a Ticker firing every d. Panics if d <= 0.
	NewTicker(d time.Duration) *Ticker

	// Sleep blocks for at least d.
	Sleep(d time.Duration)
}

// Ticker delivers periodic ticks on C, which has capacity 1; ticks
// are dropped while the reader is behind, matching time.Ticker.
type Ticker struct {
	C <-chan time.Time

	stop func()
}

// Stop turns off the ticker. C is not closed.
func (t *Ticker) Stop() { t.stop() }
