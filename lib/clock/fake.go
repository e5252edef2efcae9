// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sort"
	"sync"
	"time"
)

// FakeClock is a Clock whose time moves only when Advance is called.
// It is safe for concurrent use.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
	pending []*fakeTimer
	changed *sync.Cond
}

// fakeTimer is a registered After, Sleep, or Ticker waiter.
type fakeTimer struct {
	deadline time.Time
	channel  chan time.Time
	// period is non-zero for tickers, which re-arm after firing.
	period  time.Duration
	stopped bool
}

// Fake returns a FakeClock reading initial until advanced.
func Fake(initial time.Time) *FakeClock {
	clock := &FakeClock{current: initial}
	clock.changed = sync.NewCond(&clock.mu)
	return clock
}

// Now returns the fake current time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// After registers a one-shot waiter.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	channel := make(chan time.Time, 1)
	if d <= 0 {
		channel <- c.current
		return channel
	}
	c.addLocked(&fakeTimer{deadline: c.current.Add(d), channel: channel})
	return channel
}

// NewTicker registers a periodic waiter.
func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive interval for NewTicker")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	timer := &fakeTimer{
		deadline: c.current.Add(d),
		channel:  make(chan time.Time, 1),
		period:   d,
	}
	c.addLocked(timer)
	return &Ticker{
		C: timer.channel,
		stop: func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			timer.stopped = true
		},
	}
}

// Sleep blocks until the clock has been advanced by d.
func (c *FakeClock) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	<-c.After(d)
}

// Advance moves the clock forward by d and fires, in deadline order,
// every waiter whose deadline is now due. A ticker spanning several
// periods fires once per period; sends never block, so ticks beyond
// the channel's buffer are dropped.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	target := c.current
	c.mu.Unlock()

	for {
		due := c.takeDue(target)
		if len(due) == 0 {
			return
		}
		for _, timer := range due {
			select {
			case timer.channel <- target:
			default:
			}
		}
	}
}

// WaitForTimers blocks until at least n waiters are registered and
// not yet fired or stopped.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.activeLocked() < n {
		c.changed.Wait()
	}
}

// PendingCount returns the number of active waiters.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeLocked()
}

func (c *FakeClock) addLocked(timer *fakeTimer) {
	c.pending = append(c.pending, timer)
	c.changed.Broadcast()
}

// takeDue removes due waiters, re-arms tickers, and returns the
// waiters to fire sorted by deadline.
func (c *FakeClock) takeDue(target time.Time) []*fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()

	var due, remaining []*fakeTimer
	for _, timer := range c.pending {
		switch {
		case timer.stopped:
		case !timer.deadline.After(target):
			due = append(due, timer)
		default:
			remaining = append(remaining, timer)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].deadline.Before(due[j].deadline) })

	for _, timer := range due {
		if timer.period > 0 {
			timer.deadline = timer.deadline.Add(timer.period)
			remaining = append(remaining, timer)
		}
	}
	c.pending = remaining
	return due
}

func (c *FakeClock) activeLocked() int {
	count := 0
	for _, timer := range c.pending {
		if !timer.stopped {
			count++
		}
	}
	return count
}
