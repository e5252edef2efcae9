// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// wall reads the operating system clock.
type wall struct{}

// Real returns the production Clock.
func Real() Clock { return wall{} }

func (wall) Now() time.Time                         { return time.Now() }
func (wall) Sleep(d time.Duration)                  { time.Sleep(d) }
func (wall) After(d time.Duration) <-chan time.Time { return time.After(d) }

func (wall) NewTicker(d time.Duration) *Ticker {
	underlying := time.NewTicker(d)
	return &Ticker{C: underlying.C, stop: underlying.Stop}
}
