// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret holds credentials, such as the bot token, in memory
// that the Go runtime does not manage.
//
// A [Buffer] is an anonymous mmap region locked into RAM with mlock
// and, where the kernel supports it, excluded from core dumps. Close
// zeroes the region before unmapping it. Reading from a closed buffer
// panics.
//
// [ReadFile] loads a credential file (or stdin for "-"), trims
// surrounding whitespace, and zeroes the heap copy it read through.
package secret
