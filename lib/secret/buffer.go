// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// Buffer is a fixed-size region of locked, off-heap memory. A Buffer
// must not be copied.
type Buffer struct {
	mu     sync.Mutex
	region []byte
	closed bool
}

// New maps a zero-filled region of size bytes and locks it.
func New(size int) (*Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("secret: buffer size must be positive, got %d", size)
	}

	region, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("secret: mmap: %w", err)
	}
	if err := unix.Mlock(region); err != nil {
		_ = unix.Munmap(region)
		return nil, fmt.Errorf("secret: mlock: %w", err)
	}
	// Best effort: older kernels reject MADV_DONTDUMP, and the region
	// is still locked without it.
	_ = unix.Madvise(region, unix.MADV_DONTDUMP)

	return &Buffer{region: region}, nil
}

// NewFromBytes copies source into a new Buffer and zeroes source.
func NewFromBytes(source []byte) (*Buffer, error) {
	if len(source) == 0 {
		return nil, errors.New("secret: empty source")
	}
	buffer, err := New(len(source))
	if err != nil {
		return nil, err
	}
	copy(buffer.region, source)
	Zero(source)
	return buffer, nil
}

// Bytes returns the region itself. The slice is invalid after Close.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mustBeOpen()
	return b.region
}

// String returns a heap copy of the contents. Use it only where an API
// demands a string, such as an HTTP header value.
func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mustBeOpen()
	return string(b.region)
}

// Len returns the size of the region, or zero after Close.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.region)
}

// Equal compares the contents with other in constant time.
func (b *Buffer) Equal(other []byte) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mustBeOpen()
	return subtle.ConstantTimeCompare(b.region, other) == 1
}

func (b *Buffer) mustBeOpen() {
	if b.closed {
		panic("secret: use of closed buffer")
	}
}

// Close zeroes, unlocks, and unmaps the region. It is safe to call
// more than once.
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	Zero(b.region)
	var errs []error
	if err := unix.Munlock(b.region); err != nil {
		errs = append(errs, fmt.Errorf("secret: munlock: %w", err))
	}
	if err := unix.Munmap(b.region); err != nil {
		errs = append(errs, fmt.Errorf("secret: munmap: %w", err))
	}
	b.region = nil
	return errors.Join(errs...)
}

// Zero overwrites data with zero bytes.
func Zero(data []byte) {
	clear(data)
}
