// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"syscall"
)

// StatusCoder is implemented by API errors that carry an HTTP status.
type StatusCoder interface {
	HTTPStatus() int
}

// IsTransient reports whether err is a failure that may succeed if the
// same request is made later: a network timeout, a reset or refused
// connection, an unexpected EOF, or an API error with status 429 or
// 5xx. Context cancellation is not transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var status StatusCoder
	if errors.As(err, &status) {
		code := status.HTTPStatus()
		return code == http.StatusTooManyRequests || code >= 500
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.ECONNRESET || errno == syscall.ECONNREFUSED || errno == syscall.EPIPE
	}
	return false
}
