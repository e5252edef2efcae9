// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil holds HTTP helpers shared by the REST client and the
// loops that call it.
//
// Response bodies are always read through a [MaxResponseSize] limit.
// [IsTransient] separates failures worth retrying on the next tick
// (timeouts, resets, server-side 5xx and 429) from the rest.
package netutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// MaxResponseSize bounds response body reads. Channel listings and
// message pages are far below it.
const MaxResponseSize int64 = 16 << 20

// maxErrorBody bounds the text quoted from an error response.
const maxErrorBody = 4 << 10

// ReadResponse reads a response body up to MaxResponseSize bytes.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// DecodeResponse reads a bounded JSON body into v.
func DecodeResponse(body io.Reader, v any) error {
	data, err := ReadResponse(body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}
	return nil
}

// ErrorBody returns the start of an error response for use in an
// error message. Read errors yield whatever was read before them.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))
	return strings.TrimSpace(string(data))
}

// RetryAfter parses a Retry-After header given in seconds, which may be
// fractional. It returns zero when the header is absent or malformed.
func RetryAfter(header http.Header) time.Duration {
	value := header.Get("Retry-After")
	if value == "" {
		return 0
	}
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}
