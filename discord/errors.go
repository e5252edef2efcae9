// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package discord

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// APIError is a structured error response from the Discord API.
// Callers can use errors.As to extract it:
//
//	var apiErr *APIError
//	if errors.As(err, &apiErr) {
//	    if apiErr.Code == CodeMissingAccess { ... }
//	}
type APIError struct {
	// Code is the Discord JSON error code (e.g. 50001), or zero when
	// the body carried none.
	Code int `json:"code"`
	// Message is the human-readable description from the server.
	Message string `json:"message"`
	// StatusCode is the HTTP status code of the response.
	StatusCode int `json:"-"`
	// RetryAfter is how long to wait before retrying a rate-limited
	// request. Zero unless the response was a 429.
	RetryAfter time.Duration `json:"-"`
	// Global is set when a rate limit applies to every route.
	Global bool `json:"global"`
}

func (e *APIError) Error() string {
	if e.StatusCode == http.StatusTooManyRequests {
		return fmt.Sprintf("discord: rate limited (retry after %s): %s", e.RetryAfter, e.Message)
	}
	return fmt.Sprintf("discord: %d (%d): %s", e.Code, e.StatusCode, e.Message)
}

// HTTPStatus returns the HTTP status of the response.
func (e *APIError) HTTPStatus() int { return e.StatusCode }

// JSON error codes the engine reacts to.
const (
	CodeUnknownChannel    = 10003
	CodeUnknownGuild      = 10004
	CodeUnknownMessage    = 10008
	CodeMissingAccess     = 50001
	CodeMissingPermission = 50013
	CodeInvalidFormBody   = 50035
)

// IsAPIError reports whether err is an *APIError with the given JSON
// error code.
func IsAPIError(err error, code int) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == code
	}
	return false
}

// IsRateLimited reports whether err is a 429 from the API.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}
