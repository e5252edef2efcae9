// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package templatedef

import (
	"errors"
	"fmt"
)

// ValidationError reports a template field that failed validation.
// Path locates the field from the template root, for example
// "categories[1].channels[0].bitrate".
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return "templatedef: " + e.Message
	}
	return fmt.Sprintf("templatedef: %s: %s", e.Path, e.Message)
}

// IsValidationError reports whether err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

func invalid(path, format string, args ...any) *ValidationError {
	return &ValidationError{Path: path, Message: fmt.Sprintf(format, args...)}
}

// join builds a nested field path.
func join(parent, field string) string {
	if parent == "" {
		return field
	}
	return parent + "." + field
}

func index(parent string, position int) string {
	return fmt.Sprintf("%s[%d]", parent, position)
}

func checkRange(path string, value, low, high int) error {
	if value < low || value > high {
		return invalid(path, "must be between %d and %d, got %d", low, high, value)
	}
	return nil
}
