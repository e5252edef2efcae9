// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ExitError makes the binary exit with Code without printing an error
// line. Commands return it after writing their own output, e.g. a
// health check that found a failing component.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode is the process exit status main should use.
func (e *ExitError) ExitCode() int {
	return e.Code
}
