// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"errors"
	"fmt"
)

// RemoteReadError reports a failed read of remote state during
// discovery. Entities recorded before the failure stay recorded.
type RemoteReadError struct {
	Op  string
	Err error
}

func (e *RemoteReadError) Error() string {
	return fmt.Sprintf("engine: %s: reading remote state: %v", e.Op, e.Err)
}

func (e *RemoteReadError) Unwrap() error { return e.Err }

// IsRemoteReadError reports whether err is or wraps a
// *RemoteReadError.
func IsRemoteReadError(err error) bool {
	var readErr *RemoteReadError
	return errors.As(err, &readErr)
}

// ReconciliationError reports the step that aborted a reconcile run.
// Op names the step, for example `ensure channel "2026-03-03"`.
type ReconciliationError struct {
	Op  string
	Err error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("engine: reconcile: %s: %v", e.Op, e.Err)
}

func (e *ReconciliationError) Unwrap() error { return e.Err }

// IsReconciliationError reports whether err is or wraps a
// *ReconciliationError.
func IsReconciliationError(err error) bool {
	var reconcileErr *ReconciliationError
	return errors.As(err, &reconcileErr)
}
