// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"errors"
	"fmt"
	"strings"

	"github.com/discordia-project/discordia/lib/snowflake"
)

// Kind names an entity kind in error messages.
type Kind string

const (
	KindCategory Kind = "category"
	KindChannel  Kind = "channel"
	KindUser     Kind = "user"
	KindMessage  Kind = "message"
)

// title returns the kind with an upper-case first letter.
func (k Kind) title() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

// ConsistencyError reports a write that references an entity the cache
// does not hold. The write it describes was not applied.
type ConsistencyError struct {
	// Kind and ID identify the missing referenced entity.
	Kind Kind
	ID   snowflake.ID
	// DependentKind and DependentID identify the entity being written.
	DependentKind Kind
	DependentID   snowflake.ID
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("%s %d not found for %s %d", e.Kind.title(), e.ID, e.DependentKind, e.DependentID)
}

// IsConsistencyError reports whether err is or wraps a *ConsistencyError.
func IsConsistencyError(err error) bool {
	var consistencyErr *ConsistencyError
	return errors.As(err, &consistencyErr)
}

// EntityNotFoundError reports a registry name lookup with no match.
type EntityNotFoundError struct {
	Kind     Kind
	Name     string
	ServerID snowflake.ID
}

func (e *EntityNotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found in server %d", e.Kind.title(), e.Name, e.ServerID)
}

// IsEntityNotFound reports whether err is or wraps an
// *EntityNotFoundError.
func IsEntityNotFound(err error) bool {
	var notFoundErr *EntityNotFoundError
	return errors.As(err, &notFoundErr)
}
