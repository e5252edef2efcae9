// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package state holds the locally cached model of one remote
// workspace: categories, channels, users, and messages.
//
// [Cache] is the single owner of every cached entity. It enforces the
// referential invariants between the four kinds at write time:
//
//   - a channel that names a category requires that category to be
//     cached already
//   - a message requires both its author (user) and its channel
//
// A write that would break an invariant returns a [*ConsistencyError]
// and leaves the cache untouched. Saves are whole-value upserts keyed
// by identifier: re-saving an ID replaces the previous value without
// merging fields. Nothing is ever deleted.
//
// All operations, reads included, serialize on one mutex scoped to the
// whole cache. Invariant checks therefore see a consistent snapshot of
// every table they consult. Callers receive copies; no pointer into the
// cache's maps escapes.
//
// [Registry] is a query layer over the cache used by reconciliation and
// by handler contexts: lookup by name within a server and listing the
// channels under a category. Name lookups return the first match in
// insertion order and fail with [*EntityNotFoundError] on a miss; the
// category listing returns an empty slice instead of failing.
package state
