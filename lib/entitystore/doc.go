// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package entitystore persists the four cached entity kinds outside
// the process.
//
// The in-memory [state.Cache] is authoritative while the bot runs. A
// [Sink] receives a copy of every write after the cache has accepted
// it, so a sink never sees an entity that violates the cache's
// reference rules. Two sinks are provided:
//
//   - [SQLiteStore] keeps the latest version of each entity in SQLite
//     and can warm-start a cache with [SQLiteStore.Load].
//   - [AppendLog] appends every write, as a CBOR record, to a file
//     held under an exclusive flock.
//
// [Fanout] writes to several sinks and keeps going when one fails.
//
// Snapshot files ([WriteSnapshotFile], [ReadSnapshotFile]) hold a
// whole [state.Snapshot] as zstd-compressed CBOR behind a magic header
// and a BLAKE3 digest.
package entitystore
