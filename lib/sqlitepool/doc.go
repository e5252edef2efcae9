// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool opens a pool of zombiezen.com/go/sqlite
// connections with a fixed set of pragmas and a versioned schema.
//
// Every connection runs with WAL journaling, synchronous=NORMAL, a
// five second busy timeout, and an in-memory temp store. Foreign keys
// stay off: the in-memory cache owns referential integrity and the
// database mirrors it.
//
// # Migrations
//
// [Config].Migrations is an ordered list of SQL scripts. Open applies
// every script past the database's PRAGMA user_version inside one
// immediate transaction and advances user_version to the list length.
// Scripts are append-only: once released, a script is never edited.
//
// Callers use the zombiezen types directly. [Pool.Write] and
// [Pool.Read] cover the common take/transaction/put sequence:
//
//	err := pool.Write(ctx, func(conn *sqlite.Conn) error {
//	    return sqlitex.Execute(conn, "INSERT ...", &sqlitex.ExecOptions{Args: args})
//	})
package sqlitepool
