// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sqlitepool

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Config holds the parameters for opening a pool.
type Config struct {
	// Path is the database file. The parent directory must exist.
	Path string

	// PoolSize defaults to max(runtime.NumCPU(), 4). SQLite serializes
	// writers regardless; extra connections serve concurrent readers.
	PoolSize int

	// Migrations are applied in order by Open. See the package docs.
	Migrations []string

	// OnConnect runs once per connection after the pragmas.
	OnConnect func(conn *sqlite.Conn) error

	Logger *slog.Logger
}

// Pool is safe for concurrent use; the connections it hands out are
// not.
type Pool struct {
	inner  *sqlitex.Pool
	logger *slog.Logger
	path   string
}

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA foreign_keys=OFF",
	"PRAGMA temp_store=MEMORY",
}

// Open creates the pool and brings the schema up to date.
func Open(ctx context.Context, cfg Config) (*Pool, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlitepool: Path is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = max(runtime.NumCPU(), 4)
	}

	inner, err := sqlitex.NewPool(cfg.Path, sqlitex.PoolOptions{
		PoolSize: poolSize,
		PrepareConn: func(conn *sqlite.Conn) error {
			for _, pragma := range pragmas {
				if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
					return fmt.Errorf("sqlitepool: %s: %w", pragma, err)
				}
			}
			if cfg.OnConnect != nil {
				if err := cfg.OnConnect(conn); err != nil {
					return fmt.Errorf("sqlitepool: OnConnect: %w", err)
				}
			}
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sqlitepool: opening %s: %w", cfg.Path, err)
	}
	pool := &Pool{inner: inner, logger: logger, path: cfg.Path}

	from, to, err := pool.migrate(ctx, cfg.Migrations)
	if err != nil {
		inner.Close()
		return nil, err
	}

	logger.Info("sqlite pool opened",
		"path", cfg.Path,
		"pool_size", poolSize,
		"schema_version", to,
		"migrated_from", from,
	)
	return pool, nil
}

func (p *Pool) migrate(ctx context.Context, migrations []string) (from, to int, err error) {
	conn, err := p.Take(ctx)
	if err != nil {
		return 0, 0, err
	}
	defer p.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return 0, 0, fmt.Errorf("sqlitepool: beginning migration: %w", err)
	}
	defer endTransaction(&err)

	from, err = userVersion(conn)
	if err != nil {
		return 0, 0, err
	}
	if from > len(migrations) {
		return from, from, fmt.Errorf("sqlitepool: %s has schema version %d, newer than the %d this build knows", p.path, from, len(migrations))
	}
	for version := from; version < len(migrations); version++ {
		if err := sqlitex.ExecuteScript(conn, migrations[version], nil); err != nil {
			return from, version, fmt.Errorf("sqlitepool: migration %d: %w", version+1, err)
		}
	}
	if from < len(migrations) {
		// PRAGMA does not accept bound parameters.
		statement := fmt.Sprintf("PRAGMA user_version=%d", len(migrations))
		if err := sqlitex.ExecuteTransient(conn, statement, nil); err != nil {
			return from, from, fmt.Errorf("sqlitepool: setting user_version: %w", err)
		}
	}
	return from, len(migrations), nil
}

func userVersion(conn *sqlite.Conn) (int, error) {
	var version int
	err := sqlitex.ExecuteTransient(conn, "PRAGMA user_version", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			version = stmt.ColumnInt(0)
			return nil
		},
	})
	if err != nil {
		return 0, fmt.Errorf("sqlitepool: reading user_version: %w", err)
	}
	return version, nil
}

// SchemaVersion returns the database's PRAGMA user_version.
func (p *Pool) SchemaVersion(ctx context.Context) (int, error) {
	conn, err := p.Take(ctx)
	if err != nil {
		return 0, err
	}
	defer p.Put(conn)
	return userVersion(conn)
}

// Take borrows a connection, blocking until one is free or ctx ends.
// Every Take must be paired with a Put.
func (p *Pool) Take(ctx context.Context) (*sqlite.Conn, error) {
	conn, err := p.inner.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlitepool: take: %w", err)
	}
	return conn, nil
}

// Put returns a connection. Put(nil) is a no-op.
func (p *Pool) Put(conn *sqlite.Conn) {
	p.inner.Put(conn)
}

// Write runs fn inside an immediate transaction on a borrowed
// connection. The transaction commits if fn returns nil.
func (p *Pool) Write(ctx context.Context, fn func(conn *sqlite.Conn) error) (err error) {
	conn, err := p.Take(ctx)
	if err != nil {
		return err
	}
	defer p.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("sqlitepool: beginning transaction: %w", err)
	}
	defer endTransaction(&err)
	return fn(conn)
}

// Read runs fn on a borrowed connection without opening a write
// transaction.
func (p *Pool) Read(ctx context.Context, fn func(conn *sqlite.Conn) error) error {
	conn, err := p.Take(ctx)
	if err != nil {
		return err
	}
	defer p.Put(conn)
	return fn(conn)
}

// Close waits for borrowed connections to come back, then closes
// them all.
func (p *Pool) Close() error {
	if err := p.inner.Close(); err != nil {
		p.logger.Error("sqlite pool close failed", "path", p.path, "error", err)
		return fmt.Errorf("sqlitepool: closing %s: %w", p.path, err)
	}
	p.logger.Info("sqlite pool closed", "path", p.path)
	return nil
}
