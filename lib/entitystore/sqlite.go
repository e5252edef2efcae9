// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package entitystore

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/discordia-project/discordia/lib/snowflake"
	"github.com/discordia-project/discordia/lib/sqlitepool"
	"github.com/discordia-project/discordia/lib/state"
)

// Times are stored as Unix nanoseconds; a zero time.Time is NULL.
var migrations = []string{
	`
CREATE TABLE categories (
	id         INTEGER PRIMARY KEY,
	server_id  INTEGER NOT NULL,
	name       TEXT    NOT NULL,
	position   INTEGER NOT NULL,
	created_at INTEGER
);
CREATE TABLE channels (
	id          INTEGER PRIMARY KEY,
	server_id   INTEGER NOT NULL,
	category_id INTEGER,
	name        TEXT    NOT NULL,
	position    INTEGER NOT NULL,
	topic       TEXT    NOT NULL DEFAULT '',
	created_at  INTEGER
);
CREATE TABLE users (
	id            INTEGER PRIMARY KEY,
	username      TEXT    NOT NULL,
	discriminator TEXT    NOT NULL DEFAULT '',
	bot           INTEGER NOT NULL DEFAULT 0,
	created_at    INTEGER
);
CREATE TABLE messages (
	id         INTEGER PRIMARY KEY,
	channel_id INTEGER NOT NULL,
	author_id  INTEGER NOT NULL,
	content    TEXT    NOT NULL,
	timestamp  INTEGER NOT NULL,
	edited_at  INTEGER
);
CREATE INDEX messages_by_channel ON messages (channel_id, timestamp, id);
`,
	// Snowflake IDs double as rowids, so rowid order is ID order. The
	// inserted column records first-insertion order; upserts leave it
	// alone.
	`
ALTER TABLE categories ADD COLUMN inserted INTEGER;
ALTER TABLE channels ADD COLUMN inserted INTEGER;
ALTER TABLE users ADD COLUMN inserted INTEGER;
ALTER TABLE messages ADD COLUMN inserted INTEGER;
UPDATE categories SET inserted = id;
UPDATE channels SET inserted = id;
UPDATE users SET inserted = id;
UPDATE messages SET inserted = id;
`,
}

// nextInserted is the insertion sequence value for a new row of table.
func nextInserted(table string) string {
	return `(SELECT COALESCE(MAX(inserted), 0) + 1 FROM ` + table + `)`
}

// SQLiteStore is a Sink backed by a SQLite database.
type SQLiteStore struct {
	pool   *sqlitepool.Pool
	logger *slog.Logger
}

// OpenSQLite opens or creates the database at path and migrates it.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	pool, err := sqlitepool.Open(ctx, sqlitepool.Config{
		Path:       path,
		Migrations: migrations,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("entitystore: %w", err)
	}
	return &SQLiteStore{pool: pool, logger: logger}, nil
}

// Close closes the connection pool.
func (s *SQLiteStore) Close() error {
	return s.pool.Close()
}

func (s *SQLiteStore) exec(ctx context.Context, query string, args ...any) error {
	err := s.pool.Write(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, query, &sqlitex.ExecOptions{Args: args})
	})
	if err != nil {
		return fmt.Errorf("entitystore: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SaveCategory(ctx context.Context, category state.Category) error {
	return s.exec(ctx, `
		INSERT INTO categories (id, server_id, name, position, created_at, inserted)
		VALUES (?, ?, ?, ?, ?, `+nextInserted("categories")+`)
		ON CONFLICT (id) DO UPDATE SET
			server_id = excluded.server_id,
			name = excluded.name,
			position = excluded.position,
			created_at = excluded.created_at`,
		category.ID.Int64(), category.ServerID.Int64(), category.Name, category.Position, timeArg(category.CreatedAt))
}

func (s *SQLiteStore) SaveChannel(ctx context.Context, channel state.Channel) error {
	return s.exec(ctx, `
		INSERT INTO channels (id, server_id, category_id, name, position, topic, created_at, inserted)
		VALUES (?, ?, ?, ?, ?, ?, ?, `+nextInserted("channels")+`)
		ON CONFLICT (id) DO UPDATE SET
			server_id = excluded.server_id,
			category_id = excluded.category_id,
			name = excluded.name,
			position = excluded.position,
			topic = excluded.topic,
			created_at = excluded.created_at`,
		channel.ID.Int64(), channel.ServerID.Int64(), idArg(channel.CategoryID), channel.Name,
		channel.Position, channel.Topic, timeArg(channel.CreatedAt))
}

func (s *SQLiteStore) SaveUser(ctx context.Context, user state.User) error {
	bot := 0
	if user.Bot {
		bot = 1
	}
	return s.exec(ctx, `
		INSERT INTO users (id, username, discriminator, bot, created_at, inserted)
		VALUES (?, ?, ?, ?, ?, `+nextInserted("users")+`)
		ON CONFLICT (id) DO UPDATE SET
			username = excluded.username,
			discriminator = excluded.discriminator,
			bot = excluded.bot,
			created_at = excluded.created_at`,
		user.ID.Int64(), user.Username, user.Discriminator, bot, timeArg(user.CreatedAt))
}

func (s *SQLiteStore) SaveMessage(ctx context.Context, message state.Message) error {
	return s.exec(ctx, `
		INSERT INTO messages (id, channel_id, author_id, content, timestamp, edited_at, inserted)
		VALUES (?, ?, ?, ?, ?, ?, `+nextInserted("messages")+`)
		ON CONFLICT (id) DO UPDATE SET
			channel_id = excluded.channel_id,
			author_id = excluded.author_id,
			content = excluded.content,
			timestamp = excluded.timestamp,
			edited_at = excluded.edited_at`,
		message.ID.Int64(), message.ChannelID.Int64(), message.AuthorID.Int64(), message.Content,
		message.Timestamp.UnixNano(), timeArg(message.EditedAt))
}

const messageColumns = `id, channel_id, author_id, content, timestamp, edited_at`

// Messages returns the latest limit messages of a channel, oldest
// first.
func (s *SQLiteStore) Messages(ctx context.Context, channelID snowflake.ID, limit int) ([]state.Message, error) {
	if limit <= 0 {
		return []state.Message{}, nil
	}
	messages := []state.Message{}
	err := s.pool.Read(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`SELECT `+messageColumns+` FROM messages WHERE channel_id = ?
			 ORDER BY timestamp DESC, id DESC LIMIT ?`,
			&sqlitex.ExecOptions{
				Args: []any{channelID.Int64(), limit},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					messages = append(messages, scanMessage(stmt))
					return nil
				},
			})
	})
	if err != nil {
		return nil, fmt.Errorf("entitystore: reading messages for channel %d: %w", channelID, err)
	}
	slices.Reverse(messages)
	return messages, nil
}

// Load reads every stored entity, each kind in first-insertion order,
// for restoring into a cache. Rows migrated from a database without
// the inserted column keep ID order.
func (s *SQLiteStore) Load(ctx context.Context) (state.Snapshot, error) {
	var snapshot state.Snapshot
	err := s.pool.Read(ctx, func(conn *sqlite.Conn) error {
		queries := []struct {
			query string
			scan  func(*sqlite.Stmt)
		}{
			{
				`SELECT id, server_id, name, position, created_at FROM categories ORDER BY inserted`,
				func(stmt *sqlite.Stmt) {
					snapshot.Categories = append(snapshot.Categories, state.Category{
						ID:        snowflake.ID(stmt.ColumnInt64(0)),
						ServerID:  snowflake.ID(stmt.ColumnInt64(1)),
						Name:      stmt.ColumnText(2),
						Position:  stmt.ColumnInt(3),
						CreatedAt: columnTime(stmt, 4),
					})
				},
			},
			{
				`SELECT id, server_id, category_id, name, position, topic, created_at FROM channels ORDER BY inserted`,
				func(stmt *sqlite.Stmt) {
					snapshot.Channels = append(snapshot.Channels, state.Channel{
						ID:         snowflake.ID(stmt.ColumnInt64(0)),
						ServerID:   snowflake.ID(stmt.ColumnInt64(1)),
						CategoryID: snowflake.ID(stmt.ColumnInt64(2)),
						Name:       stmt.ColumnText(3),
						Position:   stmt.ColumnInt(4),
						Topic:      stmt.ColumnText(5),
						CreatedAt:  columnTime(stmt, 6),
					})
				},
			},
			{
				`SELECT id, username, discriminator, bot, created_at FROM users ORDER BY inserted`,
				func(stmt *sqlite.Stmt) {
					snapshot.Users = append(snapshot.Users, state.User{
						ID:            snowflake.ID(stmt.ColumnInt64(0)),
						Username:      stmt.ColumnText(1),
						Discriminator: stmt.ColumnText(2),
						Bot:           stmt.ColumnInt(3) != 0,
						CreatedAt:     columnTime(stmt, 4),
					})
				},
			},
			{
				`SELECT ` + messageColumns + ` FROM messages ORDER BY inserted`,
				func(stmt *sqlite.Stmt) {
					snapshot.Messages = append(snapshot.Messages, scanMessage(stmt))
				},
			},
		}
		for _, entry := range queries {
			scan := entry.scan
			err := sqlitex.Execute(conn, entry.query, &sqlitex.ExecOptions{
				ResultFunc: func(stmt *sqlite.Stmt) error {
					scan(stmt)
					return nil
				},
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return state.Snapshot{}, fmt.Errorf("entitystore: loading: %w", err)
	}
	return snapshot, nil
}

// Ping runs a trivial query.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.pool.Read(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.ExecuteTransient(conn, "SELECT 1", nil)
	})
}

func scanMessage(stmt *sqlite.Stmt) state.Message {
	return state.Message{
		ID:        snowflake.ID(stmt.ColumnInt64(0)),
		ChannelID: snowflake.ID(stmt.ColumnInt64(1)),
		AuthorID:  snowflake.ID(stmt.ColumnInt64(2)),
		Content:   stmt.ColumnText(3),
		Timestamp: time.Unix(0, stmt.ColumnInt64(4)).UTC(),
		EditedAt:  columnTime(stmt, 5),
	}
}

func idArg(id snowflake.ID) any {
	if id.IsZero() {
		return nil
	}
	return id.Int64()
}

func timeArg(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UnixNano()
}

func columnTime(stmt *sqlite.Stmt, column int) time.Time {
	if stmt.ColumnType(column) == sqlite.TypeNull {
		return time.Time{}
	}
	return time.Unix(0, stmt.ColumnInt64(column)).UTC()
}
