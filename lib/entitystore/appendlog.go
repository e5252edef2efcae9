// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package entitystore

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/discordia-project/discordia/lib/clock"
	"github.com/discordia-project/discordia/lib/codec"
	"github.com/discordia-project/discordia/lib/snowflake"
	"github.com/discordia-project/discordia/lib/state"
)

// RecordType names the entity kind a log record carries.
type RecordType string

const (
	RecordCategory RecordType = "category"
	RecordChannel  RecordType = "channel"
	RecordUser     RecordType = "user"
	RecordMessage  RecordType = "message"
)

// Record is one entry of the append log. Data holds the entity's CBOR
// encoding.
type Record struct {
	Type     RecordType       `cbor:"type"`
	Recorded time.Time        `cbor:"recorded"`
	Data     codec.RawMessage `cbor:"data"`
}

// ErrTruncated reports a partial record at the end of the log, left
// by a write that was interrupted.
var ErrTruncated = errors.New("entitystore: append log ends in a partial record")

// ErrLocked reports that another process holds the log.
var ErrLocked = errors.New("entitystore: append log is locked by another process")

// AppendLog is a Sink that appends every save to a file as a CBOR
// sequence. The file is held under an exclusive flock for the life of
// the AppendLog.
type AppendLog struct {
	mu        sync.Mutex
	file      *os.File
	path      string
	clock     clock.Clock
	discarded int64
}

// OpenAppendLog opens or creates the log at path and locks it. It
// fails with ErrLocked if another process has it open.
//
// A partial record at the end of the file, left by a write that was
// interrupted, is cut off before the first append so that new records
// start on a record boundary. [AppendLog.Discarded] reports how many
// bytes were removed.
func OpenAppendLog(path string, clk clock.Clock) (*AppendLog, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("entitystore: opening append log: %w", err)
	}
	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		file.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, fmt.Errorf("%w: %s", ErrLocked, path)
		}
		return nil, fmt.Errorf("entitystore: locking %s: %w", path, err)
	}
	discarded, err := cutPartialTail(file)
	if err != nil {
		unix.Flock(int(file.Fd()), unix.LOCK_UN)
		file.Close()
		return nil, fmt.Errorf("entitystore: recovering %s: %w", path, err)
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &AppendLog{file: file, path: path, clock: clk, discarded: discarded}, nil
}

// cutPartialTail truncates file after its last whole record and
// returns the number of bytes dropped. A record that is complete but
// undecodable is an error; only a short final record is dropped.
func cutPartialTail(file *os.File) (int64, error) {
	info, err := file.Stat()
	if err != nil {
		return 0, err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}

	decoder := codec.NewDecoder(bufio.NewReader(file))
	var whole int64
	for {
		var record Record
		err := decoder.Decode(&record)
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("decoding record at offset %d: %w", whole, err)
		}
		whole = int64(decoder.NumBytesRead())
	}

	if err := file.Truncate(whole); err != nil {
		return 0, err
	}
	if err := file.Sync(); err != nil {
		return 0, err
	}
	return info.Size() - whole, nil
}

// Path returns the file path.
func (l *AppendLog) Path() string { return l.path }

// Discarded returns the size of the partial record removed when the
// log was opened, or zero if the file ended cleanly.
func (l *AppendLog) Discarded() int64 { return l.discarded }

// Close releases the lock and closes the file.
func (l *AppendLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	err := l.file.Close()
	l.file = nil
	return err
}

func (l *AppendLog) append(recordType RecordType, entity any) error {
	data, err := codec.Marshal(entity)
	if err != nil {
		return fmt.Errorf("entitystore: encoding %s: %w", recordType, err)
	}
	encoded, err := codec.Marshal(Record{Type: recordType, Recorded: l.clock.Now().UTC(), Data: data})
	if err != nil {
		return fmt.Errorf("entitystore: encoding record: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return fmt.Errorf("entitystore: append log %s is closed", l.path)
	}
	// One write per record keeps records whole under O_APPEND.
	if _, err := l.file.Write(encoded); err != nil {
		return fmt.Errorf("entitystore: appending to %s: %w", l.path, err)
	}
	return nil
}

func (l *AppendLog) SaveCategory(_ context.Context, category state.Category) error {
	return l.append(RecordCategory, category)
}

func (l *AppendLog) SaveChannel(_ context.Context, channel state.Channel) error {
	return l.append(RecordChannel, channel)
}

func (l *AppendLog) SaveUser(_ context.Context, user state.User) error {
	return l.append(RecordUser, user)
}

func (l *AppendLog) SaveMessage(_ context.Context, message state.Message) error {
	return l.append(RecordMessage, message)
}

// Messages scans the log. Later records for a message ID replace
// earlier ones.
func (l *AppendLog) Messages(ctx context.Context, channelID snowflake.ID, limit int) ([]state.Message, error) {
	if limit <= 0 {
		return []state.Message{}, nil
	}

	l.mu.Lock()
	records, err := ReadAll(l.path)
	l.mu.Unlock()
	if err != nil && !errors.Is(err, ErrTruncated) {
		return nil, err
	}

	latest := make(map[snowflake.ID]state.Message)
	var order []snowflake.ID
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if record.Type != RecordMessage {
			continue
		}
		var message state.Message
		if err := codec.Unmarshal(record.Data, &message); err != nil {
			return nil, fmt.Errorf("entitystore: decoding message record: %w", err)
		}
		if message.ChannelID != channelID {
			continue
		}
		if _, seen := latest[message.ID]; !seen {
			order = append(order, message.ID)
		}
		latest[message.ID] = message
	}

	messages := make([]state.Message, 0, len(order))
	for _, id := range order {
		messages = append(messages, latest[id])
	}
	return state.Recent(messages, limit), nil
}

// Ping checks that the log is open and its file still exists.
func (l *AppendLog) Ping(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return fmt.Errorf("entitystore: append log %s is closed", l.path)
	}
	if _, err := l.file.Stat(); err != nil {
		return fmt.Errorf("entitystore: %w", err)
	}
	return nil
}

// ReadAll decodes every record in the log at path. A missing file
// yields no records and no error. A partial final record yields the
// records before it and ErrTruncated.
func ReadAll(path string) ([]Record, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("entitystore: %w", err)
	}
	defer file.Close()

	var records []Record
	err = Scan(file, func(record Record) error {
		records = append(records, record)
		return nil
	})
	return records, err
}

// Scan decodes records from reader and calls fn for each one until
// the stream ends or fn returns an error.
func Scan(reader io.Reader, fn func(Record) error) error {
	decoder := codec.NewDecoder(bufio.NewReader(reader))
	for {
		var record Record
		err := decoder.Decode(&record)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return ErrTruncated
		}
		if err != nil {
			return fmt.Errorf("entitystore: decoding record: %w", err)
		}
		if err := fn(record); err != nil {
			return err
		}
	}
}

// Replay applies every record in the log at path to a snapshot, later
// records replacing earlier ones with the same ID. It can rebuild a
// cache when the SQLite store is unavailable.
func Replay(path string) (state.Snapshot, error) {
	records, err := ReadAll(path)
	if err != nil && !errors.Is(err, ErrTruncated) {
		return state.Snapshot{}, err
	}
	truncated := err

	var builder snapshotBuilder
	for _, record := range records {
		if err := builder.apply(record); err != nil {
			return state.Snapshot{}, err
		}
	}
	return builder.snapshot(), truncated
}

// snapshotBuilder keeps the latest value of each entity and the order
// in which IDs first appeared.
type snapshotBuilder struct {
	categories orderedSet[state.Category]
	channels   orderedSet[state.Channel]
	users      orderedSet[state.User]
	messages   orderedSet[state.Message]
}

func (b *snapshotBuilder) apply(record Record) error {
	var err error
	switch record.Type {
	case RecordCategory:
		var category state.Category
		if err = codec.Unmarshal(record.Data, &category); err == nil {
			b.categories.put(category.ID, category)
		}
	case RecordChannel:
		var channel state.Channel
		if err = codec.Unmarshal(record.Data, &channel); err == nil {
			b.channels.put(channel.ID, channel)
		}
	case RecordUser:
		var user state.User
		if err = codec.Unmarshal(record.Data, &user); err == nil {
			b.users.put(user.ID, user)
		}
	case RecordMessage:
		var message state.Message
		if err = codec.Unmarshal(record.Data, &message); err == nil {
			b.messages.put(message.ID, message)
		}
	default:
		return fmt.Errorf("entitystore: unknown record type %q", record.Type)
	}
	if err != nil {
		return fmt.Errorf("entitystore: decoding %s record: %w", record.Type, err)
	}
	return nil
}

func (b *snapshotBuilder) snapshot() state.Snapshot {
	return state.Snapshot{
		Categories: b.categories.values(),
		Channels:   b.channels.values(),
		Users:      b.users.values(),
		Messages:   b.messages.values(),
	}
}

type orderedSet[T any] struct {
	index map[snowflake.ID]int
	items []T
}

func (s *orderedSet[T]) put(id snowflake.ID, item T) {
	if s.index == nil {
		s.index = make(map[snowflake.ID]int)
	}
	if position, ok := s.index[id]; ok {
		s.items[position] = item
		return
	}
	s.index[id] = len(s.items)
	s.items = append(s.items, item)
}

func (s *orderedSet[T]) values() []T {
	if s.items == nil {
		return []T{}
	}
	return s.items
}
