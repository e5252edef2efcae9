// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"strings"
	"testing"
	"time"

	"github.com/discordia-project/discordia/lib/snowflake"
)

const testServer snowflake.ID = 4242

var baseTime = time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

func testCategory(id snowflake.ID, name string) Category {
	return Category{ID: id, Name: name, ServerID: testServer, CreatedAt: baseTime}
}

func testChannel(id snowflake.ID, name string, categoryID snowflake.ID) Channel {
	return Channel{ID: id, Name: name, CategoryID: categoryID, ServerID: testServer, CreatedAt: baseTime}
}

func testUser(id snowflake.ID) User {
	return User{ID: id, Username: "alice", Discriminator: "0", CreatedAt: baseTime}
}

func testMessage(id, channelID snowflake.ID, offset time.Duration) Message {
	return Message{
		ID:        id,
		Content:   "hello",
		AuthorID:  7,
		ChannelID: channelID,
		Timestamp: baseTime.Add(offset),
	}
}

func mustSave(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("save: %v", err)
	}
}

func TestSaveChannelRequiresCategory(t *testing.T) {
	cache := NewCache(nil)
	mustSave(t, cache.SaveCategory(testCategory(100, "General")))

	err := cache.SaveChannel(testChannel(1, "chat", 999))
	if err == nil {
		t.Fatal("expected ConsistencyError for missing category")
	}
	if !IsConsistencyError(err) {
		t.Fatalf("error type = %T, want *ConsistencyError", err)
	}
	if !strings.Contains(err.Error(), "Category 999 not found") {
		t.Errorf("error = %q, want it to contain %q", err, "Category 999 not found")
	}
	if _, ok := cache.Channel(1); ok {
		t.Error("rejected channel was stored")
	}

	mustSave(t, cache.SaveChannel(testChannel(1, "chat", 100)))
	mustSave(t, cache.SaveChannel(testChannel(2, "lobby", 0)))
	if counts := cache.Counts(); counts.Channels != 2 {
		t.Errorf("Channels = %d, want 2", counts.Channels)
	}
}

func TestSaveMessageRequiresUserAndChannel(t *testing.T) {
	cache := NewCache(nil)

	err := cache.SaveMessage(testMessage(10, 1, 0))
	if !IsConsistencyError(err) {
		t.Fatalf("missing user: err = %v, want ConsistencyError", err)
	}
	if !strings.Contains(err.Error(), "User 7 not found for message 10") {
		t.Errorf("error = %q", err)
	}

	mustSave(t, cache.SaveUser(testUser(7)))
	err = cache.SaveMessage(testMessage(10, 1, 0))
	if !IsConsistencyError(err) {
		t.Fatalf("missing channel: err = %v, want ConsistencyError", err)
	}
	if !strings.Contains(err.Error(), "Channel 1 not found for message 10") {
		t.Errorf("error = %q", err)
	}
	if counts := cache.Counts(); counts.Messages != 0 {
		t.Errorf("Messages = %d after rejected writes, want 0", counts.Messages)
	}

	mustSave(t, cache.SaveChannel(testChannel(1, "chat", 0)))
	mustSave(t, cache.SaveMessage(testMessage(10, 1, 0)))
}

func TestRejectedWriteLeavesStateUnchanged(t *testing.T) {
	cache := NewCache(nil)
	mustSave(t, cache.SaveCategory(testCategory(100, "General")))
	mustSave(t, cache.SaveChannel(testChannel(1, "chat", 100)))
	before := cache.Snapshot()

	// Re-saving an existing channel under a missing category must not
	// replace the stored value.
	if err := cache.SaveChannel(testChannel(1, "renamed", 555)); !IsConsistencyError(err) {
		t.Fatalf("err = %v, want ConsistencyError", err)
	}

	after := cache.Snapshot()
	if len(after.Channels) != len(before.Channels) || after.Channels[0] != before.Channels[0] {
		t.Errorf("channels changed: before %+v, after %+v", before.Channels, after.Channels)
	}
}

func TestUpsertReplacesWholeValue(t *testing.T) {
	cache := NewCache(nil)
	mustSave(t, cache.SaveCategory(testCategory(100, "General")))

	first := testChannel(1, "chat", 100)
	first.Topic = "first topic"
	first.Position = 3
	mustSave(t, cache.SaveChannel(first))

	second := testChannel(1, "chat-two", 0)
	mustSave(t, cache.SaveChannel(second))

	got, ok := cache.Channel(1)
	if !ok {
		t.Fatal("channel 1 missing")
	}
	if got != second {
		t.Errorf("Channel(1) = %+v, want %+v", got, second)
	}
	if got.Topic != "" || got.Position != 0 {
		t.Errorf("fields merged from first save: %+v", got)
	}
	if counts := cache.Counts(); counts.Channels != 1 {
		t.Errorf("Channels = %d, want 1", counts.Channels)
	}
}

func TestMessagesOrderingAndTruncation(t *testing.T) {
	cache := NewCache(nil)
	mustSave(t, cache.SaveUser(testUser(7)))
	mustSave(t, cache.SaveChannel(testChannel(1, "chat", 0)))
	mustSave(t, cache.SaveChannel(testChannel(2, "other", 0)))

	// Inserted out of order; IDs 13 and 14 share a timestamp.
	mustSave(t, cache.SaveMessage(testMessage(14, 1, 3*time.Minute)))
	mustSave(t, cache.SaveMessage(testMessage(11, 1, 0)))
	mustSave(t, cache.SaveMessage(testMessage(15, 1, 4*time.Minute)))
	mustSave(t, cache.SaveMessage(testMessage(13, 1, 3*time.Minute)))
	mustSave(t, cache.SaveMessage(testMessage(12, 1, time.Minute)))
	mustSave(t, cache.SaveMessage(testMessage(20, 2, 0)))

	ids := func(messages []Message) []snowflake.ID {
		var result []snowflake.ID
		for _, message := range messages {
			result = append(result, message.ID)
		}
		return result
	}

	tests := []struct {
		limit int
		want  []snowflake.ID
	}{
		{limit: 0, want: nil},
		{limit: -1, want: nil},
		{limit: 2, want: []snowflake.ID{14, 15}},
		{limit: 3, want: []snowflake.ID{13, 14, 15}},
		{limit: 5, want: []snowflake.ID{11, 12, 13, 14, 15}},
		{limit: 50, want: []snowflake.ID{11, 12, 13, 14, 15}},
	}
	for _, test := range tests {
		got := cache.Messages(1, test.limit)
		if got == nil {
			t.Errorf("Messages(limit=%d) returned nil, want empty slice", test.limit)
		}
		gotIDs := ids(got)
		if len(gotIDs) != len(test.want) {
			t.Errorf("Messages(limit=%d) = %v, want %v", test.limit, gotIDs, test.want)
			continue
		}
		for index := range gotIDs {
			if gotIDs[index] != test.want[index] {
				t.Errorf("Messages(limit=%d) = %v, want %v", test.limit, gotIDs, test.want)
				break
			}
		}
	}
}

func TestValidationRejectsBadEntities(t *testing.T) {
	cache := NewCache(nil)

	badChannel := testChannel(1, "bad/name", 0)
	if err := cache.SaveChannel(badChannel); err == nil {
		t.Error("expected error for channel name with '/'")
	}
	if err := cache.SaveUser(User{ID: 3, Username: "a"}); err == nil {
		t.Error("expected error for one-character username")
	}
	if err := cache.SaveCategory(Category{ID: 5, ServerID: testServer}); err == nil {
		t.Error("expected error for empty category name")
	}
	if IsConsistencyError(cache.SaveChannel(badChannel)) {
		t.Error("field validation failure reported as ConsistencyError")
	}
}

func TestSnapshotRestore(t *testing.T) {
	source := NewCache(nil)
	mustSave(t, source.SaveCategory(testCategory(100, "General")))
	mustSave(t, source.SaveChannel(testChannel(1, "chat", 100)))
	mustSave(t, source.SaveUser(testUser(7)))
	mustSave(t, source.SaveMessage(testMessage(11, 1, 0)))

	snapshot := source.Snapshot()
	// A dangling channel is skipped without blocking the rest.
	snapshot.Channels = append(snapshot.Channels, testChannel(2, "orphan", 404))

	target := NewCache(nil)
	applied, err := target.Restore(snapshot)
	if err == nil {
		t.Fatal("expected joined error for the orphan channel")
	}
	if !IsConsistencyError(err) {
		t.Errorf("Restore error = %v, want a ConsistencyError inside", err)
	}
	if applied != 4 {
		t.Errorf("applied = %d, want 4", applied)
	}
	if got, want := target.Counts(), source.Counts(); got != want {
		t.Errorf("Counts = %+v, want %+v", got, want)
	}
}

func TestChannelsFiltersByServer(t *testing.T) {
	cache := NewCache(nil)
	mustSave(t, cache.SaveChannel(testChannel(3, "gamma", 0)))
	mustSave(t, cache.SaveChannel(testChannel(1, "alpha", 0)))
	foreign := testChannel(2, "beta", 0)
	foreign.ServerID = testServer + 1
	mustSave(t, cache.SaveChannel(foreign))

	channels := cache.Channels(testServer)
	if len(channels) != 2 || channels[0].ID != 3 || channels[1].ID != 1 {
		t.Fatalf("Channels = %+v, want IDs [3 1]", channels)
	}
	if got := cache.Channels(999); got == nil || len(got) != 0 {
		t.Errorf("Channels(unknown server) = %v, want empty slice", got)
	}
}
