// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package entitystore

import (
	"context"
	"path/filepath"
	"slices"
	"testing"

	"github.com/discordia-project/discordia/lib/state"
	"github.com/discordia-project/discordia/lib/testutil"
)

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "entities.db"), testutil.Logger(t))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteMessages(t *testing.T) {
	store := openTestSQLite(t)
	f := newFixture()
	f.saveAll(t, store)
	ctx := context.Background()

	tests := []struct {
		limit int
		want  []int64
	}{
		{0, []int64{}},
		{2, []int64{103, 104}},
		{5, []int64{100, 101, 102, 103, 104}},
		{50, []int64{100, 101, 102, 103, 104}},
	}
	for _, test := range tests {
		messages, err := store.Messages(ctx, f.channel.ID, test.limit)
		if err != nil {
			t.Fatalf("Messages(%d): %v", test.limit, err)
		}
		if got := messageIDs(messages); !slices.Equal(got, test.want) {
			t.Errorf("Messages(%d) = %v, want %v", test.limit, got, test.want)
		}
	}

	messages, err := store.Messages(ctx, f.channel.ID, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !messages[0].IsEdited() || !messages[0].EditedAt.Equal(f.messages[4].EditedAt) {
		t.Errorf("edited_at = %v, want %v", messages[0].EditedAt, f.messages[4].EditedAt)
	}
	if !messages[0].Timestamp.Equal(f.messages[4].Timestamp) {
		t.Errorf("timestamp = %v, want %v", messages[0].Timestamp, f.messages[4].Timestamp)
	}
}

func TestSQLiteUpsertReplaces(t *testing.T) {
	store := openTestSQLite(t)
	f := newFixture()
	f.saveAll(t, store)
	ctx := context.Background()

	renamed := f.channel
	renamed.Name = "renamed"
	renamed.Topic = ""
	renamed.CategoryID = 0
	if err := store.SaveChannel(ctx, renamed); err != nil {
		t.Fatalf("SaveChannel: %v", err)
	}

	snapshot, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snapshot.Channels) != 1 {
		t.Fatalf("got %d channels, want 1", len(snapshot.Channels))
	}
	got := snapshot.Channels[0]
	if got.Name != "renamed" || got.Topic != "" || got.IsCategorized() {
		t.Errorf("channel = %+v, want renamed, no topic, uncategorized", got)
	}
}

func TestSQLiteLoadRestoresCache(t *testing.T) {
	store := openTestSQLite(t)
	f := newFixture()
	f.saveAll(t, store)

	snapshot, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if counts := snapshot.Counts(); counts != (state.Counts{Categories: 1, Channels: 1, Users: 1, Messages: 5}) {
		t.Fatalf("counts = %+v", counts)
	}

	cache := state.NewCache(testutil.Logger(t))
	applied, err := cache.Restore(snapshot)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if applied != 8 {
		t.Errorf("applied %d entities, want 8", applied)
	}
	category, ok := cache.Category(f.category.ID)
	if !ok || category.Name != "Log" || category.Position != 2 || !category.CreatedAt.Equal(fixtureTime) {
		t.Errorf("category = %+v, %v", category, ok)
	}
	user, _ := cache.User(f.user.ID)
	if user.Discriminator != "0001" || user.Bot {
		t.Errorf("user = %+v", user)
	}
}

func TestSQLiteLoadKeepsInsertionOrder(t *testing.T) {
	store := openTestSQLite(t)
	ctx := context.Background()
	f := newFixture()
	if err := store.SaveCategory(ctx, f.category); err != nil {
		t.Fatal(err)
	}

	// Larger IDs first, with a duplicate name, so ID order and
	// insertion order disagree.
	for _, channel := range []state.Channel{
		{ID: 90, Name: "daily", ServerID: 1, CategoryID: f.category.ID},
		{ID: 50, Name: "daily", ServerID: 1},
		{ID: 70, Name: "weekly", ServerID: 1},
	} {
		if err := store.SaveChannel(ctx, channel); err != nil {
			t.Fatal(err)
		}
	}
	// Re-saving an existing row must not move it to the end.
	if err := store.SaveChannel(ctx, state.Channel{ID: 90, Name: "daily", ServerID: 1, Topic: "updated"}); err != nil {
		t.Fatal(err)
	}

	snapshot, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	var ids []int64
	for _, channel := range snapshot.Channels {
		ids = append(ids, channel.ID.Int64())
	}
	if !slices.Equal(ids, []int64{90, 50, 70}) {
		t.Fatalf("channel order = %v, want [90 50 70]", ids)
	}

	cache := state.NewCache(testutil.Logger(t))
	if _, err := cache.Restore(snapshot); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	first, err := state.NewRegistry(cache).ChannelByName("daily", 1)
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != 90 || first.Topic != "updated" {
		t.Errorf("first daily = %+v, want ID 90 with updated topic", first)
	}
}

func TestSQLitePersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entities.db")
	ctx := context.Background()

	first, err := OpenSQLite(ctx, path, nil)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	newFixture().saveAll(t, first)
	if err := first.Close(); err != nil {
		t.Fatal(err)
	}

	second, err := OpenSQLite(ctx, path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	if err := second.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
	messages, err := second.Messages(ctx, 20, 10)
	if err != nil || len(messages) != 5 {
		t.Errorf("Messages after reopen = %d, %v; want 5", len(messages), err)
	}
}
