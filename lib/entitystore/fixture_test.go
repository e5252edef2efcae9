// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package entitystore

import (
	"context"
	"testing"
	"time"

	"github.com/discordia-project/discordia/lib/snowflake"
	"github.com/discordia-project/discordia/lib/state"
)

var fixtureTime = time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC)

type fixture struct {
	category state.Category
	channel  state.Channel
	user     state.User
	messages []state.Message
}

func newFixture() fixture {
	f := fixture{
		category: state.Category{ID: 10, Name: "Log", ServerID: 1, Position: 2, CreatedAt: fixtureTime},
		channel:  state.Channel{ID: 20, Name: "daily", CategoryID: 10, ServerID: 1, Position: 1, Topic: "notes", CreatedAt: fixtureTime},
		user:     state.User{ID: 30, Username: "alice", Discriminator: "0001", CreatedAt: fixtureTime},
	}
	for i := range 5 {
		f.messages = append(f.messages, state.Message{
			ID:        snowflake.ID(100 + i),
			Content:   "message",
			AuthorID:  30,
			ChannelID: 20,
			Timestamp: fixtureTime.Add(time.Duration(i) * time.Minute),
		})
	}
	f.messages[4].EditedAt = fixtureTime.Add(time.Hour)
	return f
}

// saveAll writes the fixture to sink in dependency order.
func (f fixture) saveAll(t *testing.T, sink Sink) {
	t.Helper()
	ctx := context.Background()
	if err := sink.SaveCategory(ctx, f.category); err != nil {
		t.Fatalf("SaveCategory: %v", err)
	}
	if err := sink.SaveChannel(ctx, f.channel); err != nil {
		t.Fatalf("SaveChannel: %v", err)
	}
	if err := sink.SaveUser(ctx, f.user); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	for _, message := range f.messages {
		if err := sink.SaveMessage(ctx, message); err != nil {
			t.Fatalf("SaveMessage: %v", err)
		}
	}
}

func messageIDs(messages []state.Message) []int64 {
	ids := make([]int64, len(messages))
	for i, message := range messages {
		ids[i] = message.ID.Int64()
	}
	return ids
}
