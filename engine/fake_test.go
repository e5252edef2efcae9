// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/discordia-project/discordia/discord"
	"github.com/discordia-project/discordia/lib/snowflake"
	"github.com/discordia-project/discordia/lib/state"
)

const testServer snowflake.ID = 777

var testTime = time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC)

// fakeRemote is an in-memory guild. Creations get increasing IDs
// derived from testTime so CreatedAt stays meaningful.
type fakeRemote struct {
	mu sync.Mutex

	channels []discord.Channel
	requests []discord.CreateChannelRequest
	sent     []discord.Message
	history  map[snowflake.ID][]discord.Message
	nextID   snowflake.ID
	self     discord.User

	listErr     error
	userErr     error
	failCreate  map[string]error
	listCalls   int
	createCalls int

	// lowercaseNames makes created text, forum, and announcement
	// channels come back lowercased with spaces as hyphens, as the
	// real API returns them.
	lowercaseNames bool

	// block, when set, holds every create call until it is closed.
	// entered receives the name of each create call before it blocks.
	block   chan struct{}
	entered chan string
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		history:    make(map[snowflake.ID][]discord.Message),
		nextID:     snowflake.FromTime(testTime),
		self:       discord.User{ID: 9000, Username: "discordia", Bot: true},
		failCreate: make(map[string]error),
	}
}

func (f *fakeRemote) mintID() snowflake.ID {
	f.nextID++
	return f.nextID
}

// addChannel seeds an existing remote channel and returns it.
func (f *fakeRemote) addChannel(channelType discord.ChannelType, name string, parentID snowflake.ID) discord.Channel {
	f.mu.Lock()
	defer f.mu.Unlock()
	channel := discord.Channel{
		ID:       f.mintID(),
		Type:     channelType,
		GuildID:  testServer,
		Name:     name,
		Position: len(f.channels),
		ParentID: parentID,
	}
	f.channels = append(f.channels, channel)
	return channel
}

func (f *fakeRemote) ListChannels(ctx context.Context) ([]discord.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]discord.Channel(nil), f.channels...), nil
}

func (f *fakeRemote) CreateCategory(ctx context.Context, name string, position int) (discord.Channel, error) {
	return f.create(ctx, discord.CreateChannelRequest{
		Name:     name,
		Type:     discord.ChannelTypeCategory,
		Position: &position,
	})
}

func (f *fakeRemote) CreateChannel(ctx context.Context, request discord.CreateChannelRequest) (discord.Channel, error) {
	return f.create(ctx, request)
}

func (f *fakeRemote) create(ctx context.Context, request discord.CreateChannelRequest) (discord.Channel, error) {
	if f.entered != nil {
		f.entered <- request.Name
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return discord.Channel{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if err := f.failCreate[request.Name]; err != nil {
		return discord.Channel{}, err
	}
	f.requests = append(f.requests, request)
	name := request.Name
	if f.lowercaseNames {
		switch request.Type {
		case discord.ChannelTypeText, discord.ChannelTypeForum, discord.ChannelTypeAnnouncement:
			name = strings.ReplaceAll(strings.ToLower(name), " ", "-")
		}
	}
	channel := discord.Channel{
		ID:       f.mintID(),
		Type:     request.Type,
		GuildID:  testServer,
		Name:     name,
		ParentID: request.ParentID,
		Topic:    request.Topic,
	}
	if request.Position != nil {
		channel.Position = *request.Position
	}
	f.channels = append(f.channels, channel)
	return channel, nil
}

func (f *fakeRemote) CreateMessage(ctx context.Context, channelID snowflake.ID, content string, replyTo snowflake.ID) (discord.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	message := discord.Message{
		ID:        f.mintID(),
		ChannelID: channelID,
		GuildID:   testServer,
		Author:    f.self,
		Content:   content,
		Timestamp: testTime,
	}
	if !replyTo.IsZero() {
		message.Reference = &discord.MessageReference{MessageID: replyTo, ChannelID: channelID}
	}
	f.sent = append(f.sent, message)
	return message, nil
}

func (f *fakeRemote) CurrentUser(ctx context.Context) (discord.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.userErr != nil {
		return discord.User{}, f.userErr
	}
	return f.self, nil
}

func (f *fakeRemote) ChannelMessages(ctx context.Context, channelID, after snowflake.ID, limit int) ([]discord.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var page []discord.Message
	for _, message := range f.history[channelID] {
		if message.ID > after {
			page = append(page, message)
		}
	}
	sort.Slice(page, func(i, j int) bool { return page[i].ID < page[j].ID })
	if len(page) > limit {
		page = page[:limit]
	}
	return page, nil
}

// postHistory adds a message to a channel's remote history.
func (f *fakeRemote) postHistory(channelID, id snowflake.ID, author discord.User, content string) discord.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	message := discord.Message{
		ID:        id,
		ChannelID: channelID,
		Author:    author,
		Content:   content,
		Timestamp: id.Time(),
	}
	f.history[channelID] = append(f.history[channelID], message)
	return message
}

func (f *fakeRemote) createdNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, len(f.requests))
	for i, request := range f.requests {
		names[i] = request.Name
	}
	return names
}

func (f *fakeRemote) sentMessages() []discord.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]discord.Message(nil), f.sent...)
}

// memorySink records sink writes and can be told to fail.
type memorySink struct {
	mu       sync.Mutex
	saved    []snowflake.ID
	messages []state.Message
	saveErr  error
	pingErr  error
}

func (s *memorySink) record(id snowflake.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, id)
	return nil
}

func (s *memorySink) SaveCategory(_ context.Context, category state.Category) error {
	return s.record(category.ID)
}

func (s *memorySink) SaveChannel(_ context.Context, channel state.Channel) error {
	return s.record(channel.ID)
}

func (s *memorySink) SaveUser(_ context.Context, user state.User) error {
	return s.record(user.ID)
}

func (s *memorySink) SaveMessage(_ context.Context, message state.Message) error {
	if err := s.record(message.ID); err != nil {
		return err
	}
	s.mu.Lock()
	s.messages = append(s.messages, message)
	s.mu.Unlock()
	return nil
}

func (s *memorySink) Messages(_ context.Context, channelID snowflake.ID, limit int) ([]state.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var selected []state.Message
	for _, message := range s.messages {
		if message.ChannelID == channelID {
			selected = append(selected, message)
		}
	}
	return state.Recent(selected, limit), nil
}

func (s *memorySink) Ping(context.Context) error { return s.pingErr }

func (s *memorySink) savedIDs() []snowflake.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]snowflake.ID(nil), s.saved...)
}

var errRemoteDown = errors.New("remote unavailable")
