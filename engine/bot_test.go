// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/discordia-project/discordia/discord"
	"github.com/discordia-project/discordia/lib/clock"
	"github.com/discordia-project/discordia/lib/snowflake"
	"github.com/discordia-project/discordia/lib/state"
	"github.com/discordia-project/discordia/lib/templatedef"
	"github.com/discordia-project/discordia/lib/testutil"
)

// replyHandler answers every message with a fixed reply and remembers
// the history it saw.
type replyHandler struct {
	reply   string
	history []state.Message
}

func (h *replyHandler) CanHandle(context.Context, *MessageContext) bool { return true }

func (h *replyHandler) Handle(ctx context.Context, message *MessageContext) (string, error) {
	history, err := message.History(ctx, 0)
	if err != nil {
		return "", err
	}
	h.history = history
	return h.reply, nil
}

type botFixture struct {
	remote  *fakeRemote
	sink    *memorySink
	clock   *clock.FakeClock
	bot     *Bot
	channel discord.Channel
}

func newBotFixture(t *testing.T, configure func(*BotConfig)) *botFixture {
	t.Helper()
	fixture := &botFixture{
		remote: newFakeRemote(),
		sink:   &memorySink{},
		clock:  clock.Fake(testTime),
	}
	fixture.channel = fixture.remote.addChannel(discord.ChannelTypeText, "general", 0)

	config := BotConfig{
		ServerID: testServer,
		Remote:   fixture.remote,
		Sink:     fixture.sink,
		Clock:    fixture.clock,
		Location: time.UTC,
		Logger:   testutil.Logger(t),
	}
	if configure != nil {
		configure(&config)
	}
	bot, err := NewBot(config)
	if err != nil {
		t.Fatalf("NewBot: %v", err)
	}
	fixture.bot = bot
	return fixture
}

func (f *botFixture) discover(t *testing.T) {
	t.Helper()
	if _, err := f.bot.discovery.Discover(context.Background()); err != nil {
		t.Fatalf("Discover: %v", err)
	}
}

func incoming(id, channelID snowflake.ID, author discord.User, content string) discord.Message {
	return discord.Message{
		ID:        id,
		ChannelID: channelID,
		GuildID:   testServer,
		Author:    author,
		Content:   content,
		Timestamp: testTime,
	}
}

var alice = discord.User{ID: 501, Username: "alice"}

func TestNewBotValidates(t *testing.T) {
	remote := newFakeRemote()
	tests := []struct {
		name   string
		config BotConfig
	}{
		{"missing server", BotConfig{Remote: remote}},
		{"missing remote", BotConfig{ServerID: testServer}},
		{"negative interval", BotConfig{ServerID: testServer, Remote: remote, ReconcileInterval: -time.Second}},
		{"max length too large", BotConfig{ServerID: testServer, Remote: remote, MaxLength: 2001}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := NewBot(test.config); err == nil {
				t.Error("NewBot succeeded, want error")
			}
		})
	}
}

func TestHandleMessageRepliesAndRecords(t *testing.T) {
	handler := &replyHandler{reply: "pong"}
	fixture := newBotFixture(t, func(config *BotConfig) {
		config.Handlers = []Handler{handler}
	})
	fixture.discover(t)

	message := incoming(600, fixture.channel.ID, alice, "ping")
	if err := fixture.bot.HandleMessage(context.Background(), message); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	if len(handler.history) != 1 || handler.history[0].ID != message.ID {
		t.Errorf("handler history = %+v, want the incoming message", handler.history)
	}
	sent := fixture.remote.sentMessages()
	if len(sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sent))
	}
	if sent[0].Content != "pong" || sent[0].Reference == nil || sent[0].Reference.MessageID != message.ID {
		t.Errorf("reply = %+v, want a reply to %d", sent[0], message.ID)
	}

	cache := fixture.bot.Cache()
	if _, ok := cache.User(alice.ID); !ok {
		t.Error("author not cached")
	}
	if _, ok := cache.User(fixture.remote.self.ID); !ok {
		t.Error("bot account not cached with its reply")
	}
	history := cache.Messages(fixture.channel.ID, 10)
	if len(history) != 2 || history[1].Content != "pong" {
		t.Errorf("cached history = %+v, want message and reply", history)
	}
	if saved := fixture.sink.savedIDs(); !slices.Contains(saved, sent[0].ID) {
		t.Errorf("reply not mirrored to the sink: %v", saved)
	}
}

func TestHandleMessageIgnoresBots(t *testing.T) {
	handler := &replyHandler{reply: "pong"}
	fixture := newBotFixture(t, func(config *BotConfig) {
		config.Handlers = []Handler{handler}
	})
	fixture.discover(t)

	other := discord.User{ID: 502, Username: "helper", Bot: true}
	if err := fixture.bot.HandleMessage(context.Background(), incoming(601, fixture.channel.ID, other, "beep")); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if counts := fixture.bot.Cache().Counts(); counts.Users != 0 || counts.Messages != 0 {
		t.Errorf("bot message was recorded: %+v", counts)
	}
	if len(fixture.remote.sentMessages()) != 0 {
		t.Error("replied to a bot")
	}
}

func TestHandleMessageUnknownChannel(t *testing.T) {
	handler := &replyHandler{reply: "pong"}
	fixture := newBotFixture(t, func(config *BotConfig) {
		config.Handlers = []Handler{handler}
	})
	// No discovery: the channel is not cached.

	if err := fixture.bot.HandleMessage(context.Background(), incoming(602, fixture.channel.ID, alice, "hello")); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	counts := fixture.bot.Cache().Counts()
	if counts.Users != 1 || counts.Messages != 0 {
		t.Errorf("counts = %+v, want the author only", counts)
	}
	if len(fixture.remote.sentMessages()) != 0 {
		t.Error("replied in an unknown channel")
	}
}

func TestHandleMessageTruncates(t *testing.T) {
	fixture := newBotFixture(t, func(config *BotConfig) {
		config.MaxLength = 10
	})
	fixture.discover(t)

	author := discord.User{ID: 503, Username: strings.Repeat("u", 40)}
	message := incoming(603, fixture.channel.ID, author, strings.Repeat("x", 25))
	if err := fixture.bot.HandleMessage(context.Background(), message); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	user, _ := fixture.bot.Cache().User(author.ID)
	if len(user.Username) != state.MaxUsernameLength {
		t.Errorf("username length = %d, want %d", len(user.Username), state.MaxUsernameLength)
	}
	if user.Discriminator != "0" {
		t.Errorf("discriminator = %q, want 0", user.Discriminator)
	}
	stored := fixture.bot.Cache().Messages(fixture.channel.ID, 1)
	if len(stored) != 1 || stored[0].Content != strings.Repeat("x", 10) {
		t.Errorf("stored = %+v, want content cut to 10", stored)
	}
}

func TestHistoryFallsBackToSink(t *testing.T) {
	handler := &replyHandler{}
	fixture := newBotFixture(t, func(config *BotConfig) {
		config.Handlers = []Handler{handler}
		config.ContextLimit = 5
	})
	fixture.discover(t)

	// Older messages only the sink holds, as after a cold restart.
	for i := range 3 {
		fixture.sink.messages = append(fixture.sink.messages, state.Message{
			ID:        snowflake.ID(100 + i),
			Content:   "earlier",
			AuthorID:  alice.ID,
			ChannelID: fixture.channel.ID,
			Timestamp: testTime.Add(-time.Duration(3-i) * time.Minute),
		})
	}

	if err := fixture.bot.HandleMessage(context.Background(), incoming(604, fixture.channel.ID, alice, "now")); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(handler.history) != 4 {
		t.Fatalf("history = %+v, want 3 stored plus the new message", handler.history)
	}
	if handler.history[3].ID != 604 {
		t.Errorf("newest message = %d, want 604", handler.history[3].ID)
	}
}

func TestRunDiscoversReconcilesAndLoops(t *testing.T) {
	template := templatedef.MustServer(templatedef.ServerSpec{
		Categories: []templatedef.CategorySpec{{Name: "Log"}},
		Patterns: []templatedef.PatternSpec{
			{Kind: templatedef.PatternDateWindow, DaysAhead: intPtr(0), DaysBehind: intPtr(0)},
		},
	})
	fixture := newBotFixture(t, func(config *BotConfig) {
		config.Template = &template
		config.AutoReconcile = true
		config.ReconcileInterval = time.Hour
	})
	fixture.remote.entered = make(chan string, 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- fixture.bot.Run(ctx) }()
	t.Cleanup(cancel)

	if name := testutil.RequireReceive(t, fixture.remote.entered, 5*time.Second, "startup reconcile"); name != "Log" {
		t.Fatalf("first creation = %q, want Log", name)
	}
	if name := testutil.RequireReceive(t, fixture.remote.entered, 5*time.Second, "startup reconcile"); name != "2026-03-04" {
		t.Fatalf("second creation = %q, want 2026-03-04", name)
	}
	if _, ok := fixture.bot.Cache().Channel(fixture.channel.ID); !ok {
		t.Error("pre-existing channel was not discovered")
	}

	fixture.clock.WaitForTimers(1)
	fixture.clock.Advance(24 * time.Hour)
	if name := testutil.RequireReceive(t, fixture.remote.entered, 5*time.Second, "periodic reconcile"); name != "2026-03-05" {
		t.Fatalf("periodic creation = %q, want 2026-03-05", name)
	}

	cancel()
	if err := testutil.RequireReceive(t, done, 5*time.Second, "Run returning"); err != nil {
		t.Errorf("Run returned %v, want nil after cancellation", err)
	}
}

func TestRunFailsWhenRemoteUnreachable(t *testing.T) {
	fixture := newBotFixture(t, nil)
	fixture.remote.listErr = errRemoteDown

	err := fixture.bot.Run(context.Background())
	if !IsRemoteReadError(err) {
		t.Fatalf("Run = %v, want *RemoteReadError", err)
	}
}

func TestTriggerReconcileWithoutTemplate(t *testing.T) {
	fixture := newBotFixture(t, nil)
	if _, err := fixture.bot.TriggerReconcile(context.Background()); !errors.Is(err, ErrNoTemplate) {
		t.Errorf("TriggerReconcile = %v, want ErrNoTemplate", err)
	}
}

func TestHealth(t *testing.T) {
	template := logTemplate()
	fixture := newBotFixture(t, func(config *BotConfig) {
		config.Template = &template
	})

	if report := fixture.bot.Health(context.Background()); !report.Healthy() {
		t.Fatalf("fresh bot health = %+v, want healthy", report)
	}

	fixture.sink.pingErr = errors.New("disk full")
	fixture.remote.userErr = errRemoteDown
	fixture.remote.failCreate["Log"] = errRemoteDown
	if _, err := fixture.bot.TriggerReconcile(context.Background()); err == nil {
		t.Fatal("TriggerReconcile succeeded, want failure")
	}

	report := fixture.bot.Health(context.Background())
	want := HealthReport{Cache: true, Store: false, Remote: false, Reconciler: false}
	if report != want {
		t.Errorf("Health = %+v, want %+v", report, want)
	}
	if report.Healthy() {
		t.Error("Healthy() = true")
	}
}
