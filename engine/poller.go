// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/discordia-project/discordia/discord"
	"github.com/discordia-project/discordia/lib/clock"
	"github.com/discordia-project/discordia/lib/snowflake"
	"github.com/discordia-project/discordia/lib/state"
)

// Poller fetches new messages from every cached channel of a server
// on a fixed interval and passes them, oldest first, to a handler
// function.
//
// Each channel has a cursor: the ID of the newest message seen. A
// channel seen for the first time starts at its newest cached message,
// so messages sent while the bot was down are caught up after a warm
// start. A channel with nothing cached starts at the poller's start
// time and its older history is never fetched.
type Poller struct {
	source   MessageSource
	cache    *state.Cache
	serverID snowflake.ID
	interval time.Duration
	clock    clock.Clock
	handle   func(context.Context, discord.Message) error
	logger   *slog.Logger

	// Only the goroutine calling Poll or Run touches these.
	start   snowflake.ID
	cursors map[snowflake.ID]snowflake.ID
}

// PollerConfig holds the dependencies of a Poller.
type PollerConfig struct {
	Source   MessageSource
	Cache    *state.Cache
	ServerID snowflake.ID
	Interval time.Duration
	Clock    clock.Clock

	// Handle receives each new message. An error is logged and the
	// message is not retried.
	Handle func(context.Context, discord.Message) error

	Logger *slog.Logger
}

// NewPoller returns a poller. Its start time, the cursor for channels
// with no cached messages, is the clock's current time.
func NewPoller(config PollerConfig) *Poller {
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &Poller{
		source:   config.Source,
		cache:    config.Cache,
		serverID: config.ServerID,
		interval: config.Interval,
		clock:    config.Clock,
		handle:   config.Handle,
		logger:   config.Logger,
		start:    snowflake.FromTime(config.Clock.Now()),
		cursors:  make(map[snowflake.ID]snowflake.ID),
	}
}

// Run polls once per interval until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.Poll(ctx)
		}
	}
}

// Poll makes one pass over the server's cached channels and returns
// the number of messages handed on. A channel that fails to list is
// logged and retried on the next pass from the same cursor.
func (p *Poller) Poll(ctx context.Context) int {
	delivered := 0
	for _, channel := range p.cache.Channels(p.serverID) {
		if ctx.Err() != nil {
			return delivered
		}
		count, err := p.pollChannel(ctx, channel.ID)
		delivered += count
		if err != nil {
			p.logger.Warn("polling channel failed",
				"channel_id", channel.ID,
				"channel", channel.Name,
				"error", err,
			)
		}
	}
	return delivered
}

func (p *Poller) pollChannel(ctx context.Context, channelID snowflake.ID) (int, error) {
	cursor, seen := p.cursors[channelID]
	if !seen {
		cursor = p.initialCursor(channelID)
		p.cursors[channelID] = cursor
	}

	delivered := 0
	for {
		before := cursor
		page, err := p.source.ChannelMessages(ctx, channelID, cursor, discord.MaxMessagesPerPage)
		if err != nil {
			return delivered, err
		}
		for _, message := range page {
			if message.ID <= cursor {
				continue
			}
			if err := p.handle(ctx, message); err != nil {
				p.logger.Error("handling polled message failed",
					"message_id", message.ID,
					"channel_id", channelID,
					"error", err,
				)
			}
			cursor = message.ID
			p.cursors[channelID] = cursor
			delivered++
		}
		if len(page) < discord.MaxMessagesPerPage || cursor == before {
			return delivered, nil
		}
	}
}

func (p *Poller) initialCursor(channelID snowflake.ID) snowflake.ID {
	if latest := p.cache.Messages(channelID, 1); len(latest) == 1 {
		return latest[0].ID
	}
	return p.start
}
