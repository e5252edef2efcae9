// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"

	"github.com/discordia-project/discordia/discord"
	"github.com/discordia-project/discordia/lib/snowflake"
)

// Remote is the workspace the engine discovers, reconciles, and
// replies in. *discord.Guild implements it.
type Remote interface {
	// ListChannels returns every category and channel in the guild.
	ListChannels(ctx context.Context) ([]discord.Channel, error)

	// CreateCategory creates a category and returns it as created.
	CreateCategory(ctx context.Context, name string, position int) (discord.Channel, error)

	// CreateChannel creates a non-category channel.
	CreateChannel(ctx context.Context, request discord.CreateChannelRequest) (discord.Channel, error)

	// CreateMessage posts content to a channel, as a reply when
	// replyTo is non-zero.
	CreateMessage(ctx context.Context, channelID snowflake.ID, content string, replyTo snowflake.ID) (discord.Message, error)

	// CurrentUser returns the bot's own account.
	CurrentUser(ctx context.Context) (discord.User, error)
}

// MessageSource lists channel messages for the poller.
// *discord.Guild implements it.
type MessageSource interface {
	// ChannelMessages returns up to limit messages newer than after,
	// oldest first.
	ChannelMessages(ctx context.Context, channelID, after snowflake.ID, limit int) ([]discord.Message, error)
}

var (
	_ Remote        = (*discord.Guild)(nil)
	_ MessageSource = (*discord.Guild)(nil)
)
