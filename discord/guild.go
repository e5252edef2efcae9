// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package discord

import (
	"context"

	"github.com/discordia-project/discordia/lib/snowflake"
)

// Guild binds a Client to one guild. It is the remote workspace the
// engine discovers and reconciles against.
type Guild struct {
	client *Client
	id     snowflake.ID
}

// Guild returns a handle for the guild with the given ID.
func (c *Client) Guild(id snowflake.ID) *Guild {
	return &Guild{client: c, id: id}
}

// ID returns the guild ID.
func (g *Guild) ID() snowflake.ID { return g.id }

// ListChannels lists the guild's categories and channels.
func (g *Guild) ListChannels(ctx context.Context) ([]Channel, error) {
	return g.client.GuildChannels(ctx, g.id)
}

// CreateCategory creates a category at position.
func (g *Guild) CreateCategory(ctx context.Context, name string, position int) (Channel, error) {
	return g.client.CreateGuildChannel(ctx, g.id, CreateChannelRequest{
		Name:     name,
		Type:     ChannelTypeCategory,
		Position: &position,
	})
}

// CreateChannel creates a non-category channel.
func (g *Guild) CreateChannel(ctx context.Context, request CreateChannelRequest) (Channel, error) {
	return g.client.CreateGuildChannel(ctx, g.id, request)
}

// CreateMessage posts content to a channel. A non-zero replyTo makes
// the message a reply that does not fail if the original is gone.
// Mentions in content never ping anyone except the replied-to author.
func (g *Guild) CreateMessage(ctx context.Context, channelID snowflake.ID, content string, replyTo snowflake.ID) (Message, error) {
	request := CreateMessageRequest{
		Content:         content,
		AllowedMentions: &AllowedMentions{Parse: []string{}, RepliedUser: true},
	}
	if !replyTo.IsZero() {
		failIfNotExists := false
		request.Reference = &MessageReference{
			MessageID:       replyTo,
			ChannelID:       channelID,
			FailIfNotExists: &failIfNotExists,
		}
	}
	return g.client.CreateMessage(ctx, channelID, request)
}

// ChannelMessages returns up to limit messages newer than after,
// oldest first.
func (g *Guild) ChannelMessages(ctx context.Context, channelID, after snowflake.ID, limit int) ([]Message, error) {
	return g.client.ChannelMessages(ctx, channelID, after, limit)
}

// CurrentUser returns the bot account.
func (g *Guild) CurrentUser(ctx context.Context) (User, error) {
	return g.client.CurrentUser(ctx)
}
