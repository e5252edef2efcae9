// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package discord

import (
	"time"

	"github.com/discordia-project/discordia/lib/snowflake"
)

// ChannelType is the numeric channel type of the API.
type ChannelType int

const (
	ChannelTypeText         ChannelType = 0
	ChannelTypeVoice        ChannelType = 2
	ChannelTypeCategory     ChannelType = 4
	ChannelTypeAnnouncement ChannelType = 5
	ChannelTypeForum        ChannelType = 15
)

func (t ChannelType) String() string {
	switch t {
	case ChannelTypeText:
		return "text"
	case ChannelTypeVoice:
		return "voice"
	case ChannelTypeCategory:
		return "category"
	case ChannelTypeAnnouncement:
		return "announcement"
	case ChannelTypeForum:
		return "forum"
	default:
		return "unknown"
	}
}

// Channel is a guild channel object. Categories are channels with
// type ChannelTypeCategory.
type Channel struct {
	ID       snowflake.ID `json:"id"`
	Type     ChannelType  `json:"type"`
	GuildID  snowflake.ID `json:"guild_id,omitzero"`
	Name     string       `json:"name"`
	Position int          `json:"position"`
	ParentID snowflake.ID `json:"parent_id,omitzero"`
	Topic    string       `json:"topic,omitempty"`

	NSFW                          bool `json:"nsfw,omitempty"`
	RateLimitPerUser              int  `json:"rate_limit_per_user,omitempty"`
	Bitrate                       int  `json:"bitrate,omitempty"`
	UserLimit                     int  `json:"user_limit,omitempty"`
	DefaultThreadRateLimitPerUser int  `json:"default_thread_rate_limit_per_user,omitempty"`
}

// CreatedAt returns the creation time encoded in the channel ID.
func (c Channel) CreatedAt() time.Time { return c.ID.Time() }

// CreateChannelRequest is the body of POST /guilds/{id}/channels.
// Zero-valued optional fields are omitted so the API applies its
// defaults.
type CreateChannelRequest struct {
	Name     string       `json:"name"`
	Type     ChannelType  `json:"type"`
	Topic    string       `json:"topic,omitempty"`
	Position *int         `json:"position,omitempty"`
	ParentID snowflake.ID `json:"parent_id,omitzero"`

	NSFW                          bool `json:"nsfw,omitempty"`
	RateLimitPerUser              int  `json:"rate_limit_per_user,omitempty"`
	Bitrate                       int  `json:"bitrate,omitempty"`
	UserLimit                     int  `json:"user_limit,omitempty"`
	DefaultThreadRateLimitPerUser int  `json:"default_thread_rate_limit_per_user,omitempty"`
}

// User is a Discord account.
type User struct {
	ID            snowflake.ID `json:"id"`
	Username      string       `json:"username"`
	Discriminator string       `json:"discriminator,omitempty"`
	GlobalName    string       `json:"global_name,omitempty"`
	Bot           bool         `json:"bot,omitempty"`
}

// CreatedAt returns the account creation time encoded in the user ID.
func (u User) CreatedAt() time.Time { return u.ID.Time() }

// Message is a channel message.
type Message struct {
	ID              snowflake.ID      `json:"id"`
	ChannelID       snowflake.ID      `json:"channel_id"`
	GuildID         snowflake.ID      `json:"guild_id,omitzero"`
	Author          User              `json:"author"`
	Content         string            `json:"content"`
	Timestamp       time.Time         `json:"timestamp"`
	EditedTimestamp time.Time         `json:"edited_timestamp,omitzero"`
	Reference       *MessageReference `json:"message_reference,omitempty"`
}

// MessageReference points a message at the one it replies to.
type MessageReference struct {
	MessageID       snowflake.ID `json:"message_id"`
	ChannelID       snowflake.ID `json:"channel_id,omitzero"`
	FailIfNotExists *bool        `json:"fail_if_not_exists,omitempty"`
}

// CreateMessageRequest is the body of POST /channels/{id}/messages.
type CreateMessageRequest struct {
	Content         string            `json:"content"`
	Reference       *MessageReference `json:"message_reference,omitempty"`
	AllowedMentions *AllowedMentions  `json:"allowed_mentions,omitempty"`
}

// AllowedMentions restricts which mentions in content ping anyone.
type AllowedMentions struct {
	Parse       []string `json:"parse"`
	RepliedUser bool     `json:"replied_user"`
}

// MaxMessagesPerPage is the API's page size limit for message listing.
const MaxMessagesPerPage = 100
