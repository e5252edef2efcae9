// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"github.com/discordia-project/discordia/discord"
	"github.com/discordia-project/discordia/lib/snowflake"
	"github.com/discordia-project/discordia/lib/state"
)

func categoryFromRemote(remote discord.Channel, serverID snowflake.ID) state.Category {
	return state.Category{
		ID:        remote.ID,
		Name:      remote.Name,
		ServerID:  serverID,
		Position:  max(remote.Position, 0),
		CreatedAt: remote.CreatedAt(),
	}
}

func channelFromRemote(remote discord.Channel, serverID, categoryID snowflake.ID) state.Channel {
	return state.Channel{
		ID:         remote.ID,
		Name:       remote.Name,
		CategoryID: categoryID,
		ServerID:   serverID,
		Position:   max(remote.Position, 0),
		Topic:      state.Truncate(remote.Topic, state.MaxTopicLength),
		CreatedAt:  remote.CreatedAt(),
	}
}

// userFromRemote maps an account, cutting the username to the cache
// limit. An empty discriminator becomes "0", the value the API uses
// for accounts without one.
func userFromRemote(remote discord.User) state.User {
	discriminator := remote.Discriminator
	if discriminator == "" {
		discriminator = "0"
	}
	return state.User{
		ID:            remote.ID,
		Username:      state.Truncate(remote.Username, state.MaxUsernameLength),
		Discriminator: discriminator,
		Bot:           remote.Bot,
		CreatedAt:     remote.CreatedAt(),
	}
}

func messageFromRemote(remote discord.Message, maxLength int) state.Message {
	return state.Message{
		ID:        remote.ID,
		Content:   state.Truncate(remote.Content, maxLength),
		AuthorID:  remote.Author.ID,
		ChannelID: remote.ChannelID,
		Timestamp: remote.Timestamp,
		EditedAt:  remote.EditedTimestamp,
	}
}
