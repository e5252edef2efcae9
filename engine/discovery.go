// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"log/slog"

	"github.com/discordia-project/discordia/discord"
	"github.com/discordia-project/discordia/lib/snowflake"
	"github.com/discordia-project/discordia/lib/state"
)

// Discovery imports the guild's existing categories and channels into
// the cache. Each call reads the remote listing once.
type Discovery struct {
	remote   Remote
	recorder *Recorder
	serverID snowflake.ID
	logger   *slog.Logger
}

// NewDiscovery returns a Discovery for one server. A nil logger
// discards output.
func NewDiscovery(remote Remote, recorder *Recorder, serverID snowflake.ID, logger *slog.Logger) *Discovery {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Discovery{remote: remote, recorder: recorder, serverID: serverID, logger: logger}
}

// DiscoveryResult lists what a Discover call recorded.
type DiscoveryResult struct {
	Categories []state.Category
	Channels   []state.Channel
}

// Discover records categories and then channels from a single
// listing.
func (d *Discovery) Discover(ctx context.Context) (DiscoveryResult, error) {
	listing, err := d.remote.ListChannels(ctx)
	if err != nil {
		return DiscoveryResult{}, &RemoteReadError{Op: "discover", Err: err}
	}
	return DiscoveryResult{
		Categories: d.recordCategories(ctx, listing),
		Channels:   d.recordChannels(ctx, listing),
	}, nil
}

// DiscoverCategories records every category in the guild.
func (d *Discovery) DiscoverCategories(ctx context.Context) ([]state.Category, error) {
	listing, err := d.remote.ListChannels(ctx)
	if err != nil {
		return nil, &RemoteReadError{Op: "discover categories", Err: err}
	}
	return d.recordCategories(ctx, listing), nil
}

// DiscoverChannels records every text, voice, announcement, and forum
// channel in the guild. A channel whose parent is not a category in
// the same listing is recorded as uncategorized. A channel whose
// category is not cached yet is skipped; call DiscoverCategories
// first, or use Discover.
func (d *Discovery) DiscoverChannels(ctx context.Context) ([]state.Channel, error) {
	listing, err := d.remote.ListChannels(ctx)
	if err != nil {
		return nil, &RemoteReadError{Op: "discover channels", Err: err}
	}
	return d.recordChannels(ctx, listing), nil
}

func (d *Discovery) recordCategories(ctx context.Context, listing []discord.Channel) []state.Category {
	categories := []state.Category{}
	for _, remote := range listing {
		if remote.Type != discord.ChannelTypeCategory {
			continue
		}
		category := categoryFromRemote(remote, d.serverID)
		if err := d.recorder.SaveCategory(ctx, category); err != nil {
			d.logger.Warn("skipping discovered category",
				"category_id", remote.ID,
				"name", remote.Name,
				"error", err,
			)
			continue
		}
		categories = append(categories, category)
	}
	d.logger.Info("discovered categories", "server_id", d.serverID, "count", len(categories))
	return categories
}

func (d *Discovery) recordChannels(ctx context.Context, listing []discord.Channel) []state.Channel {
	categoryIDs := make(map[snowflake.ID]bool)
	for _, remote := range listing {
		if remote.Type == discord.ChannelTypeCategory {
			categoryIDs[remote.ID] = true
		}
	}

	channels := []state.Channel{}
	for _, remote := range listing {
		if !isDiscoverableChannel(remote.Type) {
			continue
		}
		var categoryID snowflake.ID
		if categoryIDs[remote.ParentID] {
			categoryID = remote.ParentID
		}
		channel := channelFromRemote(remote, d.serverID, categoryID)
		if err := d.recorder.SaveChannel(ctx, channel); err != nil {
			d.logger.Warn("skipping discovered channel",
				"channel_id", remote.ID,
				"name", remote.Name,
				"error", err,
			)
			continue
		}
		channels = append(channels, channel)
	}
	d.logger.Info("discovered channels", "server_id", d.serverID, "count", len(channels))
	return channels
}

func isDiscoverableChannel(channelType discord.ChannelType) bool {
	switch channelType {
	case discord.ChannelTypeText, discord.ChannelTypeVoice,
		discord.ChannelTypeAnnouncement, discord.ChannelTypeForum:
		return true
	}
	return false
}
