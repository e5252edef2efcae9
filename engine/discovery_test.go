// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/discordia-project/discordia/discord"
	"github.com/discordia-project/discordia/lib/state"
	"github.com/discordia-project/discordia/lib/testutil"
)

func newTestDiscovery(t *testing.T, remote *fakeRemote) (*Discovery, *state.Cache) {
	t.Helper()
	cache := state.NewCache(testutil.Logger(t))
	recorder := NewRecorder(cache, nil, testutil.Logger(t))
	return NewDiscovery(remote, recorder, testServer, testutil.Logger(t)), cache
}

func TestDiscoverMapsListing(t *testing.T) {
	remote := newFakeRemote()
	logCategory := remote.addChannel(discord.ChannelTypeCategory, "Log", 0)
	daily := remote.addChannel(discord.ChannelTypeText, "daily", logCategory.ID)
	lounge := remote.addChannel(discord.ChannelTypeVoice, "lounge", 0)
	news := remote.addChannel(discord.ChannelTypeAnnouncement, "news", logCategory.ID)
	ideas := remote.addChannel(discord.ChannelTypeForum, "ideas", 0)
	// A thread type the cache does not model.
	remote.addChannel(discord.ChannelType(11), "thread", daily.ID)
	// Parent that is not a category in the listing.
	orphan := remote.addChannel(discord.ChannelTypeText, "orphan", 123456)
	// Name the cache rejects.
	remote.addChannel(discord.ChannelTypeText, "emoji 🎉", 0)

	discovery, cache := newTestDiscovery(t, remote)
	result, err := discovery.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if remote.listCalls != 1 {
		t.Errorf("ListChannels called %d times, want 1", remote.listCalls)
	}

	if len(result.Categories) != 1 || result.Categories[0].ID != logCategory.ID {
		t.Fatalf("categories = %+v, want only Log", result.Categories)
	}
	if got := result.Categories[0]; got.ServerID != testServer || got.Name != "Log" {
		t.Errorf("category = %+v", got)
	}

	wantParents := []struct {
		channel  discord.Channel
		category bool
	}{
		{daily, true},
		{lounge, false},
		{news, true},
		{ideas, false},
		{orphan, false},
	}
	if len(result.Channels) != len(wantParents) {
		t.Fatalf("discovered %d channels, want %d: %+v", len(result.Channels), len(wantParents), result.Channels)
	}
	for i, want := range wantParents {
		got := result.Channels[i]
		if got.ID != want.channel.ID {
			t.Errorf("channel %d = %q, want %q", i, got.Name, want.channel.Name)
			continue
		}
		if got.IsCategorized() != want.category {
			t.Errorf("%s: categorized = %v, want %v", got.Name, got.IsCategorized(), want.category)
		}
		if want.category && got.CategoryID != logCategory.ID {
			t.Errorf("%s: category = %d, want %d", got.Name, got.CategoryID, logCategory.ID)
		}
		if _, ok := cache.Channel(got.ID); !ok {
			t.Errorf("%s: not cached", got.Name)
		}
	}
	if counts := cache.Counts(); counts.Categories != 1 || counts.Channels != 5 {
		t.Errorf("cache counts = %+v", counts)
	}
}

func TestDiscoverChannelsSkipsUncachedCategory(t *testing.T) {
	remote := newFakeRemote()
	category := remote.addChannel(discord.ChannelTypeCategory, "Log", 0)
	remote.addChannel(discord.ChannelTypeText, "daily", category.ID)
	top := remote.addChannel(discord.ChannelTypeText, "top", 0)

	discovery, _ := newTestDiscovery(t, remote)
	channels, err := discovery.DiscoverChannels(context.Background())
	if err != nil {
		t.Fatalf("DiscoverChannels: %v", err)
	}
	if len(channels) != 1 || channels[0].ID != top.ID {
		t.Fatalf("channels = %+v, want only the uncategorized one", channels)
	}

	if _, err := discovery.DiscoverCategories(context.Background()); err != nil {
		t.Fatalf("DiscoverCategories: %v", err)
	}
	channels, err = discovery.DiscoverChannels(context.Background())
	if err != nil {
		t.Fatalf("DiscoverChannels: %v", err)
	}
	if len(channels) != 2 {
		t.Fatalf("after categories, channels = %+v, want 2", channels)
	}
}

func TestDiscoverRemoteFailure(t *testing.T) {
	remote := newFakeRemote()
	remote.listErr = errRemoteDown

	discovery, cache := newTestDiscovery(t, remote)
	for name, discover := range map[string]func(context.Context) error{
		"Discover": func(ctx context.Context) error {
			_, err := discovery.Discover(ctx)
			return err
		},
		"DiscoverCategories": func(ctx context.Context) error {
			_, err := discovery.DiscoverCategories(ctx)
			return err
		},
		"DiscoverChannels": func(ctx context.Context) error {
			_, err := discovery.DiscoverChannels(ctx)
			return err
		},
	} {
		err := discover(context.Background())
		if !IsRemoteReadError(err) {
			t.Errorf("%s: error = %v, want *RemoteReadError", name, err)
		}
		if !errors.Is(err, errRemoteDown) {
			t.Errorf("%s: error does not wrap the cause: %v", name, err)
		}
	}
	if counts := cache.Counts(); counts.Categories != 0 || counts.Channels != 0 {
		t.Errorf("cache counts = %+v, want empty", counts)
	}
}
