// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"github.com/discordia-project/discordia/lib/snowflake"
)

// Registry answers name-based queries against a Cache. It owns nothing
// and holds no state beyond the cache reference.
//
// Lookups scan the cache under its lock. Workspaces hold tens to low
// hundreds of channels, so a secondary name index would not pay for
// the bookkeeping it needs on every save.
type Registry struct {
	cache *Cache
}

// NewRegistry returns a registry over cache.
func NewRegistry(cache *Cache) *Registry {
	return &Registry{cache: cache}
}

// CategoryByName returns the first category, in insertion order, with
// the given name in the given server.
func (r *Registry) CategoryByName(name string, serverID snowflake.ID) (Category, error) {
	r.cache.mu.Lock()
	defer r.cache.mu.Unlock()

	for _, id := range r.cache.categoryOrder {
		category := r.cache.categories[id]
		if category.Name == name && category.ServerID == serverID {
			return category, nil
		}
	}
	return Category{}, &EntityNotFoundError{Kind: KindCategory, Name: name, ServerID: serverID}
}

// ChannelByName returns the first channel, in insertion order, with the
// given name in the given server. Names are matched across the whole
// server regardless of which category the channel sits in.
func (r *Registry) ChannelByName(name string, serverID snowflake.ID) (Channel, error) {
	r.cache.mu.Lock()
	defer r.cache.mu.Unlock()

	for _, id := range r.cache.channelOrder {
		channel := r.cache.channels[id]
		if channel.Name == name && channel.ServerID == serverID {
			return channel, nil
		}
	}
	return Channel{}, &EntityNotFoundError{Kind: KindChannel, Name: name, ServerID: serverID}
}

// ChannelsInCategory returns the channels whose CategoryID matches, in
// insertion order. Returns an empty slice when there are none.
func (r *Registry) ChannelsInCategory(categoryID snowflake.ID) []Channel {
	r.cache.mu.Lock()
	defer r.cache.mu.Unlock()

	channels := []Channel{}
	for _, id := range r.cache.channelOrder {
		channel := r.cache.channels[id]
		if channel.CategoryID == categoryID {
			channels = append(channels, channel)
		}
	}
	return channels
}

// Duplicate describes a name shared by more than one entity of the
// same kind within a server. Name lookups resolve such names to the
// first ID listed.
type Duplicate struct {
	Kind Kind
	Name string
	IDs  []snowflake.ID
}

// Duplicates lists every category and channel name in the server that
// is held by more than one entity, categories first, each group in
// first-seen order.
func (r *Registry) Duplicates(serverID snowflake.ID) []Duplicate {
	r.cache.mu.Lock()
	defer r.cache.mu.Unlock()

	var duplicates []Duplicate

	collect := func(kind Kind, order []snowflake.ID, nameOf func(snowflake.ID) (string, bool)) {
		groups := make(map[string][]snowflake.ID)
		var names []string
		for _, id := range order {
			name, inServer := nameOf(id)
			if !inServer {
				continue
			}
			if _, seen := groups[name]; !seen {
				names = append(names, name)
			}
			groups[name] = append(groups[name], id)
		}
		for _, name := range names {
			if len(groups[name]) > 1 {
				duplicates = append(duplicates, Duplicate{Kind: kind, Name: name, IDs: groups[name]})
			}
		}
	}

	collect(KindCategory, r.cache.categoryOrder, func(id snowflake.ID) (string, bool) {
		category := r.cache.categories[id]
		return category.Name, category.ServerID == serverID
	})
	collect(KindChannel, r.cache.channelOrder, func(id snowflake.ID) (string, bool) {
		channel := r.cache.channels[id]
		return channel.Name, channel.ServerID == serverID
	})

	return duplicates
}
