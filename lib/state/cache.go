// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/discordia-project/discordia/lib/snowflake"
)

// Cache is the in-memory entity store. See the package documentation
// for the invariants it enforces.
//
// Each kind keeps its first-insertion order alongside the map so that
// scans (registry lookups, snapshots) are deterministic. Re-saving an
// existing ID replaces the value but keeps its original position.
type Cache struct {
	mu sync.Mutex

	categories    map[snowflake.ID]Category
	categoryOrder []snowflake.ID
	channels      map[snowflake.ID]Channel
	channelOrder  []snowflake.ID
	users         map[snowflake.ID]User
	userOrder     []snowflake.ID
	messages      map[snowflake.ID]Message
	messageOrder  []snowflake.ID

	logger *slog.Logger
}

// NewCache returns an empty cache. A nil logger discards output.
func NewCache(logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cache{
		categories: make(map[snowflake.ID]Category),
		channels:   make(map[snowflake.ID]Channel),
		users:      make(map[snowflake.ID]User),
		messages:   make(map[snowflake.ID]Message),
		logger:     logger,
	}
}

// SaveCategory inserts or replaces a category.
func (c *Cache) SaveCategory(category Category) error {
	if err := category.Validate(); err != nil {
		return fmt.Errorf("state: %w", err)
	}

	c.mu.Lock()
	if _, exists := c.categories[category.ID]; !exists {
		c.categoryOrder = append(c.categoryOrder, category.ID)
	}
	c.categories[category.ID] = category
	c.mu.Unlock()

	c.logger.Debug("saved category", "category_id", category.ID, "name", category.Name)
	return nil
}

// SaveChannel inserts or replaces a channel. If the channel names a
// category, that category must already be cached.
func (c *Cache) SaveChannel(channel Channel) error {
	if err := channel.Validate(); err != nil {
		return fmt.Errorf("state: %w", err)
	}

	c.mu.Lock()
	if channel.IsCategorized() {
		if _, exists := c.categories[channel.CategoryID]; !exists {
			c.mu.Unlock()
			return &ConsistencyError{
				Kind:          KindCategory,
				ID:            channel.CategoryID,
				DependentKind: KindChannel,
				DependentID:   channel.ID,
			}
		}
	}
	if _, exists := c.channels[channel.ID]; !exists {
		c.channelOrder = append(c.channelOrder, channel.ID)
	}
	c.channels[channel.ID] = channel
	c.mu.Unlock()

	c.logger.Debug("saved channel", "channel_id", channel.ID, "name", channel.Name)
	return nil
}

// SaveUser inserts or replaces a user.
func (c *Cache) SaveUser(user User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("state: %w", err)
	}

	c.mu.Lock()
	if _, exists := c.users[user.ID]; !exists {
		c.userOrder = append(c.userOrder, user.ID)
	}
	c.users[user.ID] = user
	c.mu.Unlock()

	c.logger.Debug("saved user", "user_id", user.ID)
	return nil
}

// SaveMessage inserts or replaces a message. Its author and channel
// must already be cached.
func (c *Cache) SaveMessage(message Message) error {
	if err := message.Validate(); err != nil {
		return fmt.Errorf("state: %w", err)
	}

	c.mu.Lock()
	if _, exists := c.users[message.AuthorID]; !exists {
		c.mu.Unlock()
		return &ConsistencyError{
			Kind:          KindUser,
			ID:            message.AuthorID,
			DependentKind: KindMessage,
			DependentID:   message.ID,
		}
	}
	if _, exists := c.channels[message.ChannelID]; !exists {
		c.mu.Unlock()
		return &ConsistencyError{
			Kind:          KindChannel,
			ID:            message.ChannelID,
			DependentKind: KindMessage,
			DependentID:   message.ID,
		}
	}
	if _, exists := c.messages[message.ID]; !exists {
		c.messageOrder = append(c.messageOrder, message.ID)
	}
	c.messages[message.ID] = message
	c.mu.Unlock()

	c.logger.Debug("saved message", "message_id", message.ID, "channel_id", message.ChannelID)
	return nil
}

// Category returns the cached category with the given ID.
func (c *Cache) Category(id snowflake.ID) (Category, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	category, ok := c.categories[id]
	return category, ok
}

// Channel returns the cached channel with the given ID.
func (c *Cache) Channel(id snowflake.ID) (Channel, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	channel, ok := c.channels[id]
	return channel, ok
}

// Channels returns every cached channel of a server in insertion
// order.
func (c *Cache) Channels(serverID snowflake.ID) []Channel {
	c.mu.Lock()
	defer c.mu.Unlock()

	channels := []Channel{}
	for _, id := range c.channelOrder {
		if channel := c.channels[id]; channel.ServerID == serverID {
			channels = append(channels, channel)
		}
	}
	return channels
}

// User returns the cached user with the given ID.
func (c *Cache) User(id snowflake.ID) (User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	user, ok := c.users[id]
	return user, ok
}

// Messages returns the most recent limit messages in a channel, oldest
// first. Ordering is by timestamp with the message ID breaking ties.
// A limit of zero or less returns an empty slice.
func (c *Cache) Messages(channelID snowflake.ID, limit int) []Message {
	if limit <= 0 {
		return []Message{}
	}

	c.mu.Lock()
	var selected []Message
	for _, id := range c.messageOrder {
		message := c.messages[id]
		if message.ChannelID == channelID {
			selected = append(selected, message)
		}
	}
	c.mu.Unlock()

	return Recent(selected, limit)
}

// Recent sorts messages by (timestamp, ID) and returns the last limit
// of them in ascending order. The input slice is reordered in place.
// Persistence backends use it to share the cache's history semantics.
func Recent(messages []Message, limit int) []Message {
	if limit <= 0 {
		return []Message{}
	}
	sort.Slice(messages, func(i, j int) bool {
		if !messages[i].Timestamp.Equal(messages[j].Timestamp) {
			return messages[i].Timestamp.Before(messages[j].Timestamp)
		}
		return messages[i].ID < messages[j].ID
	})
	if len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	result := make([]Message, len(messages))
	copy(result, messages)
	return result
}

// Counts reports how many entities of each kind are cached.
type Counts struct {
	Categories int `json:"categories"`
	Channels   int `json:"channels"`
	Users      int `json:"users"`
	Messages   int `json:"messages"`
}

// Counts returns the current entity counts.
func (c *Cache) Counts() Counts {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Counts{
		Categories: len(c.categories),
		Channels:   len(c.channels),
		Users:      len(c.users),
		Messages:   len(c.messages),
	}
}

// Snapshot is a point-in-time copy of the whole cache, each kind in
// insertion order.
type Snapshot struct {
	Categories []Category `json:"categories"`
	Channels   []Channel  `json:"channels"`
	Users      []User     `json:"users"`
	Messages   []Message  `json:"messages"`
}

// Counts returns the entity counts contained in the snapshot.
func (s Snapshot) Counts() Counts {
	return Counts{
		Categories: len(s.Categories),
		Channels:   len(s.Channels),
		Users:      len(s.Users),
		Messages:   len(s.Messages),
	}
}

// Snapshot copies the cache contents.
func (c *Cache) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := Snapshot{
		Categories: make([]Category, 0, len(c.categoryOrder)),
		Channels:   make([]Channel, 0, len(c.channelOrder)),
		Users:      make([]User, 0, len(c.userOrder)),
		Messages:   make([]Message, 0, len(c.messageOrder)),
	}
	for _, id := range c.categoryOrder {
		snapshot.Categories = append(snapshot.Categories, c.categories[id])
	}
	for _, id := range c.channelOrder {
		snapshot.Channels = append(snapshot.Channels, c.channels[id])
	}
	for _, id := range c.userOrder {
		snapshot.Users = append(snapshot.Users, c.users[id])
	}
	for _, id := range c.messageOrder {
		snapshot.Messages = append(snapshot.Messages, c.messages[id])
	}
	return snapshot
}

// Restore saves every entity in the snapshot in dependency order:
// categories, channels, users, then messages. Entities that fail
// validation or reference checks are skipped; their errors are joined
// into the returned error. Entities that succeed stay applied either
// way. Returns the number of entities applied.
func (c *Cache) Restore(snapshot Snapshot) (int, error) {
	var (
		applied int
		errs    []error
	)
	record := func(err error) {
		if err != nil {
			errs = append(errs, err)
			return
		}
		applied++
	}

	for _, category := range snapshot.Categories {
		record(c.SaveCategory(category))
	}
	for _, channel := range snapshot.Channels {
		record(c.SaveChannel(channel))
	}
	for _, user := range snapshot.Users {
		record(c.SaveUser(user))
	}
	for _, message := range snapshot.Messages {
		record(c.SaveMessage(message))
	}

	return applied, errors.Join(errs...)
}
