// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/discordia-project/discordia/lib/snowflake"
)

// Field limits enforced by Validate.
const (
	MaxNameLength     = 100
	MaxTopicLength    = 1024
	MinUsernameLength = 2
	MaxUsernameLength = 32
	MaxContentLength  = 2000
)

// Category is a named grouping container for channels.
type Category struct {
	ID        snowflake.ID `json:"id"`
	Name      string       `json:"name"`
	ServerID  snowflake.ID `json:"server_id"`
	Position  int          `json:"position"`
	CreatedAt time.Time    `json:"created_at"`
}

// Validate checks field constraints. It does not check references;
// the cache does that at write time.
func (c Category) Validate() error {
	if c.ID.IsZero() {
		return fmt.Errorf("category: id is required")
	}
	if c.ServerID.IsZero() {
		return fmt.Errorf("category %d: server_id is required", c.ID)
	}
	length := utf8.RuneCountInString(c.Name)
	if length < 1 || length > MaxNameLength {
		return fmt.Errorf("category %d: name must be 1-%d characters, got %d", c.ID, MaxNameLength, length)
	}
	if c.Position < 0 {
		return fmt.Errorf("category %d: position must be non-negative, got %d", c.ID, c.Position)
	}
	return nil
}

// Channel is a named conversation surface. CategoryID is zero for a
// channel that sits outside any category.
type Channel struct {
	ID         snowflake.ID `json:"id"`
	Name       string       `json:"name"`
	CategoryID snowflake.ID `json:"category_id"`
	ServerID   snowflake.ID `json:"server_id"`
	Position   int          `json:"position"`
	Topic      string       `json:"topic,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

// IsCategorized reports whether the channel belongs to a category.
func (c Channel) IsCategorized() bool { return !c.CategoryID.IsZero() }

// Validate checks field constraints.
func (c Channel) Validate() error {
	if c.ID.IsZero() {
		return fmt.Errorf("channel: id is required")
	}
	if c.ServerID.IsZero() {
		return fmt.Errorf("channel %d: server_id is required", c.ID)
	}
	if err := ValidateChannelName(c.Name); err != nil {
		return fmt.Errorf("channel %d: %w", c.ID, err)
	}
	if c.Position < 0 {
		return fmt.Errorf("channel %d: position must be non-negative, got %d", c.ID, c.Position)
	}
	if utf8.RuneCountInString(c.Topic) > MaxTopicLength {
		return fmt.Errorf("channel %d: topic exceeds %d characters", c.ID, MaxTopicLength)
	}
	return nil
}

// User is a platform account seen by the bot.
type User struct {
	ID            snowflake.ID `json:"id"`
	Username      string       `json:"username"`
	Discriminator string       `json:"discriminator"`
	Bot           bool         `json:"bot"`
	CreatedAt     time.Time    `json:"created_at"`
}

// Validate checks field constraints.
func (u User) Validate() error {
	if u.ID.IsZero() {
		return fmt.Errorf("user: id is required")
	}
	length := utf8.RuneCountInString(u.Username)
	if length < MinUsernameLength || length > MaxUsernameLength {
		return fmt.Errorf("user %d: username must be %d-%d characters, got %d",
			u.ID, MinUsernameLength, MaxUsernameLength, length)
	}
	return nil
}

// Message is a single chat message. EditedAt is the zero time when the
// message has never been edited.
type Message struct {
	ID        snowflake.ID `json:"id"`
	Content   string       `json:"content"`
	AuthorID  snowflake.ID `json:"author_id"`
	ChannelID snowflake.ID `json:"channel_id"`
	Timestamp time.Time    `json:"timestamp"`
	EditedAt  time.Time    `json:"edited_at,omitzero"`
}

// IsEdited reports whether the message carries an edit time.
func (m Message) IsEdited() bool { return !m.EditedAt.IsZero() }

// Age returns how long ago the message was sent relative to now.
func (m Message) Age(now time.Time) time.Duration { return now.Sub(m.Timestamp) }

// Validate checks field constraints.
func (m Message) Validate() error {
	if m.ID.IsZero() {
		return fmt.Errorf("message: id is required")
	}
	if m.AuthorID.IsZero() || m.ChannelID.IsZero() {
		return fmt.Errorf("message %d: author_id and channel_id are required", m.ID)
	}
	if utf8.RuneCountInString(m.Content) > MaxContentLength {
		return fmt.Errorf("message %d: content exceeds %d characters", m.ID, MaxContentLength)
	}
	if m.Timestamp.IsZero() {
		return fmt.Errorf("message %d: timestamp is required", m.ID)
	}
	return nil
}

// ValidateChannelName checks the channel naming rules: 1 to 100
// characters drawn from ASCII letters, digits, '-', '_', and space.
func ValidateChannelName(name string) error {
	if name == "" {
		return fmt.Errorf("channel name cannot be empty")
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("channel name %q exceeds %d characters", name, MaxNameLength)
	}
	for _, character := range name {
		switch {
		case character >= 'a' && character <= 'z':
		case character >= 'A' && character <= 'Z':
		case character >= '0' && character <= '9':
		case character == '-', character == '_', character == ' ':
		default:
			return fmt.Errorf("channel name %q contains %q; allowed are letters, digits, '-', '_', and space", name, character)
		}
	}
	return nil
}

// Truncate shortens s to at most limit runes.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
