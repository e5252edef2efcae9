// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package templatedef

import (
	"strings"
	"unicode/utf8"

	"github.com/discordia-project/discordia/lib/state"
)

// ChannelKind discriminates the channel template variants.
type ChannelKind string

const (
	KindText         ChannelKind = "text"
	KindVoice        ChannelKind = "voice"
	KindForum        ChannelKind = "forum"
	KindAnnouncement ChannelKind = "announcement"
)

// Bounds and defaults for kind-specific channel fields.
const (
	MaxSlowmodeSeconds = 21600
	MinBitrate         = 8000
	MaxBitrate         = 384000
	DefaultBitrate     = 64000
	MaxUserLimit       = 99
)

// ChannelTemplate is one desired channel. The implementations are
// exactly TextChannel, VoiceChannel, ForumChannel, and
// AnnouncementChannel.
type ChannelTemplate interface {
	Kind() ChannelKind
	Name() string
	// Topic returns the channel topic, or "" for none.
	Topic() string
	// Position returns the requested position and whether one was set.
	Position() (int, bool)
	// Spec returns the authored form of the template.
	Spec() ChannelSpec

	isChannelTemplate()
}

// ChannelSpec is the authored form of a channel template. Pointer
// fields distinguish "absent" from zero so that defaults apply and
// fields foreign to the declared kind can be rejected.
type ChannelSpec struct {
	// Type selects the variant. Empty means text.
	Type     ChannelKind `yaml:"type,omitempty" json:"type,omitempty"`
	Name     string      `yaml:"name" json:"name"`
	Topic    *string     `yaml:"topic,omitempty" json:"topic,omitempty"`
	Position *int        `yaml:"position,omitempty" json:"position,omitempty"`

	// Text only.
	SlowmodeSeconds *int  `yaml:"slowmode_seconds,omitempty" json:"slowmode_seconds,omitempty"`
	NSFW            *bool `yaml:"nsfw,omitempty" json:"nsfw,omitempty"`

	// Voice only.
	Bitrate   *int `yaml:"bitrate,omitempty" json:"bitrate,omitempty"`
	UserLimit *int `yaml:"user_limit,omitempty" json:"user_limit,omitempty"`

	// Forum only.
	DefaultThreadSlowmode *int `yaml:"default_thread_slowmode,omitempty" json:"default_thread_slowmode,omitempty"`
}

// channelBase holds the fields every variant shares.
type channelBase struct {
	name        string
	topic       string
	position    int
	hasPosition bool
}

func (b channelBase) Name() string          { return b.name }
func (b channelBase) Topic() string         { return b.topic }
func (b channelBase) Position() (int, bool) { return b.position, b.hasPosition }

func (b channelBase) spec(kind ChannelKind) ChannelSpec {
	spec := ChannelSpec{Type: kind, Name: b.name}
	if b.topic != "" {
		topic := b.topic
		spec.Topic = &topic
	}
	if b.hasPosition {
		position := b.position
		spec.Position = &position
	}
	return spec
}

// TextChannel is a standard text channel.
type TextChannel struct {
	channelBase
	slowmodeSeconds int
	nsfw            bool
}

func (TextChannel) Kind() ChannelKind      { return KindText }
func (TextChannel) isChannelTemplate()     {}
func (t TextChannel) SlowmodeSeconds() int { return t.slowmodeSeconds }
func (t TextChannel) NSFW() bool           { return t.nsfw }

func (t TextChannel) Spec() ChannelSpec {
	spec := t.spec(KindText)
	if t.slowmodeSeconds != 0 {
		slowmode := t.slowmodeSeconds
		spec.SlowmodeSeconds = &slowmode
	}
	if t.nsfw {
		nsfw := true
		spec.NSFW = &nsfw
	}
	return spec
}

// VoiceChannel is a voice channel.
type VoiceChannel struct {
	channelBase
	bitrate   int
	userLimit int
}

func (VoiceChannel) Kind() ChannelKind  { return KindVoice }
func (VoiceChannel) isChannelTemplate() {}
func (v VoiceChannel) Bitrate() int     { return v.bitrate }

// UserLimit returns the member cap; zero means unlimited.
func (v VoiceChannel) UserLimit() int { return v.userLimit }

func (v VoiceChannel) Spec() ChannelSpec {
	spec := v.spec(KindVoice)
	bitrate, userLimit := v.bitrate, v.userLimit
	spec.Bitrate = &bitrate
	spec.UserLimit = &userLimit
	return spec
}

// ForumChannel is a forum for threaded discussion.
type ForumChannel struct {
	channelBase
	defaultThreadSlowmode int
}

func (ForumChannel) Kind() ChannelKind            { return KindForum }
func (ForumChannel) isChannelTemplate()           {}
func (f ForumChannel) DefaultThreadSlowmode() int { return f.defaultThreadSlowmode }

func (f ForumChannel) Spec() ChannelSpec {
	spec := f.spec(KindForum)
	if f.defaultThreadSlowmode != 0 {
		slowmode := f.defaultThreadSlowmode
		spec.DefaultThreadSlowmode = &slowmode
	}
	return spec
}

// AnnouncementChannel is a channel other servers can follow.
type AnnouncementChannel struct {
	channelBase
}

func (AnnouncementChannel) Kind() ChannelKind   { return KindAnnouncement }
func (AnnouncementChannel) isChannelTemplate()  {}
func (a AnnouncementChannel) Spec() ChannelSpec { return a.spec(KindAnnouncement) }

// RemoteName returns the name Discord stores for a channel created
// from template. Text, forum, and announcement channel names are
// lowercased, with each run of spaces replaced by a hyphen. Voice
// channel names are stored as given.
func RemoteName(template ChannelTemplate) string {
	name := template.Name()
	if template.Kind() == KindVoice {
		return name
	}
	if normalized := strings.Join(strings.Fields(strings.ToLower(name)), "-"); normalized != "" {
		return normalized
	}
	return name
}

// NewChannel validates spec and returns the matching variant.
func NewChannel(spec ChannelSpec) (ChannelTemplate, error) {
	return buildChannel(spec, "")
}

// MustChannel is like NewChannel but panics on error. Use for
// templates declared in code where the input is known-valid.
func MustChannel(spec ChannelSpec) ChannelTemplate {
	channel, err := NewChannel(spec)
	if err != nil {
		panic(err)
	}
	return channel
}

func buildChannel(spec ChannelSpec, path string) (ChannelTemplate, error) {
	base, err := buildBase(spec, path)
	if err != nil {
		return nil, err
	}

	kind := spec.Type
	if kind == "" {
		kind = KindText
	}

	// Reject fields that belong to a different variant.
	foreign := map[ChannelKind][]struct {
		field string
		set   bool
	}{
		KindText: {
			{"bitrate", spec.Bitrate != nil},
			{"user_limit", spec.UserLimit != nil},
			{"default_thread_slowmode", spec.DefaultThreadSlowmode != nil},
		},
		KindVoice: {
			{"slowmode_seconds", spec.SlowmodeSeconds != nil},
			{"nsfw", spec.NSFW != nil},
			{"default_thread_slowmode", spec.DefaultThreadSlowmode != nil},
		},
		KindForum: {
			{"slowmode_seconds", spec.SlowmodeSeconds != nil},
			{"nsfw", spec.NSFW != nil},
			{"bitrate", spec.Bitrate != nil},
			{"user_limit", spec.UserLimit != nil},
		},
		KindAnnouncement: {
			{"slowmode_seconds", spec.SlowmodeSeconds != nil},
			{"nsfw", spec.NSFW != nil},
			{"bitrate", spec.Bitrate != nil},
			{"user_limit", spec.UserLimit != nil},
			{"default_thread_slowmode", spec.DefaultThreadSlowmode != nil},
		},
	}
	fields, known := foreign[kind]
	if !known {
		return nil, invalid(join(path, "type"), "unknown channel type %q (want text, voice, forum, or announcement)", spec.Type)
	}
	for _, field := range fields {
		if field.set {
			return nil, invalid(join(path, field.field), "not allowed for %s channels", kind)
		}
	}

	switch kind {
	case KindText:
		channel := TextChannel{channelBase: base}
		if spec.SlowmodeSeconds != nil {
			if err := checkRange(join(path, "slowmode_seconds"), *spec.SlowmodeSeconds, 0, MaxSlowmodeSeconds); err != nil {
				return nil, err
			}
			channel.slowmodeSeconds = *spec.SlowmodeSeconds
		}
		if spec.NSFW != nil {
			channel.nsfw = *spec.NSFW
		}
		return channel, nil

	case KindVoice:
		channel := VoiceChannel{channelBase: base, bitrate: DefaultBitrate}
		if spec.Bitrate != nil {
			if err := checkRange(join(path, "bitrate"), *spec.Bitrate, MinBitrate, MaxBitrate); err != nil {
				return nil, err
			}
			channel.bitrate = *spec.Bitrate
		}
		if spec.UserLimit != nil {
			if err := checkRange(join(path, "user_limit"), *spec.UserLimit, 0, MaxUserLimit); err != nil {
				return nil, err
			}
			channel.userLimit = *spec.UserLimit
		}
		return channel, nil

	case KindForum:
		channel := ForumChannel{channelBase: base}
		if spec.DefaultThreadSlowmode != nil {
			if err := checkRange(join(path, "default_thread_slowmode"), *spec.DefaultThreadSlowmode, 0, MaxSlowmodeSeconds); err != nil {
				return nil, err
			}
			channel.defaultThreadSlowmode = *spec.DefaultThreadSlowmode
		}
		return channel, nil

	default:
		return AnnouncementChannel{channelBase: base}, nil
	}
}

func buildBase(spec ChannelSpec, path string) (channelBase, error) {
	if err := state.ValidateChannelName(spec.Name); err != nil {
		return channelBase{}, invalid(join(path, "name"), "%v", err)
	}
	base := channelBase{name: spec.Name}
	if spec.Topic != nil {
		if length := utf8.RuneCountInString(*spec.Topic); length > state.MaxTopicLength {
			return channelBase{}, invalid(join(path, "topic"), "exceeds %d characters (%d)", state.MaxTopicLength, length)
		}
		base.topic = *spec.Topic
	}
	if spec.Position != nil {
		if *spec.Position < 0 {
			return channelBase{}, invalid(join(path, "position"), "must be non-negative, got %d", *spec.Position)
		}
		base.position = *spec.Position
		base.hasPosition = true
	}
	return base, nil
}

// generatedText builds a text channel from pattern output. The caller
// guarantees the name is valid; an over-long topic is truncated.
func generatedText(name, topic string, position int, hasPosition bool) TextChannel {
	return TextChannel{channelBase: channelBase{
		name:        name,
		topic:       state.Truncate(topic, state.MaxTopicLength),
		position:    position,
		hasPosition: hasPosition,
	}}
}
