// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package templatedef defines the desired shape of a workspace: which
// categories exist, which channels sit inside them, which channels sit
// at the top level, and which patterns generate further channels from
// the current date.
//
// Templates are immutable values. Every field is unexported and read
// through accessors; accessors that return slices return copies. The
// only way to build a template is through a constructor that validates
// every field, so a template value that exists is a valid one.
//
// # Channel kinds
//
// [ChannelTemplate] is a closed sum over [TextChannel], [VoiceChannel],
// [ForumChannel], and [AnnouncementChannel]. Code that dispatches on
// kind uses a type switch over those four types. Kind-specific fields
// are only accepted for their kind: a bitrate on a text channel is a
// [*ValidationError], not an ignored field.
//
// # Patterns
//
// A [Pattern] expands into channel templates given the current time.
// [DateWindowPattern] produces one channel per calendar day,
// [WeekDayPattern] one per day of whole ISO weeks, and
// [PrefixedPattern] one per suffix in a list. [ServerTemplate.Resolve]
// appends every pattern's output after the static top-level channels
// and returns a template with no patterns, so resolving twice is the
// same as resolving once.
//
// # Files
//
// [ReadFile] and [Parse] accept YAML or JSONC (JSON with comments and
// trailing commas). Unknown keys are rejected in both formats. The
// authored form of every template type is its Spec struct; the Spec
// is also what [ServerTemplate.Fingerprint] hashes.
package templatedef
