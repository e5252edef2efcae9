// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package discord is a minimal client for the Discord REST API,
// covering what discordia needs to mirror a guild: listing and
// creating channels, reading and sending messages, and identifying
// the bot account.
//
// A [Client] holds the API base URL, the bot token, and the HTTP
// transport. A [Guild] binds a client to one guild ID and is the
// remote the reconciliation engine works against.
//
// Non-2xx responses are returned as [*APIError]. Rate limits surface
// as APIError with StatusCode 429 and RetryAfter set; the client does
// not retry on its own.
//
// Snowflake IDs travel as JSON strings and decode into
// [snowflake.ID] through its text marshaling.
package discord
