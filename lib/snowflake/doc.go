// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package snowflake provides the validated identifier type used for
// every remote entity: guilds, categories, channels, users, and
// messages.
//
// A snowflake is a positive 63-bit integer assigned by the platform.
// The upper 42 bits hold a millisecond timestamp relative to the
// platform epoch (2015-01-01T00:00:00Z), which [ID.Time] decodes.
//
// The zero value is not a valid identifier; it represents "absent"
// wherever an optional reference is needed (for example a channel
// that belongs to no category). Use [ID.IsZero] to check.
//
// The platform transmits snowflakes as JSON strings to avoid precision
// loss in JavaScript clients. ID implements encoding.TextMarshaler so
// JSON and CBOR encode it as a decimal string; UnmarshalText accepts
// the same form. An empty string decodes to the zero value.
package snowflake
