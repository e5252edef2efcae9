// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds the shared CBOR configuration for every binary
// format discordia writes to disk: the entity append log, cache
// snapshots, and the canonical template encoding that fingerprints are
// computed over.
//
// JSON stays the format for the platform's REST API and for CLI
// output. CBOR is used wherever the bytes are ours.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer forms, no indefinite lengths. The same
// value always encodes to the same bytes, which is what makes template
// fingerprints stable. Times encode as RFC 3339 strings with
// nanoseconds so message timestamps survive a round trip exactly.
//
// Types that implement encoding.TextMarshaler (snowflake IDs) encode
// as CBOR text strings.
//
// # Struct tags
//
// fxamacker/cbor reads `json` tags when a field has no `cbor` tag, so
// entity types carry only `json` tags and serialize identically in both
// formats. Use a `cbor` tag only on types that are never JSON.
package codec
