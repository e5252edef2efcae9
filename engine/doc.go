// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package engine keeps a Discord guild in step with a server template
// and feeds incoming messages to handlers.
//
// The pieces, from the bottom up:
//
//   - [Recorder] writes entities into the [state.Cache] and mirrors
//     each write to an [entitystore.Sink]. The cache is authoritative;
//     sink failures are logged and never fail the write.
//   - [Discovery] reads the guild's categories and channels once and
//     records them.
//   - [Reconciler] resolves a template's patterns against the current
//     time and creates every category and channel the cache does not
//     already hold by name. It never deletes, renames, or moves
//     anything. Runs for a server are collapsed through a single-flight
//     guard, so a periodic tick that lands during a manual run joins
//     it instead of starting a second one.
//   - [Bot] owns the lifecycle: discovery at startup, the optional
//     startup reconcile, the periodic reconcile loop, and message
//     polling. Messages go through [Bot.HandleMessage] to a [Router]
//     of [Handler] values.
//
// All remote access goes through the [Remote] interface, which
// [discord.Guild] implements. Tests substitute an in-memory fake.
package engine
