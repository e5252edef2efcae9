// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"log/slog"

	"github.com/discordia-project/discordia/lib/entitystore"
	"github.com/discordia-project/discordia/lib/snowflake"
	"github.com/discordia-project/discordia/lib/state"
)

// Recorder writes entities to the cache and mirrors every accepted
// write to a sink.
//
// The cache decides: a write it rejects is returned to the caller and
// never reaches the sink. A sink failure after an accepted write is
// logged and otherwise ignored, so storage trouble degrades
// durability without stopping discovery, reconciliation, or message
// handling.
type Recorder struct {
	cache  *state.Cache
	sink   entitystore.Sink
	logger *slog.Logger
}

// NewRecorder returns a recorder over cache. A nil sink records to the
// cache only. A nil logger discards output.
func NewRecorder(cache *state.Cache, sink entitystore.Sink, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Recorder{cache: cache, sink: sink, logger: logger}
}

// Cache returns the cache the recorder writes to.
func (r *Recorder) Cache() *state.Cache { return r.cache }

// Sink returns the mirror sink, or nil.
func (r *Recorder) Sink() entitystore.Sink { return r.sink }

func (r *Recorder) SaveCategory(ctx context.Context, category state.Category) error {
	if err := r.cache.SaveCategory(category); err != nil {
		return err
	}
	if r.sink != nil {
		r.mirrorFailed(state.KindCategory, category.ID, r.sink.SaveCategory(ctx, category))
	}
	return nil
}

func (r *Recorder) SaveChannel(ctx context.Context, channel state.Channel) error {
	if err := r.cache.SaveChannel(channel); err != nil {
		return err
	}
	if r.sink != nil {
		r.mirrorFailed(state.KindChannel, channel.ID, r.sink.SaveChannel(ctx, channel))
	}
	return nil
}

func (r *Recorder) SaveUser(ctx context.Context, user state.User) error {
	if err := r.cache.SaveUser(user); err != nil {
		return err
	}
	if r.sink != nil {
		r.mirrorFailed(state.KindUser, user.ID, r.sink.SaveUser(ctx, user))
	}
	return nil
}

func (r *Recorder) SaveMessage(ctx context.Context, message state.Message) error {
	if err := r.cache.SaveMessage(message); err != nil {
		return err
	}
	if r.sink != nil {
		r.mirrorFailed(state.KindMessage, message.ID, r.sink.SaveMessage(ctx, message))
	}
	return nil
}

func (r *Recorder) mirrorFailed(kind state.Kind, id snowflake.ID, err error) {
	if err == nil {
		return
	}
	r.logger.Warn("entity store write failed",
		"kind", kind,
		"id", id,
		"error", err,
	)
}
