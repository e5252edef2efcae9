// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package entitystore

import (
	"context"
	"errors"
	"fmt"

	"github.com/discordia-project/discordia/lib/snowflake"
	"github.com/discordia-project/discordia/lib/state"
)

// Sink is durable storage for cached entities. Saves are upserts by
// ID. Messages follows the cache's history rules: the most recent
// limit messages of a channel, oldest first.
type Sink interface {
	SaveCategory(ctx context.Context, category state.Category) error
	SaveChannel(ctx context.Context, channel state.Channel) error
	SaveUser(ctx context.Context, user state.User) error
	SaveMessage(ctx context.Context, message state.Message) error
	Messages(ctx context.Context, channelID snowflake.ID, limit int) ([]state.Message, error)
}

// Pinger is implemented by sinks that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Fanout writes to every sink in order. A failing sink does not stop
// the rest; failures are joined and each names its sink.
type Fanout struct {
	sinks []namedSink
}

type namedSink struct {
	name string
	sink Sink
}

// NewFanout returns an empty fanout. Add sinks with Add.
func NewFanout() *Fanout {
	return &Fanout{}
}

// Add appends a sink under a name used in error messages.
func (f *Fanout) Add(name string, sink Sink) *Fanout {
	f.sinks = append(f.sinks, namedSink{name: name, sink: sink})
	return f
}

// Len returns the number of sinks.
func (f *Fanout) Len() int { return len(f.sinks) }

func (f *Fanout) each(do func(Sink) error) error {
	var errs []error
	for _, entry := range f.sinks {
		if err := do(entry.sink); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", entry.name, err))
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) SaveCategory(ctx context.Context, category state.Category) error {
	return f.each(func(sink Sink) error { return sink.SaveCategory(ctx, category) })
}

func (f *Fanout) SaveChannel(ctx context.Context, channel state.Channel) error {
	return f.each(func(sink Sink) error { return sink.SaveChannel(ctx, channel) })
}

func (f *Fanout) SaveUser(ctx context.Context, user state.User) error {
	return f.each(func(sink Sink) error { return sink.SaveUser(ctx, user) })
}

func (f *Fanout) SaveMessage(ctx context.Context, message state.Message) error {
	return f.each(func(sink Sink) error { return sink.SaveMessage(ctx, message) })
}

// Messages answers from the first sink that succeeds.
func (f *Fanout) Messages(ctx context.Context, channelID snowflake.ID, limit int) ([]state.Message, error) {
	var errs []error
	for _, entry := range f.sinks {
		messages, err := entry.sink.Messages(ctx, channelID, limit)
		if err == nil {
			return messages, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", entry.name, err))
	}
	if len(errs) == 0 {
		return []state.Message{}, nil
	}
	return nil, errors.Join(errs...)
}

// Ping pings every sink that implements Pinger.
func (f *Fanout) Ping(ctx context.Context) error {
	return f.each(func(sink Sink) error {
		if pinger, ok := sink.(Pinger); ok {
			return pinger.Ping(ctx)
		}
		return nil
	})
}
