// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package entitystore

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/discordia-project/discordia/lib/snowflake"
	"github.com/discordia-project/discordia/lib/state"
)

// failingSink rejects every call.
type failingSink struct{ err error }

func (s failingSink) SaveCategory(context.Context, state.Category) error { return s.err }
func (s failingSink) SaveChannel(context.Context, state.Channel) error   { return s.err }
func (s failingSink) SaveUser(context.Context, state.User) error         { return s.err }
func (s failingSink) SaveMessage(context.Context, state.Message) error   { return s.err }
func (s failingSink) Messages(context.Context, snowflake.ID, int) ([]state.Message, error) {
	return nil, s.err
}
func (s failingSink) Ping(context.Context) error { return s.err }

func TestFanoutContinuesPastFailure(t *testing.T) {
	broken := errors.New("disk on fire")
	log := openTestLog(t)
	fanout := NewFanout().Add("broken", failingSink{err: broken}).Add("log", log)

	err := fanout.SaveCategory(context.Background(), newFixture().category)
	if !errors.Is(err, broken) {
		t.Fatalf("err = %v, want broken", err)
	}
	if !strings.Contains(err.Error(), "broken:") {
		t.Errorf("error %q does not name the sink", err)
	}

	records, readErr := ReadAll(log.Path())
	if readErr != nil {
		t.Fatal(readErr)
	}
	if len(records) != 1 {
		t.Errorf("second sink got %d records, want 1", len(records))
	}

	if err := fanout.Ping(context.Background()); !errors.Is(err, broken) {
		t.Errorf("Ping = %v, want broken", err)
	}
}

func TestFanoutMessagesFallsBack(t *testing.T) {
	log := openTestLog(t)
	f := newFixture()
	f.saveAll(t, log)

	fanout := NewFanout().Add("broken", failingSink{err: errors.New("down")}).Add("log", log)
	messages, err := fanout.Messages(context.Background(), f.channel.ID, 3)
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(messages) != 3 {
		t.Errorf("got %d messages, want 3", len(messages))
	}

	empty := NewFanout()
	if messages, err := empty.Messages(context.Background(), 1, 3); err != nil || len(messages) != 0 {
		t.Errorf("empty fanout = %v, %v", messages, err)
	}
}
