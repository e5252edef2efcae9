// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/discordia-project/discordia/lib/entitystore"
	"github.com/discordia-project/discordia/lib/state"
)

// MessageContext is what a handler sees of an incoming message. The
// entity values are copies taken when the message was recorded.
type MessageContext struct {
	Message state.Message
	Author  state.User
	Channel state.Channel

	cache        *state.Cache
	sink         entitystore.Sink
	contextLimit int
}

// History returns up to limit recent messages of the channel, oldest
// first, including the current one. A limit of zero or less uses the
// configured context limit.
//
// The cache answers first. When it holds fewer than limit messages and
// a sink is configured, the sink is asked as well and the longer
// history wins, so handlers see messages from before a restart.
func (m *MessageContext) History(ctx context.Context, limit int) ([]state.Message, error) {
	if limit <= 0 {
		limit = m.contextLimit
	}
	history := m.cache.Messages(m.Channel.ID, limit)
	if len(history) >= limit || m.sink == nil {
		return history, nil
	}
	stored, err := m.sink.Messages(ctx, m.Channel.ID, limit)
	if err != nil {
		return history, fmt.Errorf("engine: loading stored history: %w", err)
	}
	if len(stored) > len(history) {
		return stored, nil
	}
	return history, nil
}

// Handler processes messages. CanHandle must be cheap and free of side
// effects; Handle returns the reply text, or "" for no reply.
type Handler interface {
	CanHandle(ctx context.Context, message *MessageContext) bool
	Handle(ctx context.Context, message *MessageContext) (string, error)
}

// Router hands each message to the first handler that accepts it.
type Router struct {
	handlers []Handler
	logger   *slog.Logger
}

// NewRouter returns a router over handlers, consulted in order. A nil
// logger discards output.
func NewRouter(logger *slog.Logger, handlers ...Handler) *Router {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Router{handlers: handlers, logger: logger}
}

// Len returns the number of handlers.
func (r *Router) Len() int { return len(r.handlers) }

// Route returns the reply of the first handler that accepts the
// message and handles it without error. A handler that fails is
// logged and the next accepting handler gets the message. handled is
// false when no handler succeeded.
func (r *Router) Route(ctx context.Context, message *MessageContext) (reply string, handled bool) {
	for _, handler := range r.handlers {
		if !handler.CanHandle(ctx, message) {
			continue
		}
		reply, err := handler.Handle(ctx, message)
		if err != nil {
			r.logger.Error("message handler failed",
				"handler", fmt.Sprintf("%T", handler),
				"message_id", message.Message.ID,
				"channel", message.Channel.Name,
				"error", err,
			)
			continue
		}
		r.logger.Debug("message handled",
			"handler", fmt.Sprintf("%T", handler),
			"message_id", message.Message.ID,
		)
		return reply, true
	}
	return "", false
}

// LoggingHandler accepts every message and logs it without replying.
// Place it last: it ends routing for any message that reaches it.
type LoggingHandler struct {
	Logger *slog.Logger
}

// Preview length of logged message content.
const loggedContentLength = 100

func (LoggingHandler) CanHandle(context.Context, *MessageContext) bool { return true }

func (h LoggingHandler) Handle(_ context.Context, message *MessageContext) (string, error) {
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("message received",
		"channel", message.Channel.Name,
		"author", message.Author.Username,
		"content", state.Truncate(message.Message.Content, loggedContentLength),
	)
	return "", nil
}
