// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/discordia-project/discordia/discord"
	"github.com/discordia-project/discordia/lib/clock"
	"github.com/discordia-project/discordia/lib/entitystore"
	"github.com/discordia-project/discordia/lib/snowflake"
	"github.com/discordia-project/discordia/lib/state"
	"github.com/discordia-project/discordia/lib/templatedef"
)

// Defaults for BotConfig fields left at zero.
const (
	DefaultContextLimit = 20
	DefaultMaxLength    = state.MaxContentLength
)

// ErrNoTemplate is returned by TriggerReconcile when the bot has no
// template to reconcile against.
var ErrNoTemplate = errors.New("engine: no server template configured")

// BotConfig holds everything a Bot needs. ServerID and Remote are
// required.
type BotConfig struct {
	ServerID snowflake.ID
	Remote   Remote

	// Messages is the source the poller lists channels from. Polling
	// runs only when Messages is set and PollInterval is positive.
	Messages     MessageSource
	PollInterval time.Duration

	// Cache receives discovered and ingested entities. Nil means a new
	// empty cache; pass a warm one to start from stored state.
	Cache *state.Cache

	// Sink mirrors every cache write. Nil keeps state in memory only.
	Sink entitystore.Sink

	// Template is the desired server structure. Nil disables
	// reconciliation.
	Template *templatedef.ServerTemplate

	// AutoReconcile runs one reconcile after startup discovery.
	AutoReconcile bool

	// ReconcileInterval is the period of the reconcile loop. Zero
	// disables the loop.
	ReconcileInterval time.Duration

	// ContextLimit is the default history depth of MessageContext.
	ContextLimit int

	// MaxLength truncates stored message content.
	MaxLength int

	Handlers []Handler

	Clock    clock.Clock
	Location *time.Location
	Logger   *slog.Logger
}

// Bot wires discovery, reconciliation, message ingestion, and polling
// for one server.
type Bot struct {
	serverID          snowflake.ID
	remote            Remote
	template          *templatedef.ServerTemplate
	autoReconcile     bool
	reconcileInterval time.Duration
	contextLimit      int
	maxLength         int
	clock             clock.Clock
	logger            *slog.Logger

	cache      *state.Cache
	recorder   *Recorder
	discovery  *Discovery
	reconciler *Reconciler
	router     *Router
	poller     *Poller
}

// NewBot validates config and assembles a Bot.
func NewBot(config BotConfig) (*Bot, error) {
	if config.ServerID.IsZero() {
		return nil, fmt.Errorf("engine: bot requires a server ID")
	}
	if config.Remote == nil {
		return nil, fmt.Errorf("engine: bot requires a remote")
	}
	if config.ReconcileInterval < 0 || config.PollInterval < 0 {
		return nil, fmt.Errorf("engine: intervals must be non-negative")
	}
	if config.ContextLimit == 0 {
		config.ContextLimit = DefaultContextLimit
	}
	if config.MaxLength == 0 {
		config.MaxLength = DefaultMaxLength
	}
	if config.ContextLimit < 0 {
		return nil, fmt.Errorf("engine: context limit must be positive, got %d", config.ContextLimit)
	}
	if config.MaxLength < 0 || config.MaxLength > state.MaxContentLength {
		return nil, fmt.Errorf("engine: max length must be between 1 and %d, got %d", state.MaxContentLength, config.MaxLength)
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Cache == nil {
		config.Cache = state.NewCache(config.Logger)
	}

	recorder := NewRecorder(config.Cache, config.Sink, config.Logger)
	reconciler, err := NewReconciler(ReconcilerConfig{
		Remote:   config.Remote,
		Recorder: recorder,
		ServerID: config.ServerID,
		Clock:    config.Clock,
		Location: config.Location,
		Logger:   config.Logger,
	})
	if err != nil {
		return nil, err
	}

	bot := &Bot{
		serverID:          config.ServerID,
		remote:            config.Remote,
		template:          config.Template,
		autoReconcile:     config.AutoReconcile,
		reconcileInterval: config.ReconcileInterval,
		contextLimit:      config.ContextLimit,
		maxLength:         config.MaxLength,
		clock:             config.Clock,
		logger:            config.Logger,
		cache:             config.Cache,
		recorder:          recorder,
		discovery:         NewDiscovery(config.Remote, recorder, config.ServerID, config.Logger),
		reconciler:        reconciler,
		router:            NewRouter(config.Logger, config.Handlers...),
	}
	if config.Messages != nil && config.PollInterval > 0 {
		bot.poller = NewPoller(PollerConfig{
			Source:   config.Messages,
			Cache:    config.Cache,
			ServerID: config.ServerID,
			Interval: config.PollInterval,
			Clock:    config.Clock,
			Handle:   bot.HandleMessage,
			Logger:   config.Logger,
		})
	}
	return bot, nil
}

// Cache returns the bot's entity cache.
func (b *Bot) Cache() *state.Cache { return b.cache }

// Reconciler returns the bot's reconciler.
func (b *Bot) Reconciler() *Reconciler { return b.reconciler }

// Run identifies the bot account, discovers the server, runs the
// startup reconcile when enabled, and then runs the reconcile and poll
// loops until ctx is cancelled. Startup failures are returned; a
// failed reconcile is logged and retried by the loop.
func (b *Bot) Run(ctx context.Context) error {
	self, err := b.remote.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("engine: identifying bot account: %w", err)
	}
	b.logger.Info("bot connected",
		"user", self.Username,
		"user_id", self.ID,
		"server_id", b.serverID,
	)

	if _, err := b.discovery.Discover(ctx); err != nil {
		return err
	}

	if b.template != nil && b.autoReconcile {
		// The reconciler logs the failure and Health reports it.
		_, _ = b.TriggerReconcile(ctx)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	if b.template != nil && b.reconcileInterval > 0 {
		group.Go(func() error {
			b.reconcileLoop(groupCtx)
			return nil
		})
	}
	if b.poller != nil {
		group.Go(func() error {
			return b.poller.Run(groupCtx)
		})
	}

	b.logger.Info("bot ready",
		"server_id", b.serverID,
		"reconcile_interval", b.reconcileInterval,
		"polling", b.poller != nil,
		"handlers", b.router.Len(),
	)
	<-ctx.Done()
	err = group.Wait()
	b.logger.Info("bot stopped", "server_id", b.serverID)
	return err
}

// TriggerReconcile runs a reconcile now, or joins the one in flight.
func (b *Bot) TriggerReconcile(ctx context.Context) (RunReport, error) {
	if b.template == nil {
		return RunReport{}, ErrNoTemplate
	}
	return b.reconciler.Run(ctx, *b.template)
}

func (b *Bot) reconcileLoop(ctx context.Context) {
	ticker := b.clock.NewTicker(b.reconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = b.TriggerReconcile(ctx)
		}
	}
}

// HandleMessage records an incoming message and routes it to the
// handlers. Messages from bot accounts, this one included, are
// ignored. A message in a channel the cache does not hold is dropped
// after its author is recorded.
//
// A non-empty reply is posted as a reply to the message and recorded;
// failing to record the reply is only logged.
func (b *Bot) HandleMessage(ctx context.Context, message discord.Message) error {
	if message.Author.Bot {
		return nil
	}

	author := userFromRemote(message.Author)
	if err := b.recorder.SaveUser(ctx, author); err != nil {
		return fmt.Errorf("engine: recording author of message %d: %w", message.ID, err)
	}
	record := messageFromRemote(message, b.maxLength)
	if err := b.recorder.SaveMessage(ctx, record); err != nil {
		if state.IsConsistencyError(err) {
			b.logger.Debug("ignoring message in unknown channel",
				"message_id", message.ID,
				"channel_id", message.ChannelID,
			)
			return nil
		}
		return fmt.Errorf("engine: recording message %d: %w", message.ID, err)
	}

	channel, ok := b.cache.Channel(record.ChannelID)
	if !ok {
		return nil
	}
	messageContext := &MessageContext{
		Message:      record,
		Author:       author,
		Channel:      channel,
		cache:        b.cache,
		sink:         b.recorder.Sink(),
		contextLimit: b.contextLimit,
	}

	reply, handled := b.router.Route(ctx, messageContext)
	if !handled || reply == "" {
		return nil
	}
	sent, err := b.remote.CreateMessage(ctx, channel.ID, reply, record.ID)
	if err != nil {
		return fmt.Errorf("engine: replying to message %d: %w", record.ID, err)
	}
	b.recordReply(ctx, sent)
	return nil
}

func (b *Bot) recordReply(ctx context.Context, sent discord.Message) {
	err := b.recorder.SaveUser(ctx, userFromRemote(sent.Author))
	if err == nil {
		err = b.recorder.SaveMessage(ctx, messageFromRemote(sent, b.maxLength))
	}
	if err != nil {
		b.logger.Warn("failed to record reply",
			"message_id", sent.ID,
			"channel_id", sent.ChannelID,
			"error", err,
		)
	}
}
