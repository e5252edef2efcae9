// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/discordia-project/discordia/discord"
	"github.com/discordia-project/discordia/lib/clock"
	"github.com/discordia-project/discordia/lib/snowflake"
	"github.com/discordia-project/discordia/lib/state"
	"github.com/discordia-project/discordia/lib/templatedef"
)

// ReconcilerConfig holds the dependencies of a Reconciler.
type ReconcilerConfig struct {
	Remote   Remote
	Recorder *Recorder
	ServerID snowflake.ID

	// Clock supplies "now" for pattern resolution and report times.
	// Nil means the real clock.
	Clock clock.Clock

	// Location decides which calendar day "now" falls on. Nil means
	// time.Local.
	Location *time.Location

	Logger *slog.Logger
}

// Reconciler creates the categories and channels a template describes
// and the cache does not hold. Existence is decided by name within the
// server; nothing is ever deleted or modified.
//
// Only one run per server is in flight at a time. A Run call that
// arrives during a run joins it and receives its result.
type Reconciler struct {
	remote   Remote
	recorder *Recorder
	registry *state.Registry
	serverID snowflake.ID
	clock    clock.Clock
	location *time.Location
	logger   *slog.Logger

	flight singleflight.Group

	mu   sync.Mutex
	last *RunResult
}

// NewReconciler returns a Reconciler. Remote, Recorder, and ServerID
// are required.
func NewReconciler(config ReconcilerConfig) (*Reconciler, error) {
	if config.Remote == nil {
		return nil, fmt.Errorf("engine: reconciler requires a remote")
	}
	if config.Recorder == nil {
		return nil, fmt.Errorf("engine: reconciler requires a recorder")
	}
	if config.ServerID.IsZero() {
		return nil, fmt.Errorf("engine: reconciler requires a server ID")
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &Reconciler{
		remote:   config.Remote,
		recorder: config.Recorder,
		registry: state.NewRegistry(config.Recorder.Cache()),
		serverID: config.ServerID,
		clock:    config.Clock,
		location: config.Location,
		logger:   config.Logger,
	}, nil
}

// RunReport summarizes one reconcile run. On failure it covers the
// work done before the failing step.
type RunReport struct {
	ServerID    snowflake.ID
	Fingerprint templatedef.Fingerprint

	// Categories and Channels are the entities created, in creation
	// order.
	Categories []state.Category
	Channels   []state.Channel
	// CreatedByKind counts created channels per template kind.
	CreatedByKind map[templatedef.ChannelKind]int
	// Existing counts templates whose name was already taken.
	Existing int

	StartedAt  time.Time
	FinishedAt time.Time
}

// RunResult is the outcome of a completed run.
type RunResult struct {
	Report RunReport
	Err    error
}

// Created returns the number of entities the run created.
func (r RunReport) Created() int { return len(r.Categories) + len(r.Channels) }

// Duration returns how long the run took.
func (r RunReport) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// Run reconciles the server against template. If a run for the server
// is already in flight, Run waits for that run instead and returns its
// result. Cancelling ctx stops the wait; the shared run itself follows
// the context of the caller that started it.
func (r *Reconciler) Run(ctx context.Context, template templatedef.ServerTemplate) (RunReport, error) {
	results := r.flight.DoChan(r.serverID.String(), func() (any, error) {
		return r.run(ctx, template)
	})
	select {
	case <-ctx.Done():
		return RunReport{}, ctx.Err()
	case result := <-results:
		if result.Shared {
			r.logger.Debug("joined in-flight reconciliation", "server_id", r.serverID)
		}
		report, _ := result.Val.(RunReport)
		return report, result.Err
	}
}

// Last returns the outcome of the most recent completed run. ok is
// false before the first run completes.
func (r *Reconciler) Last() (result RunResult, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return RunResult{}, false
	}
	return *r.last, true
}

func (r *Reconciler) run(ctx context.Context, template templatedef.ServerTemplate) (RunReport, error) {
	report, err := r.reconcile(ctx, template)
	report.FinishedAt = r.clock.Now()

	r.mu.Lock()
	r.last = &RunResult{Report: report, Err: err}
	r.mu.Unlock()

	if err != nil {
		r.logger.Error("reconciliation failed",
			"server_id", r.serverID,
			"created", report.Created(),
			"error", err,
		)
		return report, err
	}
	r.logger.Info("reconciliation complete",
		"server_id", r.serverID,
		"template", report.Fingerprint.Short(),
		"created_categories", len(report.Categories),
		"created_channels", len(report.Channels),
		"existing", report.Existing,
		"duration", report.Duration(),
	)
	return report, nil
}

func (r *Reconciler) reconcile(ctx context.Context, template templatedef.ServerTemplate) (RunReport, error) {
	now := r.clock.Now()
	report := RunReport{
		ServerID:      r.serverID,
		Categories:    []state.Category{},
		Channels:      []state.Channel{},
		CreatedByKind: make(map[templatedef.ChannelKind]int),
		StartedAt:     now,
	}

	fingerprint, err := template.Fingerprint()
	if err != nil {
		return report, &ReconciliationError{Op: "fingerprint template", Err: err}
	}
	report.Fingerprint = fingerprint

	resolved := template.Resolve(now.In(r.location))
	r.warnDuplicates()

	for _, categoryTemplate := range resolved.Categories() {
		categoryID, err := r.ensureCategory(ctx, categoryTemplate, &report)
		if err != nil {
			return report, &ReconciliationError{Op: fmt.Sprintf("ensure category %q", categoryTemplate.Name()), Err: err}
		}
		for _, channelTemplate := range categoryTemplate.Channels() {
			if err := r.ensureChannel(ctx, channelTemplate, categoryID, &report); err != nil {
				return report, &ReconciliationError{Op: fmt.Sprintf("ensure channel %q", channelTemplate.Name()), Err: err}
			}
		}
	}
	for _, channelTemplate := range resolved.UncategorizedChannels() {
		if err := r.ensureChannel(ctx, channelTemplate, 0, &report); err != nil {
			return report, &ReconciliationError{Op: fmt.Sprintf("ensure channel %q", channelTemplate.Name()), Err: err}
		}
	}
	return report, nil
}

func (r *Reconciler) ensureCategory(ctx context.Context, template templatedef.CategoryTemplate, report *RunReport) (snowflake.ID, error) {
	existing, err := r.registry.CategoryByName(template.Name(), r.serverID)
	if err == nil {
		report.Existing++
		r.logger.Debug("category exists", "name", template.Name(), "category_id", existing.ID)
		return existing.ID, nil
	}
	if !state.IsEntityNotFound(err) {
		return 0, err
	}

	position, _ := template.Position()
	created, err := r.remote.CreateCategory(ctx, template.Name(), position)
	if err != nil {
		return 0, err
	}
	category := categoryFromRemote(created, r.serverID)
	if err := r.recorder.SaveCategory(ctx, category); err != nil {
		return 0, err
	}
	report.Categories = append(report.Categories, category)
	r.logger.Info("created category", "name", category.Name, "category_id", category.ID)
	return category.ID, nil
}

func (r *Reconciler) ensureChannel(ctx context.Context, template templatedef.ChannelTemplate, categoryID snowflake.ID, report *RunReport) error {
	name := templatedef.RemoteName(template)
	existing, err := r.registry.ChannelByName(name, r.serverID)
	if err == nil {
		report.Existing++
		r.logger.Debug("channel exists", "name", name, "channel_id", existing.ID)
		return nil
	}
	if !state.IsEntityNotFound(err) {
		return err
	}

	request, err := channelRequest(template, categoryID)
	if err != nil {
		return err
	}
	created, err := r.remote.CreateChannel(ctx, request)
	if err != nil {
		return err
	}
	channel := channelFromRemote(created, r.serverID, categoryID)
	if err := r.recorder.SaveChannel(ctx, channel); err != nil {
		return err
	}
	report.Channels = append(report.Channels, channel)
	report.CreatedByKind[template.Kind()]++
	r.logger.Info("created channel",
		"name", channel.Name,
		"channel_id", channel.ID,
		"kind", template.Kind(),
		"category_id", categoryID,
	)
	return nil
}

// channelRequest maps a channel template to its creation request.
func channelRequest(template templatedef.ChannelTemplate, parentID snowflake.ID) (discord.CreateChannelRequest, error) {
	request := discord.CreateChannelRequest{
		Name:     templatedef.RemoteName(template),
		Topic:    template.Topic(),
		ParentID: parentID,
	}
	if position, ok := template.Position(); ok {
		request.Position = &position
	}

	switch channel := template.(type) {
	case templatedef.TextChannel:
		request.Type = discord.ChannelTypeText
		request.RateLimitPerUser = channel.SlowmodeSeconds()
		request.NSFW = channel.NSFW()
	case templatedef.VoiceChannel:
		request.Type = discord.ChannelTypeVoice
		request.Bitrate = channel.Bitrate()
		request.UserLimit = channel.UserLimit()
	case templatedef.ForumChannel:
		request.Type = discord.ChannelTypeForum
		request.DefaultThreadRateLimitPerUser = channel.DefaultThreadSlowmode()
	case templatedef.AnnouncementChannel:
		request.Type = discord.ChannelTypeAnnouncement
	default:
		return discord.CreateChannelRequest{}, fmt.Errorf("unsupported channel template %T", template)
	}
	return request, nil
}

// warnDuplicates logs names that more than one cached entity carries.
// Name lookups keep resolving them to the first one.
func (r *Reconciler) warnDuplicates() {
	for _, duplicate := range r.registry.Duplicates(r.serverID) {
		r.logger.Warn("duplicate name in server; using the first",
			"kind", duplicate.Kind,
			"name", duplicate.Name,
			"ids", duplicate.IDs,
		)
	}
}
