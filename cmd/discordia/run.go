// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/discordia-project/discordia/cmd/discordia/cli"
	"github.com/discordia-project/discordia/engine"
	"github.com/discordia-project/discordia/lib/entitystore"
	"github.com/discordia-project/discordia/lib/state"
	"github.com/discordia-project/discordia/lib/version"
)

type runParams struct {
	ConfigParams
	NoReconcile bool `flag:"no-reconcile" desc:"skip the startup reconcile even if reconcile.auto is set"`
}

func runCommand() *cli.Command {
	var params runParams

	return &cli.Command{
		Name:    "run",
		Summary: "Run the bot until interrupted",
		Description: `Run the bot against the configured server until SIGINT or SIGTERM.

On startup the cache is warm-started from local storage and the
server's categories and channels are discovered. When a template is
configured the server is reconciled once (unless --no-reconcile or
reconcile.auto=false) and then every reconcile.interval. With
messages.poll_interval set, new messages are polled and routed to
handlers. A cache snapshot is written on shutdown.`,
		Usage: "discordia run [flags]",
		Examples: []cli.Example{
			{
				Description: "Run with an explicit config file",
				Command:     "discordia run --config /etc/discordia/discordia.yaml",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			return runBot(ctx, &params)
		},
	}
}

func runBot(ctx context.Context, params *runParams) error {
	cfg, err := params.load()
	if err != nil {
		return err
	}
	level, _ := cfg.LogLevel()
	logger := cli.NewCommandLogger(level).With("server_id", cfg.ServerID)
	location, _ := cfg.Location()

	template, err := loadTemplate(cfg)
	if err != nil {
		return err
	}

	remote, err := connect(cfg, logger)
	if err != nil {
		return err
	}
	defer remote.Close()

	stores, err := openStores(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer stores.Close()

	cache := state.NewCache(logger)
	if err := stores.warmStart(ctx, cache, cfg.Storage.Snapshot, logger); err != nil {
		return err
	}

	bot, err := engine.NewBot(engine.BotConfig{
		ServerID:          cfg.ServerID,
		Remote:            remote.guild,
		Messages:          remote.guild,
		PollInterval:      cfg.Messages.PollInterval,
		Cache:             cache,
		Sink:              stores.Sink(),
		Template:          template,
		AutoReconcile:     cfg.Reconcile.AutoEnabled() && !params.NoReconcile,
		ReconcileInterval: cfg.Reconcile.Interval,
		ContextLimit:      cfg.Messages.ContextLimit,
		MaxLength:         cfg.Messages.MaxLength,
		Handlers:          []engine.Handler{engine.LoggingHandler{Logger: logger}},
		Location:          location,
		Clock:             wallClock,
		Logger:            logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("discordia starting",
		"version", version.Info(),
		"environment", cfg.Environment,
		"template", cfg.Reconcile.Template,
	)
	runErr := bot.Run(ctx)

	if path := cfg.Storage.Snapshot; path != "" {
		if err := entitystore.WriteSnapshotFile(path, cache.Snapshot(), wallClock.Now()); err != nil {
			logger.Error("writing cache snapshot failed",
				"path", path,
				"error", err,
			)
		} else {
			logger.Info("cache snapshot written",
				"path", path,
				"entities", cache.Counts(),
			)
		}
	}
	return runErr
}
