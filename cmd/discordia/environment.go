// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/discordia-project/discordia/discord"
	"github.com/discordia-project/discordia/lib/clock"
	"github.com/discordia-project/discordia/lib/config"
	"github.com/discordia-project/discordia/lib/entitystore"
	"github.com/discordia-project/discordia/lib/secret"
	"github.com/discordia-project/discordia/lib/state"
	"github.com/discordia-project/discordia/lib/templatedef"
	"github.com/discordia-project/discordia/lib/version"
)

// wallClock supplies "now" to commands that stamp or resolve against
// the current time. Tests replace it with a fake.
var wallClock clock.Clock = clock.Real()

// ConfigParams is embedded by every command that reads discordia.yaml.
// It is exported so flag binding can reach its fields through the
// embedding.
type ConfigParams struct {
	ConfigPath string `flag:"config,c" desc:"path to discordia.yaml (default: $DISCORDIA_CONFIG)"`
}

// load reads and validates the configuration.
func (p *ConfigParams) load() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if p.ConfigPath != "" {
		cfg, err = config.LoadFile(p.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}
	return cfg, nil
}

// session is an authenticated connection to one guild.
type session struct {
	client *discord.Client
	guild  *discord.Guild
	token  *secret.Buffer
}

func connect(cfg *config.Config, logger *slog.Logger) (*session, error) {
	token, err := secret.ReadFile(cfg.Discord.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("reading bot token: %w", err)
	}
	client, err := discord.NewClient(discord.ClientConfig{
		BaseURL:    cfg.Discord.APIURL,
		Token:      token,
		HTTPClient: &http.Client{Timeout: cfg.Discord.Timeout},
		Logger:     logger,
		UserAgent:  version.UserAgent(),
	})
	if err != nil {
		token.Close()
		return nil, err
	}
	return &session{client: client, guild: client.Guild(cfg.ServerID), token: token}, nil
}

func (s *session) Close() {
	s.client.CloseIdleConnections()
	s.token.Close()
}

// stores holds the durable backends enabled in the storage section.
type stores struct {
	database      *entitystore.SQLiteStore
	appendLog     *entitystore.AppendLog
	appendLogPath string
	fanout        *entitystore.Fanout
}

// openStores opens the configured backends. The append log admits a
// single writer, so it is opened and locked only when writable is set;
// otherwise it is read by path alongside a running bot.
func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger, writable bool) (*stores, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	opened := &stores{
		appendLogPath: cfg.Storage.AppendLog,
		fanout:        entitystore.NewFanout(),
	}
	if path := cfg.Storage.Database; path != "" {
		database, err := entitystore.OpenSQLite(ctx, path, logger)
		if err != nil {
			return nil, err
		}
		opened.database = database
		opened.fanout.Add("sqlite", database)
	}
	if path := cfg.Storage.AppendLog; path != "" && writable {
		appendLog, err := entitystore.OpenAppendLog(path, nil)
		if err != nil {
			opened.Close()
			return nil, err
		}
		if discarded := appendLog.Discarded(); discarded > 0 {
			logger.Warn("discarded partial record at end of append log",
				"path", path,
				"bytes", discarded,
			)
		}
		opened.appendLog = appendLog
		opened.fanout.Add("append_log", appendLog)
	}
	return opened, nil
}

// Sink returns the fanout over every open store, or nil when storage
// is disabled entirely.
func (s *stores) Sink() entitystore.Sink {
	if s.fanout.Len() == 0 {
		return nil
	}
	return s.fanout
}

// load reads the most complete stored state available: the SQLite
// database, then the snapshot file, then a replay of the append log.
func (s *stores) load(ctx context.Context, snapshotPath string) (state.Snapshot, string, error) {
	if s.database != nil {
		snapshot, err := s.database.Load(ctx)
		return snapshot, "sqlite", err
	}
	if snapshotPath != "" {
		file, _, err := entitystore.ReadSnapshotFile(snapshotPath)
		if err == nil {
			return file.Snapshot, "snapshot", nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return state.Snapshot{}, "snapshot", err
		}
	}
	if s.appendLogPath != "" {
		snapshot, err := entitystore.Replay(s.appendLogPath)
		if errors.Is(err, entitystore.ErrTruncated) {
			err = nil
		}
		return snapshot, "append_log", err
	}
	return state.Snapshot{}, "", nil
}

// warmStart restores stored state into cache. Entities that no longer
// pass the cache's checks are skipped and logged.
func (s *stores) warmStart(ctx context.Context, cache *state.Cache, snapshotPath string, logger *slog.Logger) error {
	snapshot, source, err := s.load(ctx, snapshotPath)
	if err != nil {
		return fmt.Errorf("loading stored state from %s: %w", source, err)
	}
	if source == "" {
		return nil
	}
	applied, err := cache.Restore(snapshot)
	if err != nil {
		logger.Warn("stored entities skipped during warm start",
			"source", source,
			"error", err,
		)
	}
	logger.Info("cache warm-started",
		"source", source,
		"entities", applied,
	)
	return nil
}

func (s *stores) Close() error {
	var errs []error
	if s.appendLog != nil {
		errs = append(errs, s.appendLog.Close())
	}
	if s.database != nil {
		errs = append(errs, s.database.Close())
	}
	return errors.Join(errs...)
}

// loadTemplate reads reconcile.template, returning nil when none is
// configured.
func loadTemplate(cfg *config.Config) (*templatedef.ServerTemplate, error) {
	if cfg.Reconcile.Template == "" {
		return nil, nil
	}
	template, err := templatedef.ReadFile(cfg.Reconcile.Template)
	if err != nil {
		return nil, err
	}
	return &template, nil
}
