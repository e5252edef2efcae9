// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/discordia-project/discordia/cmd/discordia/cli"
	"github.com/discordia-project/discordia/engine"
	"github.com/discordia-project/discordia/lib/snowflake"
	"github.com/discordia-project/discordia/lib/state"
	"github.com/discordia-project/discordia/lib/templatedef"
)

type planParams struct {
	ConfigParams
	cli.JSONOutput
	Template string `flag:"template" desc:"template file to plan against (default: reconcile.template)"`
}

// planEntry is the JSON form of one pending creation.
type planEntry struct {
	Kind     state.Kind              `json:"kind"`
	Name     string                  `json:"name"`
	Category string                  `json:"category,omitempty"`
	Channel  templatedef.ChannelKind `json:"channel_kind,omitempty"`
	Position *int                    `json:"position,omitempty"`
	Topic    string                  `json:"topic,omitempty"`
}

func planCommand() *cli.Command {
	var params planParams

	return &cli.Command{
		Name:    "plan",
		Summary: "Show what a reconcile would create",
		Description: `Discover the server's current categories and channels and list the
creations a reconcile against the template would perform. Nothing is
written to the server or to local storage.`,
		Usage: "discordia plan [flags]",
		Examples: []cli.Example{
			{
				Description: "Preview a template before pointing the bot at it",
				Command:     "discordia plan --template next-season.yaml",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			return runPlan(ctx, &params)
		},
	}
}

func runPlan(ctx context.Context, params *planParams) error {
	cfg, err := params.load()
	if err != nil {
		return err
	}
	level, _ := cfg.LogLevel()
	logger := cli.NewCommandLogger(level).With("command", "plan")
	location, _ := cfg.Location()

	path := params.Template
	if path == "" {
		path = cfg.Reconcile.Template
	}
	if path == "" {
		return fmt.Errorf("no template: pass --template or set reconcile.template")
	}
	template, err := templatedef.ReadFile(path)
	if err != nil {
		return err
	}

	remote, err := connect(cfg, logger)
	if err != nil {
		return err
	}
	defer remote.Close()

	planned, err := planAgainst(ctx, remote.guild, cfg.ServerID, template, location, logger)
	if err != nil {
		return err
	}

	if done, err := params.EmitJSON(planEntries(planned)); done {
		return err
	}
	fingerprint, err := template.Fingerprint()
	if err != nil {
		return err
	}
	renderPlan(cli.Stdout, path, fingerprint, planned, cli.DefaultTheme)
	return nil
}

// planAgainst discovers the server into a scratch cache and plans
// template against it.
func planAgainst(ctx context.Context, remote engine.Remote, serverID snowflake.ID, template templatedef.ServerTemplate, location *time.Location, logger *slog.Logger) ([]engine.PlannedCreation, error) {
	recorder := engine.NewRecorder(state.NewCache(logger), nil, logger)
	if _, err := engine.NewDiscovery(remote, recorder, serverID, logger).Discover(ctx); err != nil {
		return nil, err
	}
	reconciler, err := engine.NewReconciler(engine.ReconcilerConfig{
		Remote:   remote,
		Recorder: recorder,
		ServerID: serverID,
		Location: location,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	return reconciler.Plan(ctx, template)
}

func planEntries(planned []engine.PlannedCreation) []planEntry {
	entries := make([]planEntry, 0, len(planned))
	for _, creation := range planned {
		entry := planEntry{
			Kind:     creation.Kind,
			Name:     creation.Name,
			Category: creation.Category,
			Channel:  creation.ChannelKind,
			Topic:    creation.Topic,
		}
		if creation.HasPosition {
			position := creation.Position
			entry.Position = &position
		}
		entries = append(entries, entry)
	}
	return entries
}

func renderPlan(w io.Writer, path string, fingerprint templatedef.Fingerprint, planned []engine.PlannedCreation, theme cli.Theme) {
	header := theme.HeaderStyle()
	faint := theme.FaintStyle()
	pending := theme.PendingStyle()

	fmt.Fprintf(w, "%s %s\n", header.Render("Template"), path)
	fmt.Fprintf(w, "%s\n\n", faint.Render("fingerprint "+fingerprint.Short()))

	if len(planned) == 0 {
		fmt.Fprintln(w, theme.StatusStyle(true).Render("Server matches the template; nothing to create."))
		return
	}

	for _, creation := range planned {
		label := string(creation.Kind)
		if creation.Kind == state.KindChannel {
			label = string(creation.ChannelKind)
		}
		line := fmt.Sprintf("  %s %-13s %s", pending.Render("+"), label, creation.Name)
		if creation.Category != "" {
			line += faint.Render("  in " + creation.Category)
		}
		if creation.HasPosition {
			line += faint.Render(fmt.Sprintf("  position %d", creation.Position))
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "\n%d to create\n", len(planned))
}
