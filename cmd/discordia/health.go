// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/discordia-project/discordia/cmd/discordia/cli"
	"github.com/discordia-project/discordia/engine"
)

type healthParams struct {
	ConfigParams
	cli.JSONOutput
}

func healthCommand() *cli.Command {
	var params healthParams

	return &cli.Command{
		Name:    "health",
		Summary: "Check storage and Discord connectivity",
		Description: `Check that the configured stores answer and that the bot token is
accepted by Discord. Exits 1 when any component is unhealthy.`,
		Usage:  "discordia health [flags]",
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			cfg, err := params.load()
			if err != nil {
				return err
			}
			level, _ := cfg.LogLevel()
			logger := cli.NewCommandLogger(level).With("command", "health")

			remote, err := connect(cfg, logger)
			if err != nil {
				return err
			}
			defer remote.Close()

			stores, err := openStores(ctx, cfg, logger, false)
			if err != nil {
				return err
			}
			defer stores.Close()

			bot, err := engine.NewBot(engine.BotConfig{
				ServerID: cfg.ServerID,
				Remote:   remote.guild,
				Sink:     stores.Sink(),
				Logger:   logger,
			})
			if err != nil {
				return err
			}

			report := bot.Health(ctx)
			done, err := params.EmitJSON(report)
			if err != nil {
				return err
			}
			if !done {
				renderHealth(cli.Stdout, report, cli.DefaultTheme)
			}
			if !report.Healthy() {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}

func renderHealth(w io.Writer, report engine.HealthReport, theme cli.Theme) {
	rows := []struct {
		name string
		ok   bool
	}{
		{"cache", report.Cache},
		{"store", report.Store},
		{"discord", report.Remote},
		{"reconciler", report.Reconciler},
	}
	for _, row := range rows {
		status := "ok"
		if !row.ok {
			status = "FAIL"
		}
		fmt.Fprintf(w, "  %-11s %s\n", row.name, theme.StatusStyle(row.ok).Render(status))
	}
}
