// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/discordia-project/discordia/cmd/discordia/cli"
	"github.com/discordia-project/discordia/lib/entitystore"
	"github.com/discordia-project/discordia/lib/state"
)

func snapshotCommand() *cli.Command {
	return &cli.Command{
		Name:    "snapshot",
		Summary: "Export and inspect cache snapshot files",
		Description: `Cache snapshots are zstd-compressed CBOR files sealed with a BLAKE3
digest. The bot writes one on shutdown and warm-starts from it when no
database is configured.`,
		Subcommands: []*cli.Command{
			snapshotExportCommand(),
			snapshotInspectCommand(),
		},
	}
}

type snapshotExportParams struct {
	ConfigParams
	Output string `flag:"output,o" desc:"file to write (default: storage.snapshot)"`
}

func snapshotExportCommand() *cli.Command {
	var params snapshotExportParams

	return &cli.Command{
		Name:    "export",
		Summary: "Write stored state to a snapshot file",
		Description: `Read the stored entities (SQLite database, else the existing
snapshot, else a replay of the append log) and write them to a
snapshot file. Safe to run while the bot is running.`,
		Usage: "discordia snapshot export [flags]",
		Examples: []cli.Example{
			{
				Description: "Back up the server state",
				Command:     "discordia snapshot export -o backup.snapshot",
			},
		},
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
			logger := cli.NewCommandLogger(level).With("command", "snapshot/export")

			output := params.Output
			if output == "" {
				output = cfg.Storage.Snapshot
			}
			if output == "" {
				return fmt.Errorf("no output path: pass --output or set storage.snapshot")
			}

			stores, err := openStores(ctx, cfg, logger, false)
			if err != nil {
				return err
			}
			defer stores.Close()

			snapshot, source, err := stores.load(ctx, cfg.Storage.Snapshot)
			if err != nil {
				return fmt.Errorf("loading stored state from %s: %w", source, err)
			}
			if source == "" {
				return fmt.Errorf("storage is disabled; nothing to export")
			}
			if err := entitystore.WriteSnapshotFile(output, snapshot, wallClock.Now()); err != nil {
				return err
			}
			counts := snapshot.Counts()
			fmt.Fprintf(cli.Stdout, "wrote %s from %s: %s\n", output, source, formatCounts(counts))
			return nil
		},
	}
}

// snapshotSummary is the JSON form of snapshot inspect.
type snapshotSummary struct {
	File           string       `json:"file"`
	Written        time.Time    `json:"written"`
	Counts         state.Counts `json:"counts"`
	Digest         string       `json:"digest"`
	CompressedSize int          `json:"compressed_size"`
	PayloadSize    int          `json:"payload_size"`
}

func snapshotInspectCommand() *cli.Command {
	var params struct {
		cli.JSONOutput
	}

	return &cli.Command{
		Name:    "inspect",
		Summary: "Verify a snapshot file and summarize it",
		Usage:   "discordia snapshot inspect <file> [flags]",
		Params:  func() any { return &params },
		Run: func(_ context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: discordia snapshot inspect <file>")
			}
			_, info, err := entitystore.ReadSnapshotFile(args[0])
			if err != nil {
				return err
			}
			summary := snapshotSummary{
				File:           args[0],
				Written:        info.Written,
				Counts:         info.Counts,
				Digest:         info.Digest,
				CompressedSize: info.CompressedSize,
				PayloadSize:    info.PayloadSize,
			}
			if done, err := params.EmitJSON(summary); done {
				return err
			}
			renderSnapshotSummary(cli.Stdout, summary, cli.DefaultTheme)
			return nil
		},
	}
}

func renderSnapshotSummary(w io.Writer, summary snapshotSummary, theme cli.Theme) {
	header := theme.HeaderStyle()
	fmt.Fprintf(w, "%s %s\n", header.Render("Snapshot"), summary.File)
	fmt.Fprintf(w, "  written   %s\n", summary.Written.Format(time.RFC3339))
	fmt.Fprintf(w, "  entities  %s\n", formatCounts(summary.Counts))
	fmt.Fprintf(w, "  size      %d bytes (%d uncompressed)\n", summary.CompressedSize, summary.PayloadSize)
	fmt.Fprintf(w, "  digest    %s\n", theme.FaintStyle().Render(summary.Digest))
}

func formatCounts(counts state.Counts) string {
	return fmt.Sprintf("%d categories, %d channels, %d users, %d messages",
		counts.Categories, counts.Channels, counts.Users, counts.Messages)
}
