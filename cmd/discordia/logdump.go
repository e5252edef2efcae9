// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/discordia-project/discordia/cmd/discordia/cli"
	"github.com/discordia-project/discordia/lib/codec"
	"github.com/discordia-project/discordia/lib/entitystore"
)

func logCommand() *cli.Command {
	return &cli.Command{
		Name:    "log",
		Summary: "Read the entity append log",
		Subcommands: []*cli.Command{
			logDumpCommand(),
		},
	}
}

type logDumpParams struct {
	ConfigParams
	Type string `flag:"type" desc:"only records of this type (category, channel, user, message)"`
	Tail int    `flag:"tail,n" desc:"only the last N matching records (0 for all)"`
}

func logDumpCommand() *cli.Command {
	var params logDumpParams

	return &cli.Command{
		Name:    "dump",
		Summary: "Print append log records in CBOR diagnostic notation",
		Description: `Decode the append log and print each record's type, time, and
payload in CBOR diagnostic notation (RFC 8949 section 8). Reads the
file named on the command line, or storage.append_log from the config.
The log is read without taking its lock, so this works against a
running bot.`,
		Usage: "discordia log dump [file] [flags]",
		Examples: []cli.Example{
			{
				Description: "Show the ten most recent messages recorded",
				Command:     "discordia log dump --type message -n 10",
			},
		},
		Params: func() any { return &params },
		Run: func(_ context.Context, args []string) error {
			var path string
			switch len(args) {
			case 0:
				cfg, err := params.load()
				if err != nil {
					return err
				}
				path = cfg.Storage.AppendLog
				if path == "" {
					return fmt.Errorf("storage.append_log is not configured")
				}
			case 1:
				path = args[0]
			default:
				return fmt.Errorf("usage: discordia log dump [file] [flags]")
			}
			return dumpLog(cli.Stdout, path, entitystore.RecordType(params.Type), params.Tail)
		},
	}
}

// dumpLog writes the records at path to w. A partial final record is
// reported after the complete ones.
func dumpLog(w io.Writer, path string, only entitystore.RecordType, tail int) error {
	records, readErr := entitystore.ReadAll(path)
	if readErr != nil && !errors.Is(readErr, entitystore.ErrTruncated) {
		return readErr
	}

	var selected []entitystore.Record
	for _, record := range records {
		if only == "" || record.Type == only {
			selected = append(selected, record)
		}
	}
	if tail > 0 && len(selected) > tail {
		selected = selected[len(selected)-tail:]
	}

	for _, record := range selected {
		diagnostic, err := codec.Diagnose(record.Data)
		if err != nil {
			return fmt.Errorf("%s record at %s: %w", record.Type, record.Recorded.Format(time.RFC3339), err)
		}
		fmt.Fprintf(w, "%s %-8s %s\n", record.Recorded.Format(time.RFC3339Nano), record.Type, diagnostic)
	}
	return readErr
}
