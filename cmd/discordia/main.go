// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// discordia keeps a Discord server's channel layout in line with a
// declarative template and records the server's traffic locally.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/discordia-project/discordia/cmd/discordia/cli"
)

func main() {
	if err := root().Execute(context.Background(), os.Args[1:]); err != nil {
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func root() *cli.Command {
	return &cli.Command{
		Name: "discordia",
		Description: `discordia: Discord server structure as code.

Reconciles a server's categories and channels against a template file,
mirrors the server's entities into local storage, and routes incoming
messages to handlers.`,
		Subcommands: []*cli.Command{
			runCommand(),
			planCommand(),
			healthCommand(),
			templateCommand(),
			snapshotCommand(),
			logCommand(),
			versionCommand(),
		},
	}
}
