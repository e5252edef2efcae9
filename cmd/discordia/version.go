// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/discordia-project/discordia/cmd/discordia/cli"
	"github.com/discordia-project/discordia/lib/version"
)

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Run: func(context.Context, []string) error {
			fmt.Fprintf(cli.Stdout, "discordia %s\n", version.Full())
			return nil
		},
	}
}
