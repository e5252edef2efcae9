// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/discordia-project/discordia/cmd/discordia/cli"
	"github.com/discordia-project/discordia/lib/templatedef"
)

func templateCommand() *cli.Command {
	return &cli.Command{
		Name:    "template",
		Summary: "Validate and preview template files",
		Description: `Work with server template files offline. Templates are YAML (.yaml,
.yml) or JSON with comments (.json, .jsonc).`,
		Subcommands: []*cli.Command{
			templateValidateCommand(),
			templateResolveCommand(),
		},
	}
}

// templateValidation is the result of template validate.
type templateValidation struct {
	File        string `json:"file"`
	Valid       bool   `json:"valid"`
	Error       string `json:"error,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Categories  int    `json:"categories"`
	Channels    int    `json:"channels"`
	Patterns    int    `json:"patterns"`
}

func templateValidateCommand() *cli.Command {
	var params struct {
		cli.JSONOutput
	}

	return &cli.Command{
		Name:    "validate",
		Summary: "Check a template file and print its fingerprint",
		Description: `Parse and validate a template file without contacting Discord. On
success the template's fingerprint is printed; two files with the same
fingerprint describe the same server layout.`,
		Usage: "discordia template validate <file>",
		Examples: []cli.Example{
			{
				Description: "Validate before deploying",
				Command:     "discordia template validate server.yaml",
			},
		},
		Params: func() any { return &params },
		Run: func(_ context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: discordia template validate <file>")
			}
			result := validateTemplate(args[0])
			if done, err := params.EmitJSON(result); done {
				if err == nil && !result.Valid {
					return &cli.ExitError{Code: 1}
				}
				return err
			}
			if !result.Valid {
				return fmt.Errorf("%s", result.Error)
			}
			fmt.Fprintf(cli.Stdout, "%s: valid (%d categories, %d channels, %d patterns)\nfingerprint %s\n",
				result.File, result.Categories, result.Channels, result.Patterns, result.Fingerprint)
			return nil
		},
	}
}

func validateTemplate(path string) templateValidation {
	result := templateValidation{File: path}
	template, err := templatedef.ReadFile(path)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	fingerprint, err := template.Fingerprint()
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Valid = true
	result.Fingerprint = fingerprint.String()
	result.Categories = len(template.Categories())
	result.Channels = template.ChannelCount()
	result.Patterns = len(template.Patterns())
	return result
}

type templateResolveParams struct {
	At       string `flag:"at" desc:"resolve as of this date (YYYY-MM-DD, default: today)"`
	Timezone string `flag:"timezone" desc:"IANA zone the date is taken in" default:"Local"`
	Format   string `flag:"format" desc:"output format: yaml or json (default: the input's format)"`
}

func templateResolveCommand() *cli.Command {
	var params templateResolveParams

	return &cli.Command{
		Name:    "resolve",
		Summary: "Expand a template's patterns for a given day",
		Description: `Expand every pattern in a template as of a date and print the
resulting static template. This is what a reconcile on that day would
work from.`,
		Usage: "discordia template resolve <file> [flags]",
		Examples: []cli.Example{
			{
				Description: "See the date channels that exist on New Year's Day",
				Command:     "discordia template resolve server.yaml --at 2027-01-01 --timezone Asia/Tokyo",
			},
		},
		Params: func() any { return &params },
		Run: func(_ context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: discordia template resolve <file> [flags]")
			}
			output, err := resolveTemplate(args[0], params, wallClock.Now())
			if err != nil {
				return err
			}
			_, err = cli.Stdout.Write(output)
			return err
		},
	}
}

// resolveTemplate renders the template at path resolved as of
// params.At, or now when At is empty.
func resolveTemplate(path string, params templateResolveParams, now time.Time) ([]byte, error) {
	location := time.Local
	if params.Timezone != "" && params.Timezone != "Local" {
		loaded, err := time.LoadLocation(params.Timezone)
		if err != nil {
			return nil, fmt.Errorf("--timezone: %w", err)
		}
		location = loaded
	}

	at := now.In(location)
	if params.At != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, params.At, location)
		if err != nil {
			return nil, fmt.Errorf("--at: want YYYY-MM-DD: %w", err)
		}
		at = parsed
	}

	format, err := templatedef.FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	switch params.Format {
	case "":
	case "yaml":
		format = templatedef.FormatYAML
	case "json":
		format = templatedef.FormatJSONC
	default:
		return nil, fmt.Errorf("--format must be yaml or json, got %q", params.Format)
	}

	template, err := templatedef.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return templatedef.Marshal(template.Resolve(at), format)
}
