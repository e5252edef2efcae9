// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// Command is one node of the CLI tree.
type Command struct {
	// Name is what the user types to select the command.
	Name string

	// Summary is the one-line description in the parent's listing.
	Summary string

	// Description is the longer text at the top of the command's own
	// help. Summary is used when it is empty.
	Description string

	// Usage overrides the synthesized usage line.
	Usage string

	Examples []Example

	// Params returns a pointer to a tagged struct whose fields become
	// flags (see [BindFlags]). Ignored when Flags is set.
	Params func() any

	// Flags builds the command's flag set. Called once per parse and
	// once per help rendering.
	Flags func() *pflag.FlagSet

	Subcommands []*Command

	// Run receives the positional arguments left after flag parsing.
	// With subcommands present, Run only handles the case where none
	// was named.
	Run func(ctx context.Context, args []string) error

	// HelpOutput receives help text. Defaults to stderr.
	HelpOutput io.Writer

	parent *Command
}

// Example is a documented invocation shown in help.
type Example struct {
	Description string
	Command     string
}

// Execute dispatches args through the tree and runs the selected
// command.
func (c *Command) Execute(ctx context.Context, args []string) error {
	if len(args) > 0 && isHelpFlag(args[0]) {
		c.PrintHelp(c.helpOutput())
		return nil
	}

	if len(c.Subcommands) > 0 && len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		if sub := c.subcommand(args[0]); sub != nil {
			sub.parent = c
			return sub.Execute(ctx, args[1:])
		}
		if c.Run == nil {
			return c.unknownCommand(args[0])
		}
	}

	if len(c.Subcommands) > 0 && c.Run == nil {
		c.PrintHelp(c.helpOutput())
		if len(args) == 0 {
			return fmt.Errorf("%s: subcommand required", c.fullName())
		}
		return fmt.Errorf("%s: subcommand required (got flag %q)", c.fullName(), args[0])
	}

	if flagSet := c.flagSet(); flagSet != nil {
		flagSet.SetOutput(io.Discard)
		if err := flagSet.Parse(args); err != nil {
			return c.flagError(err, args)
		}
		args = flagSet.Args()
	}

	if c.Run == nil {
		c.PrintHelp(c.helpOutput())
		return fmt.Errorf("%s: nothing to run", c.fullName())
	}
	return c.Run(ctx, args)
}

func (c *Command) subcommand(name string) *Command {
	for _, sub := range c.Subcommands {
		if sub.Name == name {
			return sub
		}
	}
	return nil
}

func (c *Command) unknownCommand(name string) error {
	if suggestion := suggestCommand(name, c.Subcommands); suggestion != "" {
		return fmt.Errorf("unknown command %q (did you mean %q?)\n\nRun '%s --help' for usage.",
			name, suggestion, c.fullName())
	}
	return fmt.Errorf("unknown command %q\n\nRun '%s --help' for usage.", name, c.fullName())
}

func (c *Command) flagError(err error, args []string) error {
	message := err.Error()
	if strings.Contains(message, "unknown flag") || strings.Contains(message, "unknown shorthand") {
		if suggestion := suggestFlag(args, c.flagSet()); suggestion != "" {
			return fmt.Errorf("%s (did you mean %s?)\n\nRun '%s --help' for usage.",
				message, suggestion, c.fullName())
		}
	}
	return fmt.Errorf("%s\n\nRun '%s --help' for usage.", message, c.fullName())
}

// flagSet returns a fresh flag set, or nil when the command takes no
// flags.
func (c *Command) flagSet() *pflag.FlagSet {
	switch {
	case c.Flags != nil:
		return c.Flags()
	case c.Params != nil:
		return FlagsFromParams(c.Name, c.Params())
	default:
		return nil
	}
}

func (c *Command) helpOutput() io.Writer {
	for command := c; command != nil; command = command.parent {
		if command.HelpOutput != nil {
			return command.HelpOutput
		}
	}
	return os.Stderr
}

// PrintHelp writes the command's help to w.
func (c *Command) PrintHelp(w io.Writer) {
	name := c.fullName()

	switch {
	case c.Description != "":
		fmt.Fprintf(w, "%s\n\n", c.Description)
	case c.Summary != "":
		fmt.Fprintf(w, "%s\n\n", c.Summary)
	}

	switch {
	case c.Usage != "":
		fmt.Fprintf(w, "Usage:\n  %s\n", c.Usage)
	case len(c.Subcommands) > 0:
		fmt.Fprintf(w, "Usage:\n  %s <command> [flags]\n", name)
	default:
		fmt.Fprintf(w, "Usage:\n  %s [flags]\n", name)
	}

	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nCommands:\n")
		table := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
		for _, sub := range c.Subcommands {
			fmt.Fprintf(table, "  %s\t%s\n", sub.Name, sub.Summary)
		}
		table.Flush()
	}

	if flagSet := c.flagSet(); flagSet != nil {
		if usage := flagSet.FlagUsages(); usage != "" {
			fmt.Fprintf(w, "\nFlags:\n%s", usage)
		}
	}

	if len(c.Examples) > 0 {
		fmt.Fprintf(w, "\nExamples:\n")
		for _, example := range c.Examples {
			if example.Description != "" {
				fmt.Fprintf(w, "  # %s\n", example.Description)
			}
			fmt.Fprintf(w, "  %s\n", example.Command)
			if example.Description != "" {
				fmt.Fprintln(w)
			}
		}
	}

	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nRun '%s <command> --help' for more information on a command.\n", name)
	}
}

// fullName is the space-separated path from the root, e.g.
// "discordia template validate".
func (c *Command) fullName() string {
	if c.parent == nil {
		return c.Name
	}
	return c.parent.fullName() + " " + c.Name
}

func isHelpFlag(arg string) bool {
	return arg == "-h" || arg == "--help" || arg == "help"
}
