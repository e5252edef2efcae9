// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command framework behind the discordia binary.
//
// A [Command] carries a name, help text, examples, optional flags, and
// either a Run function or nested subcommands. [Command.Execute] walks
// the tree by positional argument, parses flags with pflag, and prints
// structured help. Unknown commands and flags get a Levenshtein-based
// "did you mean" suggestion.
//
// Flags are usually declared as tagged struct fields and bound with
// [FlagsFromParams]. Embedding [JSONOutput] adds a --json flag.
package cli
