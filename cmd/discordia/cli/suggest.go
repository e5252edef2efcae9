// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"

	"github.com/spf13/pflag"
)

// maxSuggestDistance is the largest edit distance still offered as a
// suggestion.
const maxSuggestDistance = 3

// suggestCommand returns the subcommand name closest to unknown, or ""
// when none is within maxSuggestDistance.
func suggestCommand(unknown string, commands []*Command) string {
	names := make([]string, 0, len(commands))
	for _, command := range commands {
		names = append(names, command.Name)
	}
	return closest(unknown, names)
}

// suggestFlag finds the first flag in args that flagSet does not
// define and returns the closest defined flag with its dashes, or "".
func suggestFlag(args []string, flagSet *pflag.FlagSet) string {
	var defined []string
	flagSet.VisitAll(func(f *pflag.Flag) {
		defined = append(defined, f.Name)
	})

	for _, arg := range args {
		if arg == "--" {
			break
		}
		if !strings.HasPrefix(arg, "-") {
			continue
		}
		name, _, _ := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if flagSet.Lookup(name) != nil {
			continue
		}
		if len(name) == 1 && flagSet.ShorthandLookup(name) != nil {
			continue
		}
		if best := closest(name, defined); best != "" {
			return "--" + best
		}
		return ""
	}
	return ""
}

func closest(input string, candidates []string) string {
	best := ""
	bestDistance := maxSuggestDistance + 1
	for _, candidate := range candidates {
		if distance := levenshtein(input, candidate); distance < bestDistance {
			best, bestDistance = candidate, distance
		}
	}
	return best
}

// levenshtein is the edit distance between a and b, computed over
// bytes with a single rolling row.
func levenshtein(a, b string) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	if len(a) == 0 {
		return len(b)
	}

	row := make([]int, len(a)+1)
	for i := range row {
		row[i] = i
	}
	for j := 1; j <= len(b); j++ {
		diagonal := row[0]
		row[0] = j
		for i := 1; i <= len(a); i++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			above := row[i]
			row[i] = min(row[i]+1, row[i-1]+1, diagonal+cost)
			diagonal = above
		}
	}
	return row[len(a)]
}
