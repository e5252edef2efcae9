// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Overridden with -ldflags -X at release build time.
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	GitDirty  = "false"
	BuildTime = "unknown"
)

const repository = "https://github.com/discordia-project/discordia"

// Info is the one-line form logged at bot startup:
// "0.1.0-dev (abc1234-dirty, 2026-10-01T12:00:00Z)".
func Info() string {
	commit := Commit()
	if GitDirty == "true" {
		commit += "-dirty"
	}
	return fmt.Sprintf("%s (%s, %s)", Version, commit, BuildTime)
}

// Full appends the toolchain and target platform to Info.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Short returns Version alone.
func Short() string { return Version }

// Commit prefers the ldflags value and falls back to the first seven
// characters of the vcs.revision recorded by the toolchain.
func Commit() string {
	if GitCommit != "unknown" {
		return GitCommit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && len(setting.Value) >= 7 {
				return setting.Value[:7]
			}
		}
	}
	return GitCommit
}

// UserAgent is the bot user agent Discord requires on REST calls:
// "DiscordBot ($url, $versionNumber)".
func UserAgent() string {
	return fmt.Sprintf("DiscordBot (%s, %s)", repository, Version)
}
