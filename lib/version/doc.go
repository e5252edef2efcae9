// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports which discordia build is running.
//
// Release builds stamp [Version], [GitCommit], [GitDirty] and
// [BuildTime] through the linker:
//
//	go build -ldflags "-X github.com/discordia-project/discordia/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// Development builds leave the defaults in place and [Commit] falls
// back to the revision the Go toolchain embeds. The REST client sends
// [UserAgent] on every request.
package version
