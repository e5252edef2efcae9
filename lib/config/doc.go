// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the discordia YAML configuration.
//
// Configuration comes from a single file named by either the
// DISCORDIA_CONFIG environment variable (via [Load]) or a --config
// flag (via [LoadFile]). There are no fallbacks and no automatic file
// search.
//
// The file may carry development and production sections that
// override the log and reconcile settings when [Config].Environment
// matches.
//
// Path fields (token file, template, storage paths) are expanded after
// loading: ${HOME}, ${DISCORDIA_STATE} (the storage directory), and
// ${VAR:-default} patterns. No environment variable overrides a value
// set in the file.
package config
