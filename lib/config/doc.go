// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the archive
// store and its CLI.
//
// Configuration is loaded from a single file specified by either the
// ARCHIVESTORE_CONFIG environment variable (via [Load]) or a --config
// flag (via [LoadFile]). There are no fallbacks and no automatic file
// search.
//
// The file supports environment-specific sections (development,
// staging, production) that override base values when
// [Config].Environment matches. Production without an explicit
// section switches the log format to JSON.
//
// The store path is expanded after loading: ${HOME} and
// ${VAR:-default} patterns are replaced. No other environment
// variables override config values.
//
// This package depends on no other archivestore packages. The CLI maps
// [SelectorConfig] and [ReferenceConfig] onto the store's own types.
package config
