// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// archivestore is the command-line front end to the archive store:
// one-shot compression, single-payload storage, and bucket management.
//
// Global flags precede the command:
//
//	archivestore [--config file] [--db path] [--json] <command> ...
//
// The config file comes from --config or ARCHIVESTORE_CONFIG; with
// neither, development defaults apply and --db selects the database.
// Results are printed as JSON when stdout is not a terminal (or with
// --json), and as a styled table otherwise. Payload commands (get,
// decompress, bucket get) write raw bytes.
package main
