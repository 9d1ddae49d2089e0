// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package compression is the codec layer of the archive store. It
// turns loose caller options into a canonical configuration, applies
// size and use-case heuristics, and compresses or decompresses byte
// slices losslessly.
//
// The package is organized in three layers, each usable on its own:
//
//   - Resolution: a [Registry] of named presets ("brotli_6",
//     "zstd_19", ...) maps a preset name or an explicit
//     {algorithm, level, windowBits, blockBits} request to a
//     [Config]. Levels and tunables are clamped into range rather
//     than rejected; unknown preset or algorithm names are rejected
//     with a validation error listing the valid names. Two configs
//     are equal when algorithm and level match.
//
//   - Codec: [Compress] and [Decompress] dispatch over the closed set
//     of algorithms (none, gzip, brotli, zstd). Empty input always
//     produces empty output with ratio 0. Decompressing with the wrong
//     algorithm fails because the input does not parse as a stream of
//     the declared format.
//
//   - Selection: a [Selector] picks a preset name from a payload size
//     and a [UseCase] hint (realtime, balanced, archival). Payloads
//     below the floor are stored uncompressed.
//
// Content hashes are SHA-256 hex digests of the uncompressed bytes.
// Collaborators use them as dedup and integrity keys, so the digest
// algorithm is part of the persisted contract.
//
// Nothing in this package holds caller-visible mutable state. Cached
// zstd encoders and the shared zstd decoder are safe for concurrent
// use, so independent calls may run in parallel.
package compression
