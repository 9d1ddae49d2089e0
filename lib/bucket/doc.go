// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bucket packs many small related items into one compressed
// archive and reads them back by key.
//
// A bucket is three things kept side by side: the compressed archive
// (an [archive] tar stream compressed as a single unit), a [Manifest]
// mapping each caller key to its archive entry name and size, and the
// aggregate sizes and ratio. Grouping related documents lets the
// compressor exploit redundancy across items (shared HTML templates,
// repeated JSON field names) that per-item compression cannot see.
//
// The flow is:
//
//  1. [ValidateItems]: non-empty, every item keyed, keys unique
//  2. [Pack] or [Append]: frame items in input order, compress once
//  3. [EncodeManifest] / [DecodeManifest]: deterministic CBOR
//  4. [Extract]: manifest lookup, then entry extraction from the
//     decompressed archive
//
// Validation always completes before any framing, so a rejected item
// list never produces partial output. Persistence belongs to
// lib/store; this package is pure computation over byte slices.
//
// Bucket spec files ([ParseSpec], [ReadSpecFile]) describe a bucket
// on disk in JSONC for the CLI.
package bucket
