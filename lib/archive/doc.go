// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package archive frames an ordered sequence of named byte entries
// into a single tar stream, the uncompressed form of a bucket.
//
// Entries are written in PAX format with a fixed modification time,
// mode, and owner, so the same entries in the same order always
// produce identical bytes. Each entry carries a BLAKE3 checksum of its
// content in a PAX record; [Extract] and [Reader] verify it and return
// a [*ChecksumError] on mismatch.
//
// Entry names come from caller-supplied keys via [Namer], which keeps
// only characters that are safe in a file name and de-duplicates
// collisions within one archive.
//
// The package works entirely in memory. A [Builder] accumulates the
// whole archive in a buffer; compression is the caller's concern.
package archive
