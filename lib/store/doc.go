// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package store persists compressed content and content buckets in
// SQLite.
//
// A [Store] owns one database with five tables:
//
//   - compression_types: the preset table, seeded on Open with
//     INSERT OR IGNORE and never mutated afterwards. Content and
//     buckets reference rows here by id.
//   - content_storage: single compressed blobs with their sizes,
//     ratio, and the SHA-256 of the uncompressed bytes.
//   - content_buckets: bucket archives (compressed as one unit) with
//     their CBOR manifest and aggregate sizes.
//   - bucket_references: rows owned by other components that pin a
//     (bucket, key) pair. A referenced bucket cannot be deleted.
//   - compression_stats: per type and operation counters, written on
//     a best-effort basis after each operation.
//
// Every blocking operation takes a context, used to acquire a pooled
// connection. Reads run on any connection concurrently; writes are
// serialized by SQLite. Operations that read a row and then modify it
// ([Store.FinalizeBucket], [Store.DeleteBucket], [Store.AddItems]) run
// inside one BEGIN IMMEDIATE transaction so concurrent callers cannot
// both act on the same pre-modification state.
//
// Errors are classified with lib/storeerr. Bucket creation validates
// every item before anything is framed or written, and the bucket row
// is inserted only after the archive compresses, so a failed create
// leaves no row behind.
//
// Retrieving one item from a bucket decompresses the whole archive.
// Callers reading several keys from one bucket fetch the archive once
// with [Store.DecompressBucket] and pass it to each
// [Store.RetrieveFromBucket] call.
package store
