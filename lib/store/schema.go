// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package store

// schema creates every table the store uses. Timestamps are Unix
// nanoseconds in UTC.
const schema = `
CREATE TABLE IF NOT EXISTS compression_types (
	id          INTEGER PRIMARY KEY,
	name        TEXT NOT NULL UNIQUE,
	algorithm   TEXT NOT NULL,
	level       INTEGER NOT NULL,
	window_bits INTEGER,
	block_bits  INTEGER,
	description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS content_storage (
	id                  INTEGER PRIMARY KEY,
	compression_type_id INTEGER NOT NULL REFERENCES compression_types(id),
	content_blob        BLOB,
	content_hash        TEXT NOT NULL,
	uncompressed_size   INTEGER NOT NULL,
	compressed_size     INTEGER NOT NULL,
	compression_ratio   REAL NOT NULL,
	created_at          INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_content_storage_hash
	ON content_storage (content_hash);

CREATE TABLE IF NOT EXISTS content_buckets (
	id                  INTEGER PRIMARY KEY,
	bucket_type         TEXT NOT NULL,
	domain_pattern      TEXT,
	compression_type_id INTEGER NOT NULL REFERENCES compression_types(id),
	bucket_blob         BLOB NOT NULL,
	index_manifest      BLOB NOT NULL,
	content_count       INTEGER NOT NULL,
	uncompressed_size   INTEGER NOT NULL,
	compressed_size     INTEGER NOT NULL,
	compression_ratio   REAL NOT NULL,
	created_at          INTEGER NOT NULL,
	finalized_at        INTEGER
);

CREATE INDEX IF NOT EXISTS idx_content_buckets_type_created
	ON content_buckets (bucket_type, created_at DESC);

CREATE TABLE IF NOT EXISTS bucket_references (
	id         INTEGER PRIMARY KEY,
	bucket_id  INTEGER NOT NULL,
	entry_key  TEXT NOT NULL,
	owner      TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bucket_references_bucket
	ON bucket_references (bucket_id);

CREATE TABLE IF NOT EXISTS compression_stats (
	compression_type_id INTEGER NOT NULL,
	operation           TEXT NOT NULL,
	operation_count     INTEGER NOT NULL,
	uncompressed_bytes  INTEGER NOT NULL,
	compressed_bytes    INTEGER NOT NULL,
	updated_at          INTEGER NOT NULL,
	PRIMARY KEY (compression_type_id, operation)
);
`
