// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool provides the SQLite connection pool behind the
// archive store.
//
// It wraps zombiezen.com/go/sqlite's sqlitex.Pool and applies a fixed
// set of pragmas to every connection. Callers [Pool.Take] a
// connection, run statements with sqlitex.Execute, and [Pool.Put] it
// back. Connections are not safe for concurrent use.
//
// # Pragmas
//
//   - journal_mode=WAL: one writer and many readers. Bucket reads
//     never block bucket creation.
//   - synchronous=NORMAL: commits survive process crashes without an
//     fsync per transaction.
//   - busy_timeout=5000: wait up to 5 seconds for the write lock.
//   - foreign_keys=OFF: bucket references are counted explicitly
//     inside the delete transaction, so deletion reports how many
//     rows block it instead of failing with a bare constraint error.
//   - cache_size=-16384: 16 MB page cache per connection. Archives
//     are stored inline as blobs.
//   - temp_store=MEMORY.
//
// # Transactions
//
// [Pool.Immediate] runs a function inside BEGIN IMMEDIATE. Lifecycle
// operations that read a row and then modify it (finalize, delete)
// use it so two callers cannot both observe the pre-modification
// state.
//
//	err := pool.Immediate(ctx, func(conn *sqlite.Conn) error {
//	    // count references, then delete
//	})
package sqlitepool
