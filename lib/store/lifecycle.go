// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/archivestore/lib/bucket"
	"github.com/bureau-foundation/archivestore/lib/storeerr"
)

// FinalizeBucket marks a bucket immutable. It is not idempotent: a
// second call, or a call for a bucket that does not exist, fails.
func (s *Store) FinalizeBucket(ctx context.Context, bucketID int64) error {
	err := s.pool.Immediate(ctx, func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn, `
			UPDATE content_buckets SET finalized_at = ?
			WHERE id = ? AND finalized_at IS NULL`,
			&sqlitex.ExecOptions{Args: []any{s.now(), bucketID}})
		if err != nil {
			return fmt.Errorf("store: finalizing bucket %d: %w", bucketID, err)
		}
		if conn.Changes() == 0 {
			return storeerr.Validationf("bucket not found or already finalized")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("bucket finalized", "bucket_id", bucketID)
	return nil
}

// DeleteBucket deletes a bucket that nothing references. References
// are counted and the row deleted in one IMMEDIATE transaction, so a
// reference added concurrently either blocks the delete or fails
// because the bucket is gone.
func (s *Store) DeleteBucket(ctx context.Context, bucketID int64) error {
	err := s.pool.Immediate(ctx, func(conn *sqlite.Conn) error {
		if _, err := loadBucket(conn, bucketID, false); err != nil {
			return err
		}
		count, err := s.countReferences(conn, bucketID)
		if err != nil {
			return err
		}
		if count > 0 {
			return &storeerr.ReferentialIntegrityError{BucketID: bucketID, Count: count}
		}
		err = sqlitex.Execute(conn, `DELETE FROM content_buckets WHERE id = ?`,
			&sqlitex.ExecOptions{Args: []any{bucketID}})
		if err != nil {
			return fmt.Errorf("store: deleting bucket %d: %w", bucketID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("bucket deleted", "bucket_id", bucketID)
	return nil
}

// AddReference pins (bucketID, key) on behalf of owner and returns the
// reference id. The key must exist in the bucket's manifest.
func (s *Store) AddReference(ctx context.Context, bucketID int64, key, owner string) (int64, error) {
	if owner == "" {
		return 0, storeerr.Validationf("reference owner is required")
	}

	var referenceID int64
	err := s.pool.Immediate(ctx, func(conn *sqlite.Conn) error {
		row, err := loadBucket(conn, bucketID, false)
		if err != nil {
			return err
		}
		manifest, err := bucket.DecodeManifest(row.manifest, bucketID)
		if err != nil {
			return err
		}
		if _, ok := manifest.Lookup(key); !ok {
			return storeerr.NotFound("entry", key)
		}
		err = sqlitex.Execute(conn, `
			INSERT INTO bucket_references (bucket_id, entry_key, owner, created_at)
			VALUES (?, ?, ?, ?)`,
			&sqlitex.ExecOptions{Args: []any{bucketID, key, owner, s.now()}})
		if err != nil {
			return fmt.Errorf("store: adding reference to bucket %d: %w", bucketID, err)
		}
		referenceID = conn.LastInsertRowID()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return referenceID, nil
}

// RemoveReference deletes a reference by id.
func (s *Store) RemoveReference(ctx context.Context, referenceID int64) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("store: remove reference: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn, `DELETE FROM bucket_references WHERE id = ?`,
		&sqlitex.ExecOptions{Args: []any{referenceID}})
	if err != nil {
		return fmt.Errorf("store: removing reference %d: %w", referenceID, err)
	}
	if conn.Changes() == 0 {
		return storeerr.NotFound("reference", referenceID)
	}
	return nil
}

// CountReferences returns the number of rows referencing a bucket,
// across bucket_references and every configured reference source.
func (s *Store) CountReferences(ctx context.Context, bucketID int64) (int, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("store: count references: %w", err)
	}
	defer s.pool.Put(conn)
	return s.countReferences(conn, bucketID)
}

func (s *Store) countReferences(conn *sqlite.Conn, bucketID int64) (int, error) {
	sources := append([]ReferenceSource{{Table: "bucket_references", Column: "bucket_id"}}, s.referenceSources...)

	total := 0
	for _, source := range sources {
		// Table and column names were validated as plain identifiers
		// when the store was opened.
		query := fmt.Sprintf(`SELECT COUNT(*) FROM %q WHERE %q = ?`, source.Table, source.Column)
		err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
			Args: []any{bucketID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				total += stmt.ColumnInt(0)
				return nil
			},
		})
		if err != nil {
			return 0, fmt.Errorf("store: counting references in %s: %w", source.Table, err)
		}
	}
	return total, nil
}
