// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/archivestore/lib/compression"
	"github.com/bureau-foundation/archivestore/lib/storeerr"
)

// StoreOptions selects the compression for a single content write.
// CompressionType takes precedence over UseCase; with neither, the
// store default is used.
type StoreOptions struct {
	CompressionType string
	UseCase         compression.UseCase
}

// StoredContent describes a persisted content blob.
type StoredContent struct {
	ContentID        int64                 `json:"content_id"`
	CompressionType  string                `json:"compression_type"`
	Algorithm        compression.Algorithm `json:"algorithm"`
	Level            int                   `json:"level"`
	UncompressedSize int64                 `json:"uncompressed_size"`
	CompressedSize   int64                 `json:"compressed_size"`
	Ratio            float64               `json:"ratio"`
	Hash             string                `json:"hash"`
}

// ContentInfo is the metadata of a stored blob, read without
// decompressing it.
type ContentInfo struct {
	StoredContent
	CreatedAt time.Time `json:"created_at"`
}

// CompressAndStore compresses content and persists it as a new blob.
func (s *Store) CompressAndStore(ctx context.Context, content []byte, options StoreOptions) (*StoredContent, error) {
	compressionType, err := s.resolveType(options.CompressionType, options.UseCase, int64(len(content)))
	if err != nil {
		return nil, err
	}

	result, err := compression.Compress(content, compressionType.Config())
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	contentID, err := s.insertContent(ctx, compressionType.ID, result)
	if err != nil {
		return nil, err
	}

	stored := &StoredContent{
		ContentID:        contentID,
		CompressionType:  compressionType.Name,
		Algorithm:        result.Algorithm,
		Level:            result.Level,
		UncompressedSize: int64(result.UncompressedSize),
		CompressedSize:   int64(result.CompressedSize),
		Ratio:            result.Ratio,
		Hash:             result.Hash,
	}

	s.record(ctx, Stat{
		CompressionTypeID: compressionType.ID,
		Operation:         OperationCompress,
		UncompressedBytes: stored.UncompressedSize,
		CompressedBytes:   stored.CompressedSize,
	})
	s.logger.Debug("content stored",
		"content_id", stored.ContentID,
		"compression_type", stored.CompressionType,
		"uncompressed_size", stored.UncompressedSize,
		"compressed_size", stored.CompressedSize,
	)
	return stored, nil
}

func (s *Store) insertContent(ctx context.Context, compressionTypeID int64, result compression.Result) (int64, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("store: compress and store: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn, `
		INSERT INTO content_storage
			(compression_type_id, content_blob, content_hash,
			 uncompressed_size, compressed_size, compression_ratio, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{
				compressionTypeID,
				result.Compressed,
				result.Hash,
				result.UncompressedSize,
				result.CompressedSize,
				result.Ratio,
				s.now(),
			},
		})
	if err != nil {
		return 0, fmt.Errorf("store: inserting content: %w", err)
	}
	return conn.LastInsertRowID(), nil
}

// RetrieveAndDecompress loads a blob, decompresses it, and verifies it
// against the stored hash.
func (s *Store) RetrieveAndDecompress(ctx context.Context, contentID int64) ([]byte, error) {
	var (
		found             bool
		compressionTypeID int64
		blob              []byte
		hash              string
	)

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: retrieve content: %w", err)
	}
	err = sqlitex.Execute(conn, `
		SELECT compression_type_id, content_blob, content_hash
		FROM content_storage WHERE id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{contentID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				found = true
				compressionTypeID = stmt.ColumnInt64(0)
				blob = columnBytes(stmt, 1)
				hash = stmt.ColumnText(2)
				return nil
			},
		})
	s.pool.Put(conn)
	if err != nil {
		return nil, fmt.Errorf("store: retrieve content %d: %w", contentID, err)
	}
	if !found {
		return nil, storeerr.NotFound("content", contentID)
	}

	compressionType, err := s.typeByID(compressionTypeID)
	if err != nil {
		return nil, err
	}
	content, err := compression.Decompress(blob, compressionType.Algorithm)
	if err != nil {
		return nil, &storeerr.CorruptionError{
			Message: fmt.Sprintf("content %d does not decompress as %s: %v", contentID, compressionType.Algorithm, err),
		}
	}
	if actual := compression.ContentHash(content); actual != hash {
		return nil, &storeerr.CorruptionError{
			Message: fmt.Sprintf("content %d hash mismatch: stored %s, computed %s", contentID, hash, actual),
		}
	}

	s.record(ctx, Stat{
		CompressionTypeID: compressionTypeID,
		Operation:         OperationDecompress,
		UncompressedBytes: int64(len(content)),
		CompressedBytes:   int64(len(blob)),
	})
	return content, nil
}

// GetContentInfo returns a blob's metadata without decompressing it.
func (s *Store) GetContentInfo(ctx context.Context, contentID int64) (*ContentInfo, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: content info: %w", err)
	}
	defer s.pool.Put(conn)

	var info *ContentInfo
	err = sqlitex.Execute(conn, `
		SELECT compression_type_id, content_hash, uncompressed_size,
		       compressed_size, compression_ratio, created_at
		FROM content_storage WHERE id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{contentID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				compressionType, err := s.typeByID(stmt.ColumnInt64(0))
				if err != nil {
					return err
				}
				info = &ContentInfo{
					StoredContent: StoredContent{
						ContentID:        contentID,
						CompressionType:  compressionType.Name,
						Algorithm:        compressionType.Algorithm,
						Level:            compressionType.Level,
						Hash:             stmt.ColumnText(1),
						UncompressedSize: stmt.ColumnInt64(2),
						CompressedSize:   stmt.ColumnInt64(3),
						Ratio:            stmt.ColumnFloat(4),
					},
					CreatedAt: columnTime(stmt, 5),
				}
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("store: content info %d: %w", contentID, err)
	}
	if info == nil {
		return nil, storeerr.NotFound("content", contentID)
	}
	return info, nil
}
