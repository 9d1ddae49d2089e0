// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/archivestore/lib/bucket"
	"github.com/bureau-foundation/archivestore/lib/compression"
	"github.com/bureau-foundation/archivestore/lib/storeerr"
)

// BucketRequest describes a bucket to create. CompressionType takes
// precedence over UseCase; with neither, the store default is used.
// When only UseCase is set, the selector sees the summed item size.
type BucketRequest struct {
	BucketType      string
	DomainPattern   string
	CompressionType string
	UseCase         compression.UseCase
	Items           []bucket.Item
}

// BucketResult describes a bucket after a create or append.
type BucketResult struct {
	BucketID         int64                 `json:"bucket_id"`
	CompressionType  string                `json:"compression_type"`
	Algorithm        compression.Algorithm `json:"algorithm"`
	ItemCount        int                   `json:"item_count"`
	UncompressedSize int64                 `json:"uncompressed_size"`
	CompressedSize   int64                 `json:"compressed_size"`
	Ratio            float64               `json:"ratio"`
}

// BucketItem is one item read back from a bucket.
type BucketItem struct {
	Content  []byte         `json:"-"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// bucketRow is a content_buckets row. Archive is nil unless the load
// asked for it.
type bucketRow struct {
	id                int64
	bucketType        string
	domainPattern     string
	compressionTypeID int64
	archive           []byte
	manifest          []byte
	contentCount      int
	uncompressedSize  int64
	compressedSize    int64
	ratio             float64
	createdAt         time.Time
	finalizedAt       *time.Time
}

// CreateBucket validates, frames, and compresses the request's items
// and persists the bucket. Nothing is written unless every step
// succeeds.
func (s *Store) CreateBucket(ctx context.Context, request BucketRequest) (*BucketResult, error) {
	if err := bucket.ValidateItems(request.Items, nil); err != nil {
		return nil, err
	}
	if request.BucketType == "" {
		return nil, storeerr.Validationf("bucket type is required")
	}

	var totalSize int64
	for _, item := range request.Items {
		totalSize += int64(len(item.Content))
	}
	compressionType, err := s.resolveType(request.CompressionType, request.UseCase, totalSize)
	if err != nil {
		return nil, err
	}

	packed, err := bucket.Pack(request.Items, compressionType.Config())
	if err != nil {
		return nil, err
	}
	manifest, err := bucket.EncodeManifest(packed.Manifest)
	if err != nil {
		return nil, err
	}

	bucketID, err := s.insertBucket(ctx, request, compressionType.ID, packed, manifest)
	if err != nil {
		return nil, err
	}

	result := &BucketResult{
		BucketID:         bucketID,
		CompressionType:  compressionType.Name,
		Algorithm:        compressionType.Algorithm,
		ItemCount:        packed.Manifest.Len(),
		UncompressedSize: packed.UncompressedSize,
		CompressedSize:   packed.CompressedSize,
		Ratio:            packed.Ratio,
	}

	s.record(ctx, Stat{
		CompressionTypeID: compressionType.ID,
		Operation:         OperationBucketCreate,
		UncompressedBytes: result.UncompressedSize,
		CompressedBytes:   result.CompressedSize,
	})
	s.logger.Info("bucket created",
		"bucket_id", result.BucketID,
		"bucket_type", request.BucketType,
		"compression_type", result.CompressionType,
		"item_count", result.ItemCount,
		"ratio", result.Ratio,
	)
	return result, nil
}

func (s *Store) insertBucket(ctx context.Context, request BucketRequest, compressionTypeID int64, packed *bucket.Packed, manifest []byte) (int64, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("store: create bucket: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn, `
		INSERT INTO content_buckets
			(bucket_type, domain_pattern, compression_type_id, bucket_blob,
			 index_manifest, content_count, uncompressed_size, compressed_size,
			 compression_ratio, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{
				request.BucketType,
				nullableString(request.DomainPattern),
				compressionTypeID,
				packed.Archive,
				manifest,
				packed.Manifest.Len(),
				packed.UncompressedSize,
				packed.CompressedSize,
				packed.Ratio,
				s.now(),
			},
		})
	if err != nil {
		return 0, fmt.Errorf("store: inserting bucket: %w", err)
	}
	return conn.LastInsertRowID(), nil
}

// AddItems appends items to an unfinalized bucket, recompressing its
// archive with the bucket's existing compression type. Keys must not
// collide with keys already in the bucket.
func (s *Store) AddItems(ctx context.Context, bucketID int64, items []bucket.Item) (*BucketResult, error) {
	if len(items) == 0 {
		return nil, storeerr.Validationf("no items to add")
	}
	if err := bucket.ValidateItems(items, nil); err != nil {
		return nil, err
	}

	var result *BucketResult
	var compressionType CompressionType
	err := s.pool.Immediate(ctx, func(conn *sqlite.Conn) error {
		row, err := loadBucket(conn, bucketID, true)
		if err != nil {
			return err
		}
		if row.finalizedAt != nil {
			return storeerr.Validationf("bucket is finalized: %d", bucketID)
		}
		compressionType, err = s.typeByID(row.compressionTypeID)
		if err != nil {
			return err
		}
		manifest, err := bucket.DecodeManifest(row.manifest, bucketID)
		if err != nil {
			return err
		}
		framed, err := bucket.Decompress(row.archive, compressionType.Algorithm, bucketID)
		if err != nil {
			return err
		}

		packed, err := bucket.Append(framed, manifest, items, compressionType.Config(), bucketID)
		if err != nil {
			return err
		}
		encoded, err := bucket.EncodeManifest(packed.Manifest)
		if err != nil {
			return err
		}

		err = sqlitex.Execute(conn, `
			UPDATE content_buckets
			SET bucket_blob = ?, index_manifest = ?, content_count = ?,
			    uncompressed_size = ?, compressed_size = ?, compression_ratio = ?
			WHERE id = ?`,
			&sqlitex.ExecOptions{
				Args: []any{
					packed.Archive,
					encoded,
					packed.Manifest.Len(),
					packed.UncompressedSize,
					packed.CompressedSize,
					packed.Ratio,
					bucketID,
				},
			})
		if err != nil {
			return fmt.Errorf("store: updating bucket %d: %w", bucketID, err)
		}

		result = &BucketResult{
			BucketID:         bucketID,
			CompressionType:  compressionType.Name,
			Algorithm:        compressionType.Algorithm,
			ItemCount:        packed.Manifest.Len(),
			UncompressedSize: packed.UncompressedSize,
			CompressedSize:   packed.CompressedSize,
			Ratio:            packed.Ratio,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, Stat{
		CompressionTypeID: compressionType.ID,
		Operation:         OperationBucketAppend,
		UncompressedBytes: result.UncompressedSize,
		CompressedBytes:   result.CompressedSize,
	})
	s.logger.Info("bucket items added",
		"bucket_id", bucketID,
		"added", len(items),
		"item_count", result.ItemCount,
	)
	return result, nil
}

// DecompressBucket returns a bucket's decompressed archive, suitable
// for passing to [Store.RetrieveFromBucket] as cachedArchive.
func (s *Store) DecompressBucket(ctx context.Context, bucketID int64) ([]byte, error) {
	row, err := s.readBucket(ctx, bucketID, true)
	if err != nil {
		return nil, err
	}
	compressionType, err := s.typeByID(row.compressionTypeID)
	if err != nil {
		return nil, err
	}
	framed, err := bucket.Decompress(row.archive, compressionType.Algorithm, bucketID)
	if err != nil {
		return nil, err
	}

	s.record(ctx, Stat{
		CompressionTypeID: compressionType.ID,
		Operation:         OperationBucketRead,
		UncompressedBytes: row.uncompressedSize,
		CompressedBytes:   row.compressedSize,
	})
	return framed, nil
}

// RetrieveFromBucket returns the item stored under key. If
// cachedArchive is non-nil it must be the bucket's decompressed
// archive (from [Store.DecompressBucket]) and the stored archive is
// not read.
func (s *Store) RetrieveFromBucket(ctx context.Context, bucketID int64, key string, cachedArchive []byte) (*BucketItem, error) {
	row, err := s.readBucket(ctx, bucketID, cachedArchive == nil)
	if err != nil {
		return nil, err
	}
	manifest, err := bucket.DecodeManifest(row.manifest, bucketID)
	if err != nil {
		return nil, err
	}
	if _, ok := manifest.Lookup(key); !ok {
		return nil, storeerr.NotFound("entry", key)
	}

	framed := cachedArchive
	if framed == nil {
		compressionType, err := s.typeByID(row.compressionTypeID)
		if err != nil {
			return nil, err
		}
		framed, err = bucket.Decompress(row.archive, compressionType.Algorithm, bucketID)
		if err != nil {
			return nil, err
		}
		s.record(ctx, Stat{
			CompressionTypeID: compressionType.ID,
			Operation:         OperationBucketRead,
			UncompressedBytes: row.uncompressedSize,
			CompressedBytes:   row.compressedSize,
		})
	}

	content, entry, err := bucket.Extract(framed, manifest, key, bucketID)
	if err != nil {
		return nil, err
	}
	return &BucketItem{Content: content, Metadata: entry.Metadata}, nil
}

// ListBucketEntries returns a bucket's manifest entries in pack order.
// The archive is not read.
func (s *Store) ListBucketEntries(ctx context.Context, bucketID int64) ([]bucket.ManifestEntry, error) {
	row, err := s.readBucket(ctx, bucketID, false)
	if err != nil {
		return nil, err
	}
	manifest, err := bucket.DecodeManifest(row.manifest, bucketID)
	if err != nil {
		return nil, err
	}
	return manifest.Entries, nil
}

// RawManifest returns a bucket's encoded manifest exactly as stored,
// without decoding it. Used to inspect buckets whose manifest no
// longer decodes.
func (s *Store) RawManifest(ctx context.Context, bucketID int64) ([]byte, error) {
	row, err := s.readBucket(ctx, bucketID, false)
	if err != nil {
		return nil, err
	}
	return row.manifest, nil
}

// readBucket loads one bucket row on a pooled connection.
func (s *Store) readBucket(ctx context.Context, bucketID int64, withArchive bool) (*bucketRow, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: read bucket: %w", err)
	}
	defer s.pool.Put(conn)
	return loadBucket(conn, bucketID, withArchive)
}

// loadBucket reads a bucket row, returning a not-found error if it
// does not exist. The archive column is skipped unless withArchive.
func loadBucket(conn *sqlite.Conn, bucketID int64, withArchive bool) (*bucketRow, error) {
	archiveColumn := "NULL"
	if withArchive {
		archiveColumn = "bucket_blob"
	}
	query := `
		SELECT id, bucket_type, domain_pattern, compression_type_id, ` + archiveColumn + `,
		       index_manifest, content_count, uncompressed_size, compressed_size,
		       compression_ratio, created_at, finalized_at
		FROM content_buckets WHERE id = ?`

	var row *bucketRow
	err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: []any{bucketID},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			row = &bucketRow{
				id:                stmt.ColumnInt64(0),
				bucketType:        stmt.ColumnText(1),
				domainPattern:     stmt.ColumnText(2),
				compressionTypeID: stmt.ColumnInt64(3),
				manifest:          columnBytes(stmt, 5),
				contentCount:      stmt.ColumnInt(6),
				uncompressedSize:  stmt.ColumnInt64(7),
				compressedSize:    stmt.ColumnInt64(8),
				ratio:             stmt.ColumnFloat(9),
				createdAt:         columnTime(stmt, 10),
				finalizedAt:       columnOptionalTime(stmt, 11),
			}
			if withArchive {
				row.archive = columnBytes(stmt, 4)
			}
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store: loading bucket %d: %w", bucketID, err)
	}
	if row == nil {
		return nil, storeerr.NotFound("bucket", bucketID)
	}
	return row, nil
}
