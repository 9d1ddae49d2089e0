// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/archivestore/lib/compression"
	"github.com/bureau-foundation/archivestore/lib/storeerr"
)

// DefaultQueryLimit caps QueryBuckets results when no limit is given.
const DefaultQueryLimit = 100

// BucketStats is a bucket's aggregate fields joined with its
// compression type. QueryBuckets returns the same shape.
type BucketStats struct {
	ID               int64                 `json:"id"`
	BucketType       string                `json:"bucket_type"`
	DomainPattern    string                `json:"domain_pattern,omitempty"`
	ContentCount     int                   `json:"content_count"`
	UncompressedSize int64                 `json:"uncompressed_size"`
	CompressedSize   int64                 `json:"compressed_size"`
	Ratio            float64               `json:"ratio"`
	CompressionType  string                `json:"compression_type"`
	Algorithm        compression.Algorithm `json:"algorithm"`
	Level            int                   `json:"level"`
	CreatedAt        time.Time             `json:"created_at"`
	FinalizedAt      *time.Time            `json:"finalized_at,omitempty"`
}

// BucketQuery filters QueryBuckets. Zero fields do not filter.
type BucketQuery struct {
	BucketType    string
	DomainPattern string
	FinalizedOnly bool
	// Limit caps the result count. Zero or negative means
	// DefaultQueryLimit.
	Limit int
}

const statsSelect = `
	SELECT b.id, b.bucket_type, b.domain_pattern, b.content_count,
	       b.uncompressed_size, b.compressed_size, b.compression_ratio,
	       t.name, t.algorithm, t.level, b.created_at, b.finalized_at
	FROM content_buckets b
	JOIN compression_types t ON t.id = b.compression_type_id`

func scanStats(stmt *sqlite.Stmt) (BucketStats, error) {
	algorithm, err := compression.ParseAlgorithm(stmt.ColumnText(8))
	if err != nil {
		return BucketStats{}, err
	}
	return BucketStats{
		ID:               stmt.ColumnInt64(0),
		BucketType:       stmt.ColumnText(1),
		DomainPattern:    stmt.ColumnText(2),
		ContentCount:     stmt.ColumnInt(3),
		UncompressedSize: stmt.ColumnInt64(4),
		CompressedSize:   stmt.ColumnInt64(5),
		Ratio:            stmt.ColumnFloat(6),
		CompressionType:  stmt.ColumnText(7),
		Algorithm:        algorithm,
		Level:            stmt.ColumnInt(9),
		CreatedAt:        columnTime(stmt, 10),
		FinalizedAt:      columnOptionalTime(stmt, 11),
	}, nil
}

// GetBucketStats returns one bucket's aggregates and compression type.
func (s *Store) GetBucketStats(ctx context.Context, bucketID int64) (*BucketStats, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: bucket stats: %w", err)
	}
	defer s.pool.Put(conn)

	var stats *BucketStats
	err = sqlitex.Execute(conn, statsSelect+` WHERE b.id = ?`, &sqlitex.ExecOptions{
		Args: []any{bucketID},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			row, err := scanStats(stmt)
			if err != nil {
				return err
			}
			stats = &row
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store: bucket stats %d: %w", bucketID, err)
	}
	if stats == nil {
		return nil, storeerr.NotFound("bucket", bucketID)
	}
	return stats, nil
}

// QueryBuckets returns buckets matching query, most recently created
// first.
func (s *Store) QueryBuckets(ctx context.Context, query BucketQuery) ([]BucketStats, error) {
	var conditions []string
	var args []any
	if query.BucketType != "" {
		conditions = append(conditions, "b.bucket_type = ?")
		args = append(args, query.BucketType)
	}
	if query.DomainPattern != "" {
		conditions = append(conditions, "b.domain_pattern = ?")
		args = append(args, query.DomainPattern)
	}
	if query.FinalizedOnly {
		conditions = append(conditions, "b.finalized_at IS NOT NULL")
	}

	limit := query.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	var builder strings.Builder
	builder.WriteString(statsSelect)
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY b.created_at DESC, b.id DESC LIMIT ?")
	args = append(args, limit)

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: query buckets: %w", err)
	}
	defer s.pool.Put(conn)

	var results []BucketStats
	err = sqlitex.Execute(conn, builder.String(), &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			row, err := scanStats(stmt)
			if err != nil {
				return err
			}
			results = append(results, row)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store: query buckets: %w", err)
	}
	return results, nil
}
