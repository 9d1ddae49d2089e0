// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/archivestore/lib/clock"
	"github.com/bureau-foundation/archivestore/lib/compression"
	"github.com/bureau-foundation/archivestore/lib/sqlitepool"
)

// Operation names a recorded store operation.
type Operation string

const (
	OperationCompress     Operation = "compress"
	OperationDecompress   Operation = "decompress"
	OperationBucketCreate Operation = "bucket_create"
	OperationBucketAppend Operation = "bucket_append"
	OperationBucketRead   Operation = "bucket_read"
)

// Stat is one operation's contribution to the aggregate counters.
type Stat struct {
	CompressionTypeID int64
	Operation         Operation
	UncompressedBytes int64
	CompressedBytes   int64
}

// Recorder receives a Stat after each successful operation. Errors
// are logged by the store and otherwise ignored.
type Recorder interface {
	Record(ctx context.Context, stat Stat) error
}

// CompressionStat is an aggregate row of compression_stats.
type CompressionStat struct {
	CompressionType   string                `json:"compression_type"`
	Algorithm         compression.Algorithm `json:"algorithm"`
	Level             int                   `json:"level"`
	Operation         Operation             `json:"operation"`
	Count             int64                 `json:"count"`
	UncompressedBytes int64                 `json:"uncompressed_bytes"`
	CompressedBytes   int64                 `json:"compressed_bytes"`
	Ratio             float64               `json:"ratio"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// record hands stat to the recorder. A failing recorder never affects
// the operation that produced the stat.
func (s *Store) record(ctx context.Context, stat Stat) {
	if err := s.recorder.Record(ctx, stat); err != nil {
		s.logger.Warn("recording compression stats failed",
			"operation", string(stat.Operation),
			"compression_type_id", stat.CompressionTypeID,
			"error", err,
		)
	}
}

// tableRecorder accumulates stats into the compression_stats table.
type tableRecorder struct {
	pool  *sqlitepool.Pool
	clock clock.Clock
}

func (r *tableRecorder) Record(ctx context.Context, stat Stat) error {
	conn, err := r.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer r.pool.Put(conn)

	return sqlitex.Execute(conn, `
		INSERT INTO compression_stats
			(compression_type_id, operation, operation_count,
			 uncompressed_bytes, compressed_bytes, updated_at)
		VALUES (?, ?, 1, ?, ?, ?)
		ON CONFLICT (compression_type_id, operation) DO UPDATE SET
			operation_count    = operation_count + 1,
			uncompressed_bytes = uncompressed_bytes + excluded.uncompressed_bytes,
			compressed_bytes   = compressed_bytes + excluded.compressed_bytes,
			updated_at         = excluded.updated_at`,
		&sqlitex.ExecOptions{
			Args: []any{
				stat.CompressionTypeID,
				string(stat.Operation),
				stat.UncompressedBytes,
				stat.CompressedBytes,
				r.clock.Now().UTC().UnixNano(),
			},
		})
}

// CompressionStats returns the aggregate counters recorded by the
// default recorder, ordered by type name and operation. A store
// opened with a custom Recorder has no rows here.
func (s *Store) CompressionStats(ctx context.Context) ([]CompressionStat, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: compression stats: %w", err)
	}
	defer s.pool.Put(conn)

	var stats []CompressionStat
	err = sqlitex.Execute(conn, `
		SELECT t.name, t.algorithm, t.level, s.operation, s.operation_count,
		       s.uncompressed_bytes, s.compressed_bytes, s.updated_at
		FROM compression_stats s
		JOIN compression_types t ON t.id = s.compression_type_id
		ORDER BY t.name, s.operation`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				algorithm, err := compression.ParseAlgorithm(stmt.ColumnText(1))
				if err != nil {
					return err
				}
				stat := CompressionStat{
					CompressionType:   stmt.ColumnText(0),
					Algorithm:         algorithm,
					Level:             stmt.ColumnInt(2),
					Operation:         Operation(stmt.ColumnText(3)),
					Count:             stmt.ColumnInt64(4),
					UncompressedBytes: stmt.ColumnInt64(5),
					CompressedBytes:   stmt.ColumnInt64(6),
					UpdatedAt:         columnTime(stmt, 7),
				}
				stat.Ratio = compression.Ratio(stat.CompressedBytes, stat.UncompressedBytes)
				stats = append(stats, stat)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("store: compression stats: %w", err)
	}
	return stats, nil
}
