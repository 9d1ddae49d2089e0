// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/archivestore/lib/clock"
	"github.com/bureau-foundation/archivestore/lib/compression"
	"github.com/bureau-foundation/archivestore/lib/sqlitepool"
	"github.com/bureau-foundation/archivestore/lib/storeerr"
)

// DefaultPreset is used when a caller names neither a compression
// type nor a use case.
const DefaultPreset = "gzip_6"

// Config holds the parameters for opening a store.
type Config struct {
	// Path is the filesystem path to the SQLite database file. The
	// parent directory must exist. Required.
	Path string

	// PoolSize is the number of pooled connections. Defaults to
	// sqlitepool.DefaultPoolSize.
	PoolSize int

	// Clock stamps created_at and finalized_at. Defaults to
	// clock.Real().
	Clock clock.Clock

	// Logger receives operational messages. If nil, a no-op logger
	// is used.
	Logger *slog.Logger

	// Registry supplies the presets seeded into compression_types.
	// Defaults to compression.DefaultRegistry().
	Registry *compression.Registry

	// Selector holds the thresholds used to pick a preset when a
	// caller supplies only a use case. Zero fields take defaults.
	Selector compression.SelectorConfig

	// DefaultPreset names the type used when a caller supplies neither
	// a type nor a use case. Defaults to [DefaultPreset].
	DefaultPreset string

	// ReferenceSources lists tables owned by other components whose
	// rows pin buckets. Their rows block deletion in addition to
	// bucket_references.
	ReferenceSources []ReferenceSource

	// Recorder receives per-operation statistics. Defaults to a
	// recorder writing the compression_stats table. Recording errors
	// are logged and never fail the operation.
	Recorder Recorder
}

// ReferenceSource is an external table with a column holding bucket
// ids.
type ReferenceSource struct {
	Table  string `yaml:"table" json:"table"`
	Column string `yaml:"column" json:"column"`
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks that both names are plain SQL identifiers. They are
// interpolated into queries, so anything else is rejected.
func (source ReferenceSource) Validate() error {
	if !identifierPattern.MatchString(source.Table) {
		return fmt.Errorf("invalid reference table name %q", source.Table)
	}
	if !identifierPattern.MatchString(source.Column) {
		return fmt.Errorf("invalid reference column name %q", source.Column)
	}
	return nil
}

// Store is the content and bucket store. It is safe for concurrent
// use.
type Store struct {
	pool     *sqlitepool.Pool
	clock    clock.Clock
	logger   *slog.Logger
	selector compression.Selector
	recorder Recorder

	// Compression types are immutable once seeded, so they are loaded
	// once at Open and served from memory.
	typesByName map[string]CompressionType
	typesByID   map[int64]CompressionType
	defaultType CompressionType

	referenceSources []ReferenceSource
}

// Open opens (creating if needed) the store database, creates the
// schema, and seeds compression types from the registry.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("store: Path is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	registry := cfg.Registry
	if registry == nil {
		registry = compression.DefaultRegistry()
	}
	defaultPreset := cfg.DefaultPreset
	if defaultPreset == "" {
		defaultPreset = DefaultPreset
	}
	for _, source := range cfg.ReferenceSources {
		if err := source.Validate(); err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: cfg.PoolSize,
		Logger:   logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, schema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	store := &Store{
		pool:             pool,
		clock:            clk,
		logger:           logger,
		selector:         compression.NewSelector(cfg.Selector),
		referenceSources: cfg.ReferenceSources,
	}
	store.recorder = cfg.Recorder
	if store.recorder == nil {
		store.recorder = &tableRecorder{pool: pool, clock: clk}
	}

	if err := store.seedCompressionTypes(context.Background(), registry); err != nil {
		pool.Close()
		return nil, err
	}

	defaultType, err := store.GetCompressionType(defaultPreset)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: default preset: %w", err)
	}
	store.defaultType = defaultType

	return store, nil
}

// Close closes the connection pool, blocking until borrowed
// connections are returned.
func (s *Store) Close() error {
	return s.pool.Close()
}

// seedCompressionTypes inserts every registry preset that is not yet
// present, then loads the whole table into memory. Existing rows win:
// a preset whose definition changed keeps its original row.
func (s *Store) seedCompressionTypes(ctx context.Context, registry *compression.Registry) error {
	err := s.pool.Immediate(ctx, func(conn *sqlite.Conn) error {
		for _, preset := range registry.Presets() {
			err := sqlitex.Execute(conn, `
				INSERT OR IGNORE INTO compression_types
					(name, algorithm, level, window_bits, block_bits, description)
				VALUES (?, ?, ?, ?, ?, ?)`,
				&sqlitex.ExecOptions{
					Args: []any{
						preset.Name,
						preset.Config.Algorithm.String(),
						preset.Config.Level,
						nullableInt(preset.Config.WindowBits),
						nullableInt(preset.Config.BlockBits),
						preset.Description,
					},
				})
			if err != nil {
				return fmt.Errorf("store: seeding compression type %s: %w", preset.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("store: loading compression types: %w", err)
	}
	defer s.pool.Put(conn)

	s.typesByName = make(map[string]CompressionType)
	s.typesByID = make(map[int64]CompressionType)
	err = sqlitex.Execute(conn, `
		SELECT id, name, algorithm, level, window_bits, block_bits, description
		FROM compression_types`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				algorithm, err := compression.ParseAlgorithm(stmt.ColumnText(2))
				if err != nil {
					return fmt.Errorf("compression type %s: %w", stmt.ColumnText(1), err)
				}
				compressionType := CompressionType{
					ID:          stmt.ColumnInt64(0),
					Name:        stmt.ColumnText(1),
					Algorithm:   algorithm,
					Level:       stmt.ColumnInt(3),
					WindowBits:  columnOptionalInt(stmt, 4),
					BlockBits:   columnOptionalInt(stmt, 5),
					Description: stmt.ColumnText(6),
				}
				s.typesByName[compressionType.Name] = compressionType
				s.typesByID[compressionType.ID] = compressionType
				return nil
			},
		})
	if err != nil {
		return fmt.Errorf("store: loading compression types: %w", err)
	}

	s.logger.Info("compression types loaded", "count", len(s.typesByName))
	return nil
}

// typeNames returns the loaded type names, sorted.
func (s *Store) typeNames() []string {
	names := make([]string, 0, len(s.typesByName))
	for name := range s.typesByName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Store) typeByID(id int64) (CompressionType, error) {
	compressionType, ok := s.typesByID[id]
	if !ok {
		return CompressionType{}, fmt.Errorf("store: compression type id %d not loaded", id)
	}
	return compressionType, nil
}

func (s *Store) unknownType(name string) error {
	return storeerr.Validationf("unknown compression type: %s (valid: %s)",
		name, strings.Join(s.typeNames(), ", "))
}

func (s *Store) now() int64 {
	return s.clock.Now().UTC().UnixNano()
}

// nullableInt maps the zero value of an optional tunable to SQL NULL.
func nullableInt(value int) any {
	if value == 0 {
		return nil
	}
	return value
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func columnOptionalInt(stmt *sqlite.Stmt, column int) int {
	if stmt.ColumnType(column) == sqlite.TypeNull {
		return 0
	}
	return stmt.ColumnInt(column)
}

func columnBytes(stmt *sqlite.Stmt, column int) []byte {
	data := make([]byte, stmt.ColumnLen(column))
	stmt.ColumnBytes(column, data)
	return data
}

func columnTime(stmt *sqlite.Stmt, column int) time.Time {
	return time.Unix(0, stmt.ColumnInt64(column)).UTC()
}

func columnOptionalTime(stmt *sqlite.Stmt, column int) *time.Time {
	if stmt.ColumnType(column) == sqlite.TypeNull {
		return nil
	}
	value := columnTime(stmt, column)
	return &value
}
