// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/bureau-foundation/archivestore/lib/compression"
	"github.com/bureau-foundation/archivestore/lib/config"
	"github.com/bureau-foundation/archivestore/lib/store"
)

// loadConfig reads the config named by --config or
// ARCHIVESTORE_CONFIG. With neither set, development defaults are
// used, so stateless commands and --db work without a file.
func (app *application) loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case app.configPath != "":
		cfg, err = config.LoadFile(app.configPath)
	case os.Getenv(config.EnvironmentVariable) != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if app.databasePath != "" {
		cfg.Store.Path = app.databasePath
	}
	if app.logLevel != "" {
		cfg.Logging.Level = app.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the stderr logger. Terminals get text unless the
// config asks for JSON.
func (app *application) newLogger(cfg *config.Config) *slog.Logger {
	options := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(app.stderr, options))
	}
	return slog.New(slog.NewTextHandler(app.stderr, options))
}

func selectorConfig(cfg *config.Config) compression.SelectorConfig {
	selector := compression.SelectorConfig{
		MinCompressSize:   cfg.Selector.MinCompressSize,
		RealtimeLargeSize: cfg.Selector.RealtimeLargeSize,
		ArchivalThreshold: cfg.Selector.ArchivalThreshold,
	}
	copy(selector.BalancedSteps[:], cfg.Selector.BalancedSteps)
	return selector
}

// openStore loads the config and opens the store it names. The caller
// closes the store.
func (app *application) openStore() (*store.Store, error) {
	cfg, err := app.loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsurePaths(); err != nil {
		return nil, err
	}

	references := make([]store.ReferenceSource, len(cfg.References))
	for i, reference := range cfg.References {
		references[i] = store.ReferenceSource{Table: reference.Table, Column: reference.Column}
	}

	return store.Open(store.Config{
		Path:             cfg.Store.Path,
		PoolSize:         cfg.Store.PoolSize,
		Logger:           app.newLogger(cfg).With("db", cfg.Store.Path),
		Selector:         selectorConfig(cfg),
		DefaultPreset:    cfg.Store.DefaultPreset,
		ReferenceSources: references,
	})
}
