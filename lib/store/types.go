// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"github.com/bureau-foundation/archivestore/lib/compression"
)

// CompressionType is a row of compression_types.
type CompressionType struct {
	ID          int64                 `json:"id"`
	Name        string                `json:"name"`
	Algorithm   compression.Algorithm `json:"algorithm"`
	Level       int                   `json:"level"`
	WindowBits  int                   `json:"window_bits,omitempty"`
	BlockBits   int                   `json:"block_bits,omitempty"`
	Description string                `json:"description"`
}

// Config returns the codec configuration for this type.
func (compressionType CompressionType) Config() compression.Config {
	return compression.Config{
		Algorithm:  compressionType.Algorithm,
		Level:      compressionType.Level,
		WindowBits: compressionType.WindowBits,
		BlockBits:  compressionType.BlockBits,
	}
}

// GetCompressionType returns the type registered under name, or a
// validation error naming it and listing the valid names.
func (s *Store) GetCompressionType(name string) (CompressionType, error) {
	compressionType, ok := s.typesByName[name]
	if !ok {
		return CompressionType{}, s.unknownType(name)
	}
	return compressionType, nil
}

// ListCompressionTypes returns every registered type, ordered by name.
func (s *Store) ListCompressionTypes() []CompressionType {
	names := s.typeNames()
	types := make([]CompressionType, 0, len(names))
	for _, name := range names {
		types = append(types, s.typesByName[name])
	}
	return types
}

// SelectCompressionType picks a type for a payload of size bytes and
// the given use case.
func (s *Store) SelectCompressionType(size int64, useCase compression.UseCase) (CompressionType, error) {
	name, err := s.selector.Select(size, useCase)
	if err != nil {
		return CompressionType{}, err
	}
	return s.GetCompressionType(name)
}

// resolveType applies the resolution order shared by content and
// bucket writes: an explicit type name, then the selector when a use
// case is given, then the store default.
func (s *Store) resolveType(name string, useCase compression.UseCase, size int64) (CompressionType, error) {
	switch {
	case name != "":
		return s.GetCompressionType(name)
	case useCase != "":
		return s.SelectCompressionType(size, useCase)
	default:
		return s.defaultType, nil
	}
}
