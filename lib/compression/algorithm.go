// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package compression

import (
	"fmt"
	"strings"

	"github.com/bureau-foundation/archivestore/lib/storeerr"
)

// Algorithm identifies a compression algorithm family. The string
// forms are persisted in the compression_types table, so they are
// protocol constants.
type Algorithm uint8

const (
	// AlgorithmNone stores bytes unchanged. Used for payloads too
	// small for compression to pay for its framing overhead.
	AlgorithmNone Algorithm = iota

	// AlgorithmGzip is DEFLATE in a gzip container. Fast and
	// universally readable; the default when nothing is specified.
	AlgorithmGzip

	// AlgorithmBrotli gives the best ratios on HTML and JSON at high
	// quality levels, at a steep compression-time cost.
	AlgorithmBrotli

	// AlgorithmZstd balances ratio and speed across a wide level range.
	AlgorithmZstd
)

// levelRange is the valid level interval and default for one algorithm.
type levelRange struct {
	min, max, def int
}

var levelRanges = [...]levelRange{
	AlgorithmNone:   {0, 0, 0},
	AlgorithmGzip:   {1, 9, 6},
	AlgorithmBrotli: {0, 11, 6},
	AlgorithmZstd:   {1, 22, 3},
}

// Algorithms returns every supported algorithm in tag order.
func Algorithms() []Algorithm {
	return []Algorithm{AlgorithmNone, AlgorithmGzip, AlgorithmBrotli, AlgorithmZstd}
}

// String returns the persisted name of the algorithm.
func (algorithm Algorithm) String() string {
	switch algorithm {
	case AlgorithmNone:
		return "none"
	case AlgorithmGzip:
		return "gzip"
	case AlgorithmBrotli:
		return "brotli"
	case AlgorithmZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(algorithm))
	}
}

// Valid reports whether algorithm is one of the supported families.
func (algorithm Algorithm) Valid() bool {
	return algorithm <= AlgorithmZstd
}

// LevelRange returns the minimum, maximum, and default level.
func (algorithm Algorithm) LevelRange() (minimum, maximum, defaultLevel int) {
	if !algorithm.Valid() {
		return 0, 0, 0
	}
	r := levelRanges[algorithm]
	return r.min, r.max, r.def
}

// ClampLevel forces level into the algorithm's valid range.
func (algorithm Algorithm) ClampLevel(level int) int {
	minimum, maximum, _ := algorithm.LevelRange()
	return clamp(level, minimum, maximum)
}

// MarshalText implements encoding.TextMarshaler so algorithms render
// by name in JSON and YAML.
func (algorithm Algorithm) MarshalText() ([]byte, error) {
	if !algorithm.Valid() {
		return nil, fmt.Errorf("invalid algorithm %d", uint8(algorithm))
	}
	return []byte(algorithm.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (algorithm *Algorithm) UnmarshalText(text []byte) error {
	parsed, err := ParseAlgorithm(string(text))
	if err != nil {
		return err
	}
	*algorithm = parsed
	return nil
}

// ParseAlgorithm parses an algorithm name. Matching is case-insensitive.
// Unknown names produce a validation error listing the valid set.
func ParseAlgorithm(name string) (Algorithm, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for _, algorithm := range Algorithms() {
		if algorithm.String() == normalized {
			return algorithm, nil
		}
	}
	names := make([]string, 0, 4)
	for _, algorithm := range Algorithms() {
		names = append(names, algorithm.String())
	}
	return 0, storeerr.Validationf("unknown compression algorithm %q (valid: %s)",
		name, strings.Join(names, ", "))
}

func clamp(value, minimum, maximum int) int {
	if value < minimum {
		return minimum
	}
	if value > maximum {
		return maximum
	}
	return value
}
