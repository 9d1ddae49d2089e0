// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package compression

import (
	"strings"

	"github.com/bureau-foundation/archivestore/lib/storeerr"
)

// UseCase is a caller hint steering adaptive selection.
type UseCase string

const (
	// UseCaseRealtime favors compression speed: gzip at a low level.
	UseCaseRealtime UseCase = "realtime"

	// UseCaseBalanced uses mid-level brotli, scaling up with size.
	UseCaseBalanced UseCase = "balanced"

	// UseCaseArchival favors ratio: maximum brotli for large payloads.
	UseCaseArchival UseCase = "archival"
)

// ParseUseCase parses a use-case name.
func ParseUseCase(name string) (UseCase, error) {
	switch useCase := UseCase(strings.ToLower(strings.TrimSpace(name))); useCase {
	case UseCaseRealtime, UseCaseBalanced, UseCaseArchival:
		return useCase, nil
	default:
		return "", storeerr.Validationf("unknown use case %q (valid: realtime, balanced, archival)", name)
	}
}

// SelectorConfig holds the byte thresholds the selector uses. Zero
// fields take the defaults from [DefaultSelectorConfig].
type SelectorConfig struct {
	// MinCompressSize is the floor below which payloads are stored
	// uncompressed regardless of use case.
	MinCompressSize int64

	// RealtimeLargeSize switches realtime from gzip_3 to gzip_1.
	RealtimeLargeSize int64

	// BalancedSteps are the sizes at which balanced moves from
	// brotli_4 to brotli_5, brotli_6, and brotli_7.
	BalancedSteps [3]int64

	// ArchivalThreshold is the size above which archival payloads get
	// brotli_11. Smaller archival payloads get brotli_9.
	ArchivalThreshold int64
}

// DefaultSelectorConfig returns the default thresholds.
func DefaultSelectorConfig() SelectorConfig {
	return SelectorConfig{
		MinCompressSize:   1024,
		RealtimeLargeSize: 4 << 20,
		BalancedSteps:     [3]int64{16 << 10, 256 << 10, 4 << 20},
		ArchivalThreshold: 100 << 10,
	}
}

// Selector chooses a preset name from payload size and use case. It
// is a heuristic: thresholds are tunable, the tiers are not.
type Selector struct {
	config SelectorConfig
}

// NewSelector builds a selector, filling zero thresholds with defaults.
func NewSelector(config SelectorConfig) Selector {
	defaults := DefaultSelectorConfig()
	if config.MinCompressSize <= 0 {
		config.MinCompressSize = defaults.MinCompressSize
	}
	if config.RealtimeLargeSize <= 0 {
		config.RealtimeLargeSize = defaults.RealtimeLargeSize
	}
	for i := range config.BalancedSteps {
		if config.BalancedSteps[i] <= 0 {
			config.BalancedSteps[i] = defaults.BalancedSteps[i]
		}
	}
	if config.ArchivalThreshold <= 0 {
		config.ArchivalThreshold = defaults.ArchivalThreshold
	}
	return Selector{config: config}
}

// Config returns the effective thresholds.
func (selector Selector) Config() SelectorConfig {
	return selector.config
}

// Select returns the preset name for a payload of size bytes.
func (selector Selector) Select(size int64, useCase UseCase) (string, error) {
	useCase, err := ParseUseCase(string(useCase))
	if err != nil {
		return "", err
	}
	if selector.config.MinCompressSize == 0 {
		selector = NewSelector(selector.config)
	}
	config := selector.config

	if size < config.MinCompressSize {
		return "none", nil
	}

	switch useCase {
	case UseCaseRealtime:
		if size > config.RealtimeLargeSize {
			return "gzip_1", nil
		}
		return "gzip_3", nil

	case UseCaseArchival:
		if size > config.ArchivalThreshold {
			return "brotli_11", nil
		}
		return "brotli_9", nil

	default:
		level := 4
		for _, step := range config.BalancedSteps {
			if size >= step {
				level++
			}
		}
		return brotliPresetName(level), nil
	}
}

func brotliPresetName(level int) string {
	return Config{Algorithm: AlgorithmBrotli, Level: level}.String()
}
