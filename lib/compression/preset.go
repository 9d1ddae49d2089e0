// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package compression

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bureau-foundation/archivestore/lib/storeerr"
)

// Brotli tunable bounds. Both are base-2 logarithms: the sliding
// window size and the input block size.
const (
	MinWindowBits = 10
	MaxWindowBits = 24
	MinBlockBits  = 16
	MaxBlockBits  = 24
)

// Config is a canonical compression configuration. WindowBits and
// BlockBits are brotli-only tunables; zero means "not set" and is the
// only value they hold for other algorithms.
type Config struct {
	Algorithm  Algorithm `json:"algorithm"`
	Level      int       `json:"level"`
	WindowBits int       `json:"window_bits,omitempty"`
	BlockBits  int       `json:"block_bits,omitempty"`
}

// Equal reports whether two configurations select the same algorithm
// and level. Tunables do not participate.
func (config Config) Equal(other Config) bool {
	return config.Algorithm == other.Algorithm && config.Level == other.Level
}

// String renders the config in preset-name form ("brotli_6", "none").
func (config Config) String() string {
	if config.Algorithm == AlgorithmNone {
		return "none"
	}
	return fmt.Sprintf("%s_%d", config.Algorithm, config.Level)
}

// normalized clamps level and tunables and drops tunables that do not
// apply to the algorithm.
func (config Config) normalized() Config {
	config.Level = config.Algorithm.ClampLevel(config.Level)
	if config.Algorithm != AlgorithmBrotli {
		config.WindowBits = 0
		config.BlockBits = 0
		return config
	}
	if config.WindowBits != 0 {
		config.WindowBits = clamp(config.WindowBits, MinWindowBits, MaxWindowBits)
	}
	if config.BlockBits != 0 {
		config.BlockBits = clamp(config.BlockBits, MinBlockBits, MaxBlockBits)
	}
	return config
}

// Options is a loose compression request as callers supply it. A
// non-empty Preset takes precedence over every other field. With no
// preset and no algorithm, gzip is used. Nil pointers mean "use the
// algorithm default" (level) or "unset" (tunables).
type Options struct {
	Preset     string
	Algorithm  string
	Level      *int
	WindowBits *int
	BlockBits  *int
}

// Preset is a named, registered compression configuration.
type Preset struct {
	Name        string `json:"name"`
	Config      Config `json:"config"`
	Description string `json:"description"`
}

// DefaultPresets returns the built-in preset table. Each call returns
// a fresh slice.
func DefaultPresets() []Preset {
	presets := []Preset{
		{Name: "none", Config: Config{Algorithm: AlgorithmNone}, Description: "No compression"},
	}
	for _, level := range []int{1, 3, 6, 9} {
		presets = append(presets, Preset{
			Name:        fmt.Sprintf("gzip_%d", level),
			Config:      Config{Algorithm: AlgorithmGzip, Level: level},
			Description: gzipDescription(level),
		})
	}
	for level := 0; level <= 11; level++ {
		config := Config{Algorithm: AlgorithmBrotli, Level: level}
		if level >= 10 {
			config.WindowBits = MaxWindowBits
			config.BlockBits = MaxBlockBits
		}
		presets = append(presets, Preset{
			Name:        fmt.Sprintf("brotli_%d", level),
			Config:      config,
			Description: brotliDescription(level),
		})
	}
	for _, level := range []int{1, 3, 9, 19, 22} {
		presets = append(presets, Preset{
			Name:        fmt.Sprintf("zstd_%d", level),
			Config:      Config{Algorithm: AlgorithmZstd, Level: level},
			Description: zstdDescription(level),
		})
	}
	return presets
}

func gzipDescription(level int) string {
	switch {
	case level <= 3:
		return fmt.Sprintf("Gzip level %d - fast compression", level)
	case level >= 9:
		return "Gzip level 9 - maximum gzip compression"
	default:
		return fmt.Sprintf("Gzip level %d - standard web compression", level)
	}
}

func brotliDescription(level int) string {
	switch {
	case level <= 3:
		return fmt.Sprintf("Brotli level %d - fast", level)
	case level <= 7:
		return fmt.Sprintf("Brotli level %d - balanced", level)
	case level <= 9:
		return fmt.Sprintf("Brotli level %d - high compression", level)
	default:
		return fmt.Sprintf("Brotli level %d - archival, 16MB window", level)
	}
}

func zstdDescription(level int) string {
	switch {
	case level <= 3:
		return fmt.Sprintf("Zstandard level %d - fast", level)
	case level >= 19:
		return fmt.Sprintf("Zstandard level %d - maximum compression", level)
	default:
		return fmt.Sprintf("Zstandard level %d - balanced", level)
	}
}

// Registry is an immutable set of presets. Build one with
// [NewRegistry] and pass it to whatever needs to resolve names; there
// is no process-wide registry.
type Registry struct {
	presets []Preset
	byName  map[string]int
}

// NewRegistry validates presets and builds a registry. Preset configs
// are normalized (levels clamped). Duplicate or empty names and
// unknown algorithms are rejected.
func NewRegistry(presets []Preset) (*Registry, error) {
	registry := &Registry{
		presets: make([]Preset, 0, len(presets)),
		byName:  make(map[string]int, len(presets)),
	}
	for _, preset := range presets {
		if preset.Name == "" {
			return nil, fmt.Errorf("compression: preset with empty name")
		}
		if _, exists := registry.byName[preset.Name]; exists {
			return nil, fmt.Errorf("compression: duplicate preset %q", preset.Name)
		}
		if !preset.Config.Algorithm.Valid() {
			return nil, fmt.Errorf("compression: preset %q has invalid algorithm %s",
				preset.Name, preset.Config.Algorithm)
		}
		preset.Config = preset.Config.normalized()
		registry.byName[preset.Name] = len(registry.presets)
		registry.presets = append(registry.presets, preset)
	}
	return registry, nil
}

// DefaultRegistry returns a new registry over [DefaultPresets].
func DefaultRegistry() *Registry {
	registry, err := NewRegistry(DefaultPresets())
	if err != nil {
		panic("compression: default presets invalid: " + err.Error())
	}
	return registry
}

// Presets returns the registered presets in registration order.
func (registry *Registry) Presets() []Preset {
	presets := make([]Preset, len(registry.presets))
	copy(presets, registry.presets)
	return presets
}

// Names returns the registered preset names, sorted.
func (registry *Registry) Names() []string {
	names := make([]string, 0, len(registry.presets))
	for _, preset := range registry.presets {
		names = append(names, preset.Name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the preset registered under name.
func (registry *Registry) Lookup(name string) (Preset, bool) {
	index, ok := registry.byName[name]
	if !ok {
		return Preset{}, false
	}
	return registry.presets[index], true
}

// Preset returns the preset registered under name, or a validation
// error naming it and listing the valid presets.
func (registry *Registry) Preset(name string) (Preset, error) {
	preset, ok := registry.Lookup(name)
	if !ok {
		return Preset{}, storeerr.Validationf("unknown compression type: %s (valid: %s)",
			name, strings.Join(registry.Names(), ", "))
	}
	return preset, nil
}

// Resolve turns loose options into a canonical config. See [Options]
// for precedence rules.
func (registry *Registry) Resolve(options Options) (Config, error) {
	if options.Preset != "" {
		preset, err := registry.Preset(options.Preset)
		if err != nil {
			return Config{}, err
		}
		return preset.Config, nil
	}
	return ResolveExplicit(options)
}

// ResolveExplicit resolves options without consulting any preset
// table. A non-empty Preset field is ignored.
func ResolveExplicit(options Options) (Config, error) {
	algorithm := AlgorithmGzip
	if options.Algorithm != "" {
		parsed, err := ParseAlgorithm(options.Algorithm)
		if err != nil {
			return Config{}, err
		}
		algorithm = parsed
	}

	_, _, level := algorithm.LevelRange()
	if options.Level != nil {
		level = *options.Level
	}

	config := Config{Algorithm: algorithm, Level: level}
	if options.WindowBits != nil {
		config.WindowBits = clamp(*options.WindowBits, MinWindowBits, MaxWindowBits)
	}
	if options.BlockBits != nil {
		config.BlockBits = clamp(*options.BlockBits, MinBlockBits, MaxBlockBits)
	}
	return config.normalized(), nil
}
