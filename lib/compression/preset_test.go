// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package compression

import (
	"strings"
	"testing"

	"github.com/bureau-foundation/archivestore/lib/storeerr"
)

func intPointer(value int) *int { return &value }

func TestResolveDefaults(t *testing.T) {
	registry := DefaultRegistry()

	tests := []struct {
		name    string
		options Options
		want    Config
	}{
		{"nothing", Options{}, Config{Algorithm: AlgorithmGzip, Level: 6}},
		{"none", Options{Algorithm: "none"}, Config{Algorithm: AlgorithmNone, Level: 0}},
		{"gzip", Options{Algorithm: "gzip"}, Config{Algorithm: AlgorithmGzip, Level: 6}},
		{"brotli", Options{Algorithm: "brotli"}, Config{Algorithm: AlgorithmBrotli, Level: 6}},
		{"zstd", Options{Algorithm: "zstd"}, Config{Algorithm: AlgorithmZstd, Level: 3}},
		{"uppercase", Options{Algorithm: "ZSTD"}, Config{Algorithm: AlgorithmZstd, Level: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := registry.Resolve(tt.options)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%+v) = %+v, want %+v", tt.options, got, tt.want)
			}
		})
	}
}

func TestResolveClamps(t *testing.T) {
	registry := DefaultRegistry()

	tests := []struct {
		name    string
		options Options
		want    Config
	}{
		{"gzip high", Options{Algorithm: "gzip", Level: intPointer(99)}, Config{Algorithm: AlgorithmGzip, Level: 9}},
		{"gzip low", Options{Algorithm: "gzip", Level: intPointer(0)}, Config{Algorithm: AlgorithmGzip, Level: 1}},
		{"brotli negative", Options{Algorithm: "brotli", Level: intPointer(-5)}, Config{Algorithm: AlgorithmBrotli, Level: 0}},
		{"zstd high", Options{Algorithm: "zstd", Level: intPointer(40)}, Config{Algorithm: AlgorithmZstd, Level: 22}},
		{"none level", Options{Algorithm: "none", Level: intPointer(5)}, Config{Algorithm: AlgorithmNone, Level: 0}},
		{
			"brotli tunables",
			Options{Algorithm: "brotli", Level: intPointer(9), WindowBits: intPointer(30), BlockBits: intPointer(2)},
			Config{Algorithm: AlgorithmBrotli, Level: 9, WindowBits: 24, BlockBits: 16},
		},
		{
			"tunables dropped for gzip",
			Options{Algorithm: "gzip", WindowBits: intPointer(20), BlockBits: intPointer(20)},
			Config{Algorithm: AlgorithmGzip, Level: 6},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := registry.Resolve(tt.options)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestResolvePresetTakesPrecedence(t *testing.T) {
	registry := DefaultRegistry()
	got, err := registry.Resolve(Options{Preset: "brotli_11", Algorithm: "gzip", Level: intPointer(1)})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := Config{Algorithm: AlgorithmBrotli, Level: 11, WindowBits: 24, BlockBits: 24}
	if got != want {
		t.Errorf("Resolve = %+v, want %+v", got, want)
	}
}

func TestResolveUnknownNames(t *testing.T) {
	registry := DefaultRegistry()

	_, err := registry.Resolve(Options{Preset: "nonexistent"})
	if !storeerr.IsValidation(err) {
		t.Fatalf("unknown preset: got %v, want ValidationError", err)
	}
	if !strings.Contains(err.Error(), "nonexistent") || !strings.Contains(err.Error(), "brotli_6") {
		t.Errorf("error %q should name the preset and list valid presets", err)
	}

	_, err = registry.Resolve(Options{Algorithm: "lzma"})
	if !storeerr.IsValidation(err) {
		t.Fatalf("unknown algorithm: got %v, want ValidationError", err)
	}
	for _, name := range []string{"lzma", "none", "gzip", "brotli", "zstd"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q should mention %q", err, name)
		}
	}
}

func TestConfigEqualIgnoresTunables(t *testing.T) {
	a := Config{Algorithm: AlgorithmBrotli, Level: 10, WindowBits: 24}
	b := Config{Algorithm: AlgorithmBrotli, Level: 10, BlockBits: 18}
	c := Config{Algorithm: AlgorithmBrotli, Level: 9, WindowBits: 24}
	if !a.Equal(b) {
		t.Error("configs differing only in tunables should be equal")
	}
	if a.Equal(c) {
		t.Error("configs differing in level should not be equal")
	}
}

func TestDefaultPresetsAreResolvable(t *testing.T) {
	registry := DefaultRegistry()
	for _, name := range []string{"none", "gzip_1", "gzip_3", "gzip_9", "brotli_0", "brotli_6", "brotli_11", "zstd_3", "zstd_22"} {
		preset, err := registry.Preset(name)
		if err != nil {
			t.Errorf("Preset(%q): %v", name, err)
			continue
		}
		if preset.Config.String() != name {
			t.Errorf("Preset(%q).Config.String() = %q", name, preset.Config.String())
		}
	}
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry([]Preset{
		{Name: "fast", Config: Config{Algorithm: AlgorithmGzip, Level: 1}},
		{Name: "fast", Config: Config{Algorithm: AlgorithmZstd, Level: 1}},
	})
	if err == nil {
		t.Error("NewRegistry should reject duplicate names")
	}
}

func TestAlgorithmText(t *testing.T) {
	for _, algorithm := range Algorithms() {
		text, err := algorithm.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%s): %v", algorithm, err)
		}
		var parsed Algorithm
		if err := parsed.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", text, err)
		}
		if parsed != algorithm {
			t.Errorf("text roundtrip: got %s, want %s", parsed, algorithm)
		}
	}
	if got := Algorithm(99).String(); got != "unknown(99)" {
		t.Errorf("Algorithm(99).String() = %q", got)
	}
}
