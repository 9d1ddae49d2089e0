// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func stubBuildInfo(t *testing.T, settings ...debug.BuildSetting) {
	t.Helper()
	original := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Settings: settings}, true
	}
	t.Cleanup(func() { readBuildInfo = original })
}

func TestInfoUsesInjectedValues(t *testing.T) {
	originalCommit, originalDirty, originalTime := GitCommit, GitDirty, BuildTime
	t.Cleanup(func() {
		GitCommit, GitDirty, BuildTime = originalCommit, originalDirty, originalTime
	})
	stubBuildInfo(t, debug.BuildSetting{Key: "vcs.revision", Value: "ffffffffffffffff"})

	GitCommit, GitDirty, BuildTime = "abc1234", "true", "2026-02-10T00:00:00Z"

	want := Version + " (abc1234-dirty, 2026-02-10T00:00:00Z)"
	if got := Info(); got != want {
		t.Errorf("Info() = %q, want %q", got, want)
	}
}

func TestInfoFallsBackToBuildSettings(t *testing.T) {
	originalCommit, originalTime := GitCommit, BuildTime
	t.Cleanup(func() { GitCommit, BuildTime = originalCommit, originalTime })
	GitCommit, BuildTime = "unknown", "unknown"

	stubBuildInfo(t,
		debug.BuildSetting{Key: "vcs.revision", Value: "0123456789abcdef"},
		debug.BuildSetting{Key: "vcs.time", Value: "2026-03-01T12:00:00Z"},
		debug.BuildSetting{Key: "vcs.modified", Value: "false"},
	)

	if got := Commit(); got != "0123456" {
		t.Errorf("Commit() = %q, want %q", got, "0123456")
	}
	want := Version + " (0123456, 2026-03-01T12:00:00Z)"
	if got := Info(); got != want {
		t.Errorf("Info() = %q, want %q", got, want)
	}
}

func TestInfoWithoutBuildSettings(t *testing.T) {
	originalCommit := GitCommit
	t.Cleanup(func() { GitCommit = originalCommit })
	GitCommit = "unknown"
	stubBuildInfo(t)

	if got := Commit(); got != "unknown" {
		t.Errorf("Commit() = %q, want unknown", got)
	}
}

func TestFullIncludesPlatform(t *testing.T) {
	full := Full()
	if !strings.Contains(full, "Go: go") || !strings.Contains(full, "Platform: ") {
		t.Errorf("Full() = %q, missing Go version or platform", full)
	}
	if Short() != Version {
		t.Errorf("Short() = %q, want %q", Short(), Version)
	}
}
