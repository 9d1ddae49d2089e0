// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func buildArchive(t *testing.T, entries ...[2]string) []byte {
	t.Helper()
	builder := NewBuilder()
	for _, entry := range entries {
		if err := builder.Add(entry[0], []byte(entry[1])); err != nil {
			t.Fatalf("Add(%q): %v", entry[0], err)
		}
	}
	data, err := builder.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	return data
}

func TestBuildAndExtract(t *testing.T) {
	data := buildArchive(t,
		[2]string{"a", "alpha"},
		[2]string{"b", "beta"},
		[2]string{"empty", ""},
	)

	for name, want := range map[string]string{"a": "alpha", "b": "beta", "empty": ""} {
		got, err := Extract(data, name)
		if err != nil {
			t.Fatalf("Extract(%q): %v", name, err)
		}
		if string(got) != want {
			t.Errorf("Extract(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestExtractMissingEntry(t *testing.T) {
	data := buildArchive(t, [2]string{"a", "alpha"})
	_, err := Extract(data, "missing")
	if !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("got %v, want ErrEntryNotFound", err)
	}
}

func TestListPreservesOrder(t *testing.T) {
	data := buildArchive(t,
		[2]string{"zeta", "1"},
		[2]string{"alpha", "22"},
		[2]string{"mid", "333"},
	)
	entries, err := List(data)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	wantNames := []string{"zeta", "alpha", "mid"}
	if len(entries) != len(wantNames) {
		t.Fatalf("got %d entries, want %d", len(entries), len(wantNames))
	}
	for i, entry := range entries {
		if entry.Name != wantNames[i] {
			t.Errorf("entry %d = %q, want %q", i, entry.Name, wantNames[i])
		}
		if entry.Size != int64(i+1) {
			t.Errorf("entry %d size = %d, want %d", i, entry.Size, i+1)
		}
		if entry.Checksum == "" {
			t.Errorf("entry %d has no checksum", i)
		}
	}
}

func TestBuilderDeterministic(t *testing.T) {
	first := buildArchive(t, [2]string{"a", "alpha"}, [2]string{"b", "beta"})
	second := buildArchive(t, [2]string{"a", "alpha"}, [2]string{"b", "beta"})
	if !bytes.Equal(first, second) {
		t.Error("identical entries produced different archive bytes")
	}
}

func TestBuilderRejectsBadNames(t *testing.T) {
	builder := NewBuilder()
	if err := builder.Add("ok", nil); err != nil {
		t.Fatalf("Add(ok): %v", err)
	}
	for _, name := range []string{"", "ok", "a/b", "has space"} {
		if err := builder.Add(name, nil); err == nil {
			t.Errorf("Add(%q) should fail", name)
		}
	}
	if builder.Len() != 1 {
		t.Errorf("Len = %d, want 1", builder.Len())
	}
}

func TestBuilderFinishTwice(t *testing.T) {
	builder := NewBuilder()
	if _, err := builder.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if _, err := builder.Finish(); err == nil {
		t.Error("second Finish should fail")
	}
	if err := builder.Add("late", nil); err == nil {
		t.Error("Add after Finish should fail")
	}
}

func TestChecksumMismatchDetected(t *testing.T) {
	data := buildArchive(t, [2]string{"a", "original-content"})

	corrupted := bytes.Replace(data, []byte("original-content"), []byte("tampered-content"), 1)
	if bytes.Equal(corrupted, data) {
		t.Fatal("test setup: content not found in archive bytes")
	}

	_, err := Extract(corrupted, "a")
	var checksumError *ChecksumError
	if !errors.As(err, &checksumError) {
		t.Fatalf("got %v, want *ChecksumError", err)
	}
	if checksumError.Name != "a" {
		t.Errorf("ChecksumError.Name = %q, want a", checksumError.Name)
	}
}

func TestAddArchiveAppends(t *testing.T) {
	existing := buildArchive(t, [2]string{"a", "alpha"}, [2]string{"b", "beta"})

	builder := NewBuilder()
	if err := builder.AddArchive(existing); err != nil {
		t.Fatalf("AddArchive: %v", err)
	}
	if err := builder.Add("c", []byte("gamma")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := builder.Add("a", []byte("again")); err == nil {
		t.Error("Add of an existing name after AddArchive should fail")
	}
	data, err := builder.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}

	reader := NewReader(data)
	var names []string
	for {
		entry, _, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		names = append(names, entry.Name)
	}
	if len(names) != 3 || names[0] != "a" || names[1] != "b" || names[2] != "c" {
		t.Errorf("entries = %v, want [a b c]", names)
	}
	if builder.ContentSize() != int64(len("alpha")+len("beta")+len("gamma")) {
		t.Errorf("ContentSize = %d", builder.ContentSize())
	}
}

func TestChecksumKeyed(t *testing.T) {
	if Checksum([]byte("x")) == Checksum([]byte("y")) {
		t.Error("different content produced the same checksum")
	}
	if len(Checksum(nil)) != 64 {
		t.Errorf("checksum length = %d, want 64", len(Checksum(nil)))
	}
}
