// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bucket

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/bureau-foundation/archivestore/lib/compression"
	"github.com/bureau-foundation/archivestore/lib/storeerr"
)

var brotli6 = compression.Config{Algorithm: compression.AlgorithmBrotli, Level: 6}

// similarPages returns n HTML documents sharing a common template, the
// shape of a crawl of one site.
func similarPages(n int) []Item {
	items := make([]Item, n)
	for i := range items {
		var builder strings.Builder
		builder.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>Example News</title>`)
		builder.WriteString(`<link rel="stylesheet" href="/static/site.css"><script src="/static/analytics.js"></script></head>`)
		builder.WriteString(`<body><nav class="top"><a href="/">Home</a><a href="/world">World</a><a href="/tech">Technology</a><a href="/sport">Sport</a></nav>`)
		fmt.Fprintf(&builder, `<article id="story-%d"><h1>Story number %d</h1>`, i, i)
		for p := range 6 {
			fmt.Fprintf(&builder, `<p>Paragraph %d of story %d discusses developments reported by our correspondents this week.</p>`, p, i)
		}
		builder.WriteString(`</article><footer class="site-footer"><p>Copyright Example News. All rights reserved.</p><ul><li>Privacy</li><li>Terms</li><li>Contact</li></ul></footer></body></html>`)
		items[i] = Item{Key: fmt.Sprintf("https://example.com/story/%d", i), Content: []byte(builder.String())}
	}
	return items
}

func TestPackAndExtract(t *testing.T) {
	items := []Item{
		{Key: "a", Content: []byte("alpha")},
		{Key: "b", Content: []byte("beta"), Metadata: map[string]any{"lang": "en"}},
		{Key: "c", Content: []byte("gamma")},
	}

	packed, err := Pack(items, brotli6)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if packed.Manifest.Len() != 3 {
		t.Errorf("manifest has %d entries, want 3", packed.Manifest.Len())
	}
	if packed.UncompressedSize != int64(len("alpha")+len("beta")+len("gamma")) {
		t.Errorf("UncompressedSize = %d, want sum of item lengths", packed.UncompressedSize)
	}
	if packed.Algorithm != compression.AlgorithmBrotli || packed.Level != 6 {
		t.Errorf("packed with %s level %d, want brotli 6", packed.Algorithm, packed.Level)
	}

	framed, err := Decompress(packed.Archive, packed.Algorithm, 1)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	content, entry, err := Extract(framed, packed.Manifest, "b", 1)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if string(content) != "beta" {
		t.Errorf("content = %q, want beta", content)
	}
	if entry.Metadata["lang"] != "en" {
		t.Errorf("metadata = %v, want lang=en", entry.Metadata)
	}
}

func TestPackPreservesInputOrder(t *testing.T) {
	items := []Item{{Key: "zeta"}, {Key: "alpha"}, {Key: "mid"}}
	packed, err := Pack(items, compression.Config{Algorithm: compression.AlgorithmGzip, Level: 6})
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	for i, entry := range packed.Manifest.Entries {
		if entry.Key != items[i].Key {
			t.Errorf("entry %d key = %q, want %q", i, entry.Key, items[i].Key)
		}
	}
}

func TestPackValidation(t *testing.T) {
	tests := []struct {
		name    string
		items   []Item
		message string
	}{
		{"empty", nil, "cannot create empty bucket"},
		{"missing key", []Item{{Key: "a"}, {Content: []byte("x")}}, "item must have a key"},
		{"duplicate", []Item{{Key: "a"}, {Key: "b"}, {Key: "a"}}, "duplicate key found: a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packed, err := Pack(tt.items, brotli6)
			if !storeerr.IsValidation(err) {
				t.Fatalf("got %v, want ValidationError", err)
			}
			if err.Error() != tt.message {
				t.Errorf("message = %q, want %q", err.Error(), tt.message)
			}
			if packed != nil {
				t.Error("failed Pack returned output")
			}
		})
	}
}

func TestPackCollidingNames(t *testing.T) {
	items := []Item{
		{Key: "a/b", Content: []byte("one")},
		{Key: "a?b", Content: []byte("two")},
	}
	packed, err := Pack(items, brotli6)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if packed.Manifest.Entries[0].EntryName == packed.Manifest.Entries[1].EntryName {
		t.Fatalf("colliding keys share entry name %q", packed.Manifest.Entries[0].EntryName)
	}

	framed, err := Decompress(packed.Archive, packed.Algorithm, 1)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	for _, item := range items {
		content, _, err := Extract(framed, packed.Manifest, item.Key, 1)
		if err != nil {
			t.Fatalf("Extract(%q): %v", item.Key, err)
		}
		if string(content) != string(item.Content) {
			t.Errorf("Extract(%q) = %q, want %q", item.Key, content, item.Content)
		}
	}
}

func TestBucketBeatsIndividualCompression(t *testing.T) {
	items := similarPages(10)

	var individual int64
	for _, item := range items {
		result, err := compression.Compress(item.Content, brotli6)
		if err != nil {
			t.Fatalf("Compress: %v", err)
		}
		individual += int64(result.CompressedSize)
	}

	packed, err := Pack(items, brotli6)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if packed.CompressedSize >= individual {
		t.Errorf("bucket compressed to %d bytes, individual items to %d; want bucket smaller",
			packed.CompressedSize, individual)
	}
	if packed.Ratio <= 0 || packed.Ratio >= 1 {
		t.Errorf("Ratio = %v, want in (0, 1)", packed.Ratio)
	}
}

func TestExtractErrors(t *testing.T) {
	packed, err := Pack([]Item{{Key: "a", Content: []byte("alpha")}}, brotli6)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	framed, err := Decompress(packed.Archive, packed.Algorithm, 7)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}

	_, _, err = Extract(framed, packed.Manifest, "missing", 7)
	if !storeerr.IsNotFound(err) {
		t.Errorf("unknown key: got %v, want NotFoundError", err)
	}
	if err.Error() != "entry not found in bucket: missing" {
		t.Errorf("message = %q", err.Error())
	}

	desynced := Manifest{Entries: []ManifestEntry{{Key: "ghost", EntryName: "ghost", Size: 1}}}
	_, _, err = Extract(framed, desynced, "ghost", 7)
	if !storeerr.IsCorruption(err) {
		t.Fatalf("desynced manifest: got %v, want CorruptionError", err)
	}
	if err.Error() != "entry file not found in archive: ghost" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestDecompressWrongAlgorithm(t *testing.T) {
	packed, err := Pack([]Item{{Key: "a", Content: []byte("alpha")}}, compression.Config{Algorithm: compression.AlgorithmZstd, Level: 3})
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if _, err := Decompress(packed.Archive, compression.AlgorithmGzip, 3); !storeerr.IsCorruption(err) {
		t.Errorf("got %v, want CorruptionError", err)
	}
}

func TestAppend(t *testing.T) {
	packed, err := Pack([]Item{{Key: "a/b", Content: []byte("one")}}, brotli6)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	framed, err := Decompress(packed.Archive, packed.Algorithm, 1)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}

	_, err = Append(framed, packed.Manifest, []Item{{Key: "a/b", Content: []byte("again")}}, brotli6, 1)
	if !storeerr.IsValidation(err) {
		t.Errorf("appending an existing key: got %v, want ValidationError", err)
	}

	appended, err := Append(framed, packed.Manifest, []Item{{Key: "ab", Content: []byte("two")}}, brotli6, 1)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if appended.Manifest.Len() != 2 {
		t.Fatalf("manifest has %d entries, want 2", appended.Manifest.Len())
	}
	if appended.Manifest.Entries[1].EntryName != "ab-2" {
		t.Errorf("appended entry name = %q, want ab-2", appended.Manifest.Entries[1].EntryName)
	}
	if appended.UncompressedSize != 6 {
		t.Errorf("UncompressedSize = %d, want 6", appended.UncompressedSize)
	}

	newFramed, err := Decompress(appended.Archive, appended.Algorithm, 1)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	for key, want := range map[string]string{"a/b": "one", "ab": "two"} {
		content, _, err := Extract(newFramed, appended.Manifest, key, 1)
		if err != nil {
			t.Fatalf("Extract(%q): %v", key, err)
		}
		if string(content) != want {
			t.Errorf("Extract(%q) = %q, want %q", key, content, want)
		}
	}
	if packed.Manifest.Len() != 1 {
		t.Error("Append modified the original manifest")
	}
}

func TestAppendCorruptArchive(t *testing.T) {
	packed, err := Pack([]Item{
		{Key: "a", Content: []byte("alpha")},
		{Key: "b", Content: []byte("beta")},
	}, brotli6)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	framed, err := Decompress(packed.Archive, packed.Algorithm, 7)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}

	tampered := []byte(strings.Replace(string(framed), "alpha", "ALPHA", 1))
	truncated := Manifest{Version: packed.Manifest.Version, Entries: packed.Manifest.Entries[:1]}

	tests := []struct {
		name     string
		framed   []byte
		manifest Manifest
	}{
		{"checksum mismatch", tampered, packed.Manifest},
		{"entry count mismatch", framed, truncated},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Append(test.framed, test.manifest, []Item{{Key: "c", Content: []byte("gamma")}}, brotli6, 7)
			var corruption *storeerr.CorruptionError
			if !errors.As(err, &corruption) {
				t.Fatalf("got %v, want CorruptionError", err)
			}
			if corruption.BucketID != 7 {
				t.Errorf("BucketID = %d, want 7", corruption.BucketID)
			}
		})
	}
}

func TestManifestRoundtrip(t *testing.T) {
	packed, err := Pack([]Item{
		{Key: "a", Content: []byte("alpha"), Metadata: map[string]any{"status": "ok"}},
		{Key: "b", Content: []byte("beta")},
	}, brotli6)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}

	data, err := EncodeManifest(packed.Manifest)
	if err != nil {
		t.Fatalf("EncodeManifest: %v", err)
	}
	decoded, err := DecodeManifest(data, 1)
	if err != nil {
		t.Fatalf("DecodeManifest: %v", err)
	}
	if decoded.Len() != 2 || decoded.Entries[0].Key != "a" || decoded.Entries[1].Key != "b" {
		t.Errorf("decoded entries = %+v", decoded.Entries)
	}
	if decoded.Entries[0].Metadata["status"] != "ok" {
		t.Errorf("metadata = %v", decoded.Entries[0].Metadata)
	}
}

func TestDecodeManifestCorruption(t *testing.T) {
	duplicate, err := EncodeManifest(Manifest{Entries: []ManifestEntry{
		{Key: "a", EntryName: "a"},
		{Key: "a", EntryName: "a-2"},
	}})
	if err != nil {
		t.Fatalf("EncodeManifest: %v", err)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"garbage", []byte("not cbor at all")},
		{"empty", nil},
		{"duplicate key", duplicate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeManifest(tt.data, 42)
			if !storeerr.IsCorruption(err) {
				t.Fatalf("got %v, want CorruptionError", err)
			}
			if !strings.HasPrefix(err.Error(), "corrupted bucket index for bucket 42: ") {
				t.Errorf("message = %q", err.Error())
			}
		})
	}
}
