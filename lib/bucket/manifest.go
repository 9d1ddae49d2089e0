// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bucket

import (
	"fmt"

	"github.com/bureau-foundation/archivestore/lib/codec"
	"github.com/bureau-foundation/archivestore/lib/storeerr"
)

// manifestVersion is written into every manifest. Readers reject
// versions they do not know.
const manifestVersion = 1

// Item is one document to place in a bucket.
type Item struct {
	Key     string
	Content []byte

	// Metadata is stored in the manifest as CBOR. Values read back
	// are normalized: integers as int64, floats as float64, strings,
	// bools, arrays as []any and maps as map[string]any.
	Metadata map[string]any
}

// ManifestEntry maps one caller key to its archive entry.
type ManifestEntry struct {
	Key       string         `json:"key"`
	EntryName string         `json:"entry_name"`
	Size      int64          `json:"size"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Manifest is the ordered key index of a bucket. Entries appear in
// the order their items were packed.
type Manifest struct {
	Version int             `json:"version"`
	Entries []ManifestEntry `json:"entries"`
}

// Lookup returns the entry for key.
func (manifest *Manifest) Lookup(key string) (ManifestEntry, bool) {
	for _, entry := range manifest.Entries {
		if entry.Key == key {
			return entry, true
		}
	}
	return ManifestEntry{}, false
}

// Len returns the number of entries.
func (manifest *Manifest) Len() int {
	return len(manifest.Entries)
}

// ContentSize returns the sum of entry sizes.
func (manifest *Manifest) ContentSize() int64 {
	var total int64
	for _, entry := range manifest.Entries {
		total += entry.Size
	}
	return total
}

// EncodeManifest serializes a manifest to deterministic CBOR.
func EncodeManifest(manifest Manifest) ([]byte, error) {
	manifest.Version = manifestVersion
	data, err := codec.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("bucket: encoding manifest: %w", err)
	}
	return data, nil
}

// DecodeManifest parses a stored manifest. Any failure, including
// structural problems in otherwise well-formed CBOR, is reported as a
// corruption of bucketID's index.
func DecodeManifest(data []byte, bucketID int64) (Manifest, error) {
	var manifest Manifest
	if err := codec.Unmarshal(data, &manifest); err != nil {
		return Manifest{}, corruptIndex(bucketID, err.Error())
	}
	if manifest.Version != manifestVersion {
		return Manifest{}, corruptIndex(bucketID,
			fmt.Sprintf("unsupported manifest version %d", manifest.Version))
	}

	keys := make(map[string]struct{}, len(manifest.Entries))
	names := make(map[string]struct{}, len(manifest.Entries))
	for i, entry := range manifest.Entries {
		if entry.Key == "" || entry.EntryName == "" {
			return Manifest{}, corruptIndex(bucketID, fmt.Sprintf("entry %d is missing its key or name", i))
		}
		if _, exists := keys[entry.Key]; exists {
			return Manifest{}, corruptIndex(bucketID, fmt.Sprintf("duplicate key %q", entry.Key))
		}
		if _, exists := names[entry.EntryName]; exists {
			return Manifest{}, corruptIndex(bucketID, fmt.Sprintf("duplicate entry name %q", entry.EntryName))
		}
		if entry.Size < 0 {
			return Manifest{}, corruptIndex(bucketID, fmt.Sprintf("entry %q has negative size", entry.Key))
		}
		keys[entry.Key] = struct{}{}
		names[entry.EntryName] = struct{}{}
	}
	return manifest, nil
}

func corruptIndex(bucketID int64, detail string) *storeerr.CorruptionError {
	return &storeerr.CorruptionError{
		BucketID: bucketID,
		Message:  fmt.Sprintf("corrupted bucket index for bucket %d: %s", bucketID, detail),
	}
}
