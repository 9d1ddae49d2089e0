// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bucket

import (
	"fmt"

	"github.com/bureau-foundation/archivestore/lib/archive"
	"github.com/bureau-foundation/archivestore/lib/compression"
	"github.com/bureau-foundation/archivestore/lib/storeerr"
)

// Packed is the output of [Pack] or [Append], ready to persist.
type Packed struct {
	// Archive is the compressed archive.
	Archive []byte

	Manifest Manifest

	// UncompressedSize is the sum of raw item lengths, excluding
	// archive framing.
	UncompressedSize int64

	CompressedSize int64

	// Ratio is CompressedSize / UncompressedSize, 0 when the items
	// are all empty.
	Ratio float64

	Algorithm compression.Algorithm
	Level     int
}

// ValidateItems checks an item list before anything is framed: it
// must be non-empty, every item must have a key, and keys must be
// unique within the list and absent from existing (which may be nil).
func ValidateItems(items []Item, existing *Manifest) error {
	if len(items) == 0 {
		return storeerr.Validationf("cannot create empty bucket")
	}
	seen := make(map[string]struct{}, len(items))
	if existing != nil {
		for _, entry := range existing.Entries {
			seen[entry.Key] = struct{}{}
		}
	}
	for _, item := range items {
		if item.Key == "" {
			return storeerr.Validationf("item must have a key")
		}
		if _, duplicate := seen[item.Key]; duplicate {
			return storeerr.Validationf("duplicate key found: %s", item.Key)
		}
		seen[item.Key] = struct{}{}
	}
	return nil
}

// Pack validates items, frames them into an archive in input order,
// and compresses the whole archive with config.
func Pack(items []Item, config compression.Config) (*Packed, error) {
	if err := ValidateItems(items, nil); err != nil {
		return nil, err
	}
	return pack(archive.NewBuilder(), &archive.Namer{}, Manifest{}, items, config)
}

// Append produces a new bucket archive holding every entry of an
// existing one followed by items. existingArchive is the decompressed
// archive matching manifest. Existing entry names are kept as-is. An
// existing archive that fails its checksums or disagrees with manifest
// is a corruption of bucketID.
func Append(existingArchive []byte, manifest Manifest, items []Item, config compression.Config, bucketID int64) (*Packed, error) {
	if err := ValidateItems(items, &manifest); err != nil {
		return nil, err
	}

	builder := archive.NewBuilder()
	if err := builder.AddArchive(existingArchive); err != nil {
		return nil, &storeerr.CorruptionError{
			BucketID: bucketID,
			Message:  fmt.Sprintf("bucket %d archive unreadable: %v", bucketID, err),
		}
	}
	if builder.Len() != manifest.Len() {
		return nil, &storeerr.CorruptionError{
			BucketID: bucketID,
			Message: fmt.Sprintf("bucket %d: archive has %d entries, manifest has %d",
				bucketID, builder.Len(), manifest.Len()),
		}
	}

	namer := &archive.Namer{}
	for _, entry := range manifest.Entries {
		namer.Reserve(entry.EntryName)
	}
	entries := make([]ManifestEntry, len(manifest.Entries), len(manifest.Entries)+len(items))
	copy(entries, manifest.Entries)
	return pack(builder, namer, Manifest{Entries: entries}, items, config)
}

func pack(builder *archive.Builder, namer *archive.Namer, manifest Manifest, items []Item, config compression.Config) (*Packed, error) {
	for _, item := range items {
		name := namer.Name(item.Key)
		if err := builder.Add(name, item.Content); err != nil {
			return nil, fmt.Errorf("bucket: framing %q: %w", item.Key, err)
		}
		manifest.Entries = append(manifest.Entries, ManifestEntry{
			Key:       item.Key,
			EntryName: name,
			Size:      int64(len(item.Content)),
			Metadata:  item.Metadata,
		})
	}

	framed, err := builder.Finish()
	if err != nil {
		return nil, fmt.Errorf("bucket: %w", err)
	}

	result, err := compression.Compress(framed, config)
	if err != nil {
		return nil, fmt.Errorf("bucket: compressing archive: %w", err)
	}

	uncompressedSize := manifest.ContentSize()
	compressedSize := int64(result.CompressedSize)
	return &Packed{
		Archive:          result.Compressed,
		Manifest:         manifest,
		UncompressedSize: uncompressedSize,
		CompressedSize:   compressedSize,
		Ratio:            compression.Ratio(compressedSize, uncompressedSize),
		Algorithm:        result.Algorithm,
		Level:            result.Level,
	}, nil
}
