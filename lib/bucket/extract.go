// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bucket

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/archivestore/lib/archive"
	"github.com/bureau-foundation/archivestore/lib/compression"
	"github.com/bureau-foundation/archivestore/lib/storeerr"
)

// Decompress returns the uncompressed archive of a bucket.
func Decompress(compressed []byte, algorithm compression.Algorithm, bucketID int64) ([]byte, error) {
	framed, err := compression.Decompress(compressed, algorithm)
	if err != nil {
		return nil, &storeerr.CorruptionError{
			BucketID: bucketID,
			Message:  fmt.Sprintf("bucket %d archive does not decompress as %s: %v", bucketID, algorithm, err),
		}
	}
	return framed, nil
}

// Extract returns the content stored under key. framed is the
// decompressed archive. An unknown key is a not-found error; a key
// whose entry is absent from the archive, or whose content fails its
// checksum, is a corruption of bucketID.
func Extract(framed []byte, manifest Manifest, key string, bucketID int64) ([]byte, ManifestEntry, error) {
	entry, ok := manifest.Lookup(key)
	if !ok {
		return nil, ManifestEntry{}, storeerr.NotFound("entry", key)
	}

	content, err := archive.Extract(framed, entry.EntryName)
	if err != nil {
		var checksumError *archive.ChecksumError
		switch {
		case errors.Is(err, archive.ErrEntryNotFound):
			return nil, ManifestEntry{}, &storeerr.CorruptionError{
				BucketID: bucketID,
				Message:  fmt.Sprintf("entry file not found in archive: %s", entry.EntryName),
			}
		case errors.As(err, &checksumError):
			return nil, ManifestEntry{}, &storeerr.CorruptionError{
				BucketID: bucketID,
				Message:  fmt.Sprintf("bucket %d: %v", bucketID, err),
			}
		default:
			return nil, ManifestEntry{}, &storeerr.CorruptionError{
				BucketID: bucketID,
				Message:  fmt.Sprintf("bucket %d archive unreadable: %v", bucketID, err),
			}
		}
	}
	return content, entry, nil
}
