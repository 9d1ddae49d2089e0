// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// checksumRecord is the PAX record key holding an entry's checksum.
const checksumRecord = "ARCHIVESTORE.blake3"

// entryDomainKey keys the BLAKE3 hash so entry checksums never collide
// with hashes computed over the same bytes in other contexts. ASCII
// "archivestore.entry", zero-padded to 32 bytes.
var entryDomainKey = [32]byte{
	'a', 'r', 'c', 'h', 'i', 'v', 'e', 's', 't', 'o', 'r', 'e', '.', 'e', 'n', 't',
	'r', 'y', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Checksum returns the hex-encoded keyed BLAKE3 checksum stored with
// an entry of the given content.
func Checksum(data []byte) string {
	hasher, err := blake3.NewKeyed(entryDomainKey[:])
	if err != nil {
		// NewKeyed only fails on a key that is not 32 bytes.
		panic("archive: blake3 keyed hasher: " + err.Error())
	}
	hasher.Write(data)
	return hex.EncodeToString(hasher.Sum(nil))
}
