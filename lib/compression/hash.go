// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package compression

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHash returns the lowercase hex SHA-256 digest of data. It is
// always computed over uncompressed bytes so the same document hashes
// identically whatever algorithm stored it.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
