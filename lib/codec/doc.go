// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR encoding used for bucket manifests.
//
// Manifests are stored alongside each bucket's compressed archive and
// map caller keys to archive entries. They are encoded with Core
// Deterministic Encoding (RFC 8949 §4.2), so the same manifest always
// produces identical bytes:
//
//	data, err := codec.Marshal(manifest)
//	err = codec.Unmarshal(data, &manifest)
//
// JSON remains the format for external surfaces (CLI output, bucket
// spec files). Types that cross both boundaries carry `json` struct
// tags, which fxamacker/cbor reads as a fallback when `cbor` tags are
// absent. Types that are only ever CBOR carry `cbor` tags. Never put
// both on one field.
package codec
