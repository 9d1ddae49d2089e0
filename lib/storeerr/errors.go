// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package storeerr defines the error taxonomy shared by the
// compression engine and the archive store. Callers classify failures
// with the Is* helpers rather than matching message text:
//
//   - [ValidationError]: bad caller input (unknown preset, missing or
//     duplicate bucket keys, empty bucket, lifecycle precondition).
//     Surfaced before anything is persisted. Never retried.
//   - [NotFoundError]: unknown content id, bucket id, or manifest key.
//     The caller decides whether this is a cache miss or a failure.
//   - [CorruptionError]: a bucket manifest that does not parse, or a
//     manifest/archive desync. Carries the bucket id. Non-retryable.
//   - [ReferentialIntegrityError]: bucket deletion blocked by rows
//     that still reference it. Carries the blocking row count.
//
// This package has no internal dependencies.
package storeerr

import (
	"errors"
	"fmt"
)

// ValidationError reports invalid caller input.
type ValidationError struct {
	Message string
}

func (err *ValidationError) Error() string {
	return err.Message
}

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a lookup of an identifier or key that does
// not exist. Kind names what was looked up ("content", "bucket",
// "entry") and ID is the identifier as the caller supplied it.
type NotFoundError struct {
	Kind    string
	ID      string
	Message string
}

func (err *NotFoundError) Error() string {
	return err.Message
}

// NotFound builds a NotFoundError with the canonical message for
// kind. Entries are keyed within a bucket, so their message names
// the bucket scope.
func NotFound(kind string, id any) *NotFoundError {
	idString := fmt.Sprint(id)
	message := fmt.Sprintf("%s not found: %s", kind, idString)
	if kind == "entry" {
		message = fmt.Sprintf("entry not found in bucket: %s", idString)
	}
	return &NotFoundError{Kind: kind, ID: idString, Message: message}
}

// CorruptionError reports stored bucket or content data that cannot
// be interpreted. It indicates a storage-layer bug or tampering.
type CorruptionError struct {
	BucketID int64
	Message  string
}

func (err *CorruptionError) Error() string {
	return err.Message
}

// ReferentialIntegrityError reports a bucket deletion blocked by live
// references.
type ReferentialIntegrityError struct {
	BucketID int64
	Count    int
}

func (err *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("cannot delete bucket: %d rows reference it", err.Count)
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsCorruption reports whether err is or wraps a CorruptionError.
func IsCorruption(err error) bool {
	var target *CorruptionError
	return errors.As(err, &target)
}

// IsReferenced reports whether err is or wraps a
// ReferentialIntegrityError.
func IsReferenced(err error) bool {
	var target *ReferentialIntegrityError
	return errors.As(err, &target)
}
