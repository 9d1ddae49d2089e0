// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// The store stamps content and buckets with creation and finalization
// times. It reads them from a Clock rather than calling time.Now so
// tests can assert exact timestamps and ordering:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	store, err := store.Open(store.Config{Path: path, Clock: fake})
//	// ... create a bucket ...
//	fake.Advance(time.Hour)
//	// ... create another; it sorts first in QueryBuckets ...
package clock
