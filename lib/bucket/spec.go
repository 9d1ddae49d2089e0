// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bucket

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"
)

// Spec describes a bucket on disk. Spec files are JSONC: JSON with //
// line comments, /* block comments */, and trailing commas.
//
//	{
//	  "bucket_type": "article",
//	  "domain_pattern": "example.com",
//	  "use_case": "archival",
//	  "items": [
//	    {"key": "https://example.com/a", "file": "pages/a.html"},
//	    {"key": "note", "content": "inline text", "metadata": {"lang": "en"}},
//	  ],
//	}
type Spec struct {
	BucketType      string     `json:"bucket_type"`
	DomainPattern   string     `json:"domain_pattern,omitempty"`
	CompressionType string     `json:"compression_type,omitempty"`
	UseCase         string     `json:"use_case,omitempty"`
	Items           []SpecItem `json:"items"`
}

// SpecItem is one item of a spec. Exactly one of Content and File is
// set; File is relative to the spec file's directory.
type SpecItem struct {
	Key      string         `json:"key"`
	Content  *string        `json:"content,omitempty"`
	File     string         `json:"file,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ParseSpec strips JSONC comments and trailing commas from data, then
// unmarshals and validates the result.
func ParseSpec(data []byte) (*Spec, error) {
	stripped := jsonc.ToJSON(data)

	var spec Spec
	if err := json.Unmarshal(stripped, &spec); err != nil {
		return nil, fmt.Errorf("parsing bucket spec: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// ReadSpecFile reads and parses a JSONC bucket spec from disk.
func ReadSpecFile(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	spec, err := ParseSpec(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return spec, nil
}

// Validate checks the structural rules that do not depend on file
// contents. Key rules (presence, uniqueness) are left to
// [ValidateItems] so they produce the same errors as any other caller.
// bucket_type may be omitted and supplied by the caller before the
// bucket is created.
func (spec *Spec) Validate() error {
	for i, item := range spec.Items {
		hasContent := item.Content != nil
		hasFile := item.File != ""
		if hasContent == hasFile {
			return fmt.Errorf("bucket spec: item %d (%q) must set exactly one of content or file", i, item.Key)
		}
	}
	return nil
}

// LoadItems materializes the spec's items, reading File items
// relative to baseDirectory.
func (spec *Spec) LoadItems(baseDirectory string) ([]Item, error) {
	items := make([]Item, 0, len(spec.Items))
	for _, specItem := range spec.Items {
		item := Item{Key: specItem.Key, Metadata: specItem.Metadata}
		if specItem.Content != nil {
			item.Content = []byte(*specItem.Content)
		} else {
			path := specItem.File
			if !filepath.IsAbs(path) {
				path = filepath.Join(baseDirectory, path)
			}
			content, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("bucket spec: item %q: %w", specItem.Key, err)
			}
			item.Content = content
		}
		items = append(items, item)
	}
	return items, nil
}
