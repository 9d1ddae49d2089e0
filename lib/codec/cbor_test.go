// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"strings"
	"testing"
)

// sampleEntry is shaped like a manifest entry, using cbor struct tags
// (the convention for CBOR-only types).
type sampleEntry struct {
	Key       string `cbor:"key"`
	EntryName string `cbor:"entry_name"`
	Size      int    `cbor:"size"`
	Note      string `cbor:"note,omitempty"`
}

// sampleDualEntry uses json struct tags (the convention for types that
// also appear in CLI JSON output).
type sampleDualEntry struct {
	Version int    `json:"version"`
	Name    string `json:"name"`
}

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	original := sampleEntry{
		Key:       "https://example.com/page",
		EntryName: "httpsexample.compage",
		Size:      4096,
	}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	if len(data) == 0 {
		t.Fatal("Marshal produced empty output")
	}

	var decoded sampleEntry
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if decoded != original {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	metadata := map[string]any{"zeta": 1, "alpha": "a", "mid": true}

	first, err := Marshal(metadata)
	if err != nil {
		t.Fatalf("first Marshal: %v", err)
	}

	for range 10 {
		again, err := Marshal(metadata)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("deterministic encoding violated: %x != %x", first, again)
		}
	}
}

func TestMetadataDecodesAsStringMap(t *testing.T) {
	data, err := Marshal(map[string]any{"outer": map[string]any{"inner": "value"}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	outer, ok := decoded.(map[string]any)
	if !ok {
		t.Fatalf("decoded type = %T, want map[string]any", decoded)
	}
	if _, ok := outer["outer"].(map[string]any); !ok {
		t.Errorf("nested type = %T, want map[string]any", outer["outer"])
	}
}

func TestIntegersDecodeAsInt64(t *testing.T) {
	data, err := Marshal(map[string]any{"positive": 2, "negative": -1, "unsigned": uint8(7)})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded map[string]any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for key, want := range map[string]int64{"positive": 2, "negative": -1, "unsigned": 7} {
		got, ok := decoded[key].(int64)
		if !ok {
			t.Errorf("%s: got %T, want int64", key, decoded[key])
			continue
		}
		if got != want {
			t.Errorf("%s: got %d, want %d", key, got, want)
		}
	}
}

func TestUnmarshalRejectsDuplicateKeys(t *testing.T) {
	// {"a": 1, "a": 2}
	data := []byte{0xA2, 0x61, 'a', 0x01, 0x61, 'a', 0x02}
	var decoded map[string]int
	if err := Unmarshal(data, &decoded); err == nil {
		t.Errorf("Unmarshal accepted duplicate map keys: %v", decoded)
	}
}

func TestJSONTagFallback(t *testing.T) {
	// Types with json tags (no cbor tags) should encode/decode
	// correctly through our modes, using json tag names as CBOR
	// map keys.
	original := sampleDualEntry{Version: 3, Name: "manifest"}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded sampleDualEntry
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if decoded != original {
		t.Errorf("json-tag roundtrip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestOmitemptyRespected(t *testing.T) {
	// A zero-value omitempty field should not appear in output.
	withNote := sampleEntry{Key: "a", EntryName: "a", Size: 1, Note: "x"}
	withoutNote := sampleEntry{Key: "a", EntryName: "a", Size: 1}

	dataWith, err := Marshal(withNote)
	if err != nil {
		t.Fatal(err)
	}
	dataWithout, err := Marshal(withoutNote)
	if err != nil {
		t.Fatal(err)
	}

	// The encoding without the note field should be shorter
	// because the omitted field is not present.
	if len(dataWithout) >= len(dataWith) {
		t.Errorf("omitempty not effective: without=%d bytes, with=%d bytes",
			len(dataWithout), len(dataWith))
	}
}

func TestUnmarshalInvalidCBOR(t *testing.T) {
	var entry sampleEntry
	err := Unmarshal([]byte{0xFF, 0xFE, 0xFD}, &entry)
	if err == nil {
		t.Error("Unmarshal should reject invalid CBOR")
	}
}

func TestByteStringRoundtrip(t *testing.T) {
	// Verify that []byte fields encode as CBOR byte strings (major
	// type 2), not text strings.
	type envelope struct {
		Payload []byte `cbor:"payload"`
	}

	original := envelope{Payload: []byte(`{"key":"value"}`)}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded envelope
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if !bytes.Equal(decoded.Payload, original.Payload) {
		t.Errorf("byte string roundtrip: got %q, want %q", decoded.Payload, original.Payload)
	}
}

func TestDiagnose(t *testing.T) {
	data, err := Marshal(map[string]any{"entry_name": "page.html"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	notation, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}

	if !strings.Contains(notation, `"entry_name"`) {
		t.Errorf("notation %q does not contain \"entry_name\"", notation)
	}
	if !strings.Contains(notation, `"page.html"`) {
		t.Errorf("notation %q does not contain \"page.html\"", notation)
	}
}
