// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"strconv"
	"strings"
)

// MaxNameLength caps the byte length of an entry name, including any
// de-duplication suffix.
const MaxNameLength = 100

// fallbackName is used when a key sanitizes to nothing.
const fallbackName = "item"

// SanitizeName derives an entry name from key. Path separators and
// every character outside [A-Za-z0-9._-] are stripped, the result is
// capped at [MaxNameLength] bytes, and an empty or dot-only result
// becomes "item".
func SanitizeName(key string) string {
	var builder strings.Builder
	builder.Grow(min(len(key), MaxNameLength))
	for i := 0; i < len(key) && builder.Len() < MaxNameLength; i++ {
		if isNameByte(key[i]) {
			builder.WriteByte(key[i])
		}
	}
	name := builder.String()
	if strings.Trim(name, ".") == "" {
		return fallbackName
	}
	return name
}

func isNameByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '.' || c == '_' || c == '-':
		return true
	}
	return false
}

// Namer assigns unique entry names within one archive. Distinct keys
// that sanitize to the same name get a "-2", "-3", ... suffix in the
// order they are named. The zero value is ready to use.
type Namer struct {
	used map[string]struct{}
}

// Reserve marks name as taken without deriving it from a key. Used
// when appending to an archive whose names are already fixed.
func (n *Namer) Reserve(name string) {
	if n.used == nil {
		n.used = make(map[string]struct{})
	}
	n.used[name] = struct{}{}
}

// Name returns a unique entry name for key and reserves it.
func (n *Namer) Name(key string) string {
	if n.used == nil {
		n.used = make(map[string]struct{})
	}
	base := SanitizeName(key)
	name := base
	for suffix := 2; n.taken(name); suffix++ {
		tail := "-" + strconv.Itoa(suffix)
		name = base[:min(len(base), MaxNameLength-len(tail))] + tail
	}
	n.used[name] = struct{}{}
	return name
}

func (n *Namer) taken(name string) bool {
	_, ok := n.used[name]
	return ok
}
