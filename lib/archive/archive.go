// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"archive/tar"
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"
)

// entryModTime is stamped on every entry so output is reproducible.
var entryModTime = time.Unix(0, 0).UTC()

// entryMode is the file mode recorded for every entry.
const entryMode = 0o644

// ErrEntryNotFound is returned by [Extract] when no entry has the
// requested name.
var ErrEntryNotFound = errors.New("archive: entry not found")

// ChecksumError reports an entry whose content does not match the
// checksum recorded with it, or that has no checksum at all.
type ChecksumError struct {
	Name     string
	Expected string
	Actual   string
}

func (e *ChecksumError) Error() string {
	if e.Expected == "" {
		return fmt.Sprintf("archive: entry %q has no checksum", e.Name)
	}
	return fmt.Sprintf("archive: entry %q checksum mismatch: recorded %s, computed %s",
		e.Name, e.Expected, e.Actual)
}

// Entry describes one entry of an archive.
type Entry struct {
	Name     string
	Size     int64
	Checksum string
}

// Builder accumulates entries into an in-memory tar archive. Entries
// appear in the order they are added. Names must be unique; use a
// [Namer] to derive them from keys.
//
// Typical usage:
//
//	builder := archive.NewBuilder()
//	builder.Add("page.html", content)
//	// ... add more entries ...
//	data, err := builder.Finish()
type Builder struct {
	buffer   bytes.Buffer
	writer   *tar.Writer
	names    map[string]struct{}
	size     int64
	finished bool
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	builder := &Builder{names: make(map[string]struct{})}
	builder.writer = tar.NewWriter(&builder.buffer)
	return builder
}

// Add appends an entry. The name must be non-empty, contain only
// [A-Za-z0-9._-], and not already be present in the archive.
func (b *Builder) Add(name string, data []byte) error {
	if b.finished {
		return fmt.Errorf("archive: add %q after finish", name)
	}
	if err := validateName(name); err != nil {
		return err
	}
	if _, exists := b.names[name]; exists {
		return fmt.Errorf("archive: duplicate entry name %q", name)
	}

	header := &tar.Header{
		Typeflag:   tar.TypeReg,
		Name:       name,
		Size:       int64(len(data)),
		Mode:       entryMode,
		ModTime:    entryModTime,
		Format:     tar.FormatPAX,
		PAXRecords: map[string]string{checksumRecord: Checksum(data)},
	}
	if err := b.writer.WriteHeader(header); err != nil {
		return fmt.Errorf("archive: writing header for %q: %w", name, err)
	}
	if _, err := b.writer.Write(data); err != nil {
		return fmt.Errorf("archive: writing entry %q: %w", name, err)
	}

	b.names[name] = struct{}{}
	b.size += int64(len(data))
	return nil
}

// AddArchive copies every entry of an existing archive into the
// builder, verifying checksums on the way. Used to append items to a
// bucket without re-deriving the names already recorded for it.
func (b *Builder) AddArchive(data []byte) error {
	reader := NewReader(data)
	for {
		entry, content, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := b.Add(entry.Name, content); err != nil {
			return err
		}
	}
}

// Len returns the number of entries added so far.
func (b *Builder) Len() int {
	return len(b.names)
}

// ContentSize returns the total entry content size added so far,
// excluding tar framing.
func (b *Builder) ContentSize() int64 {
	return b.size
}

// Finish writes the end-of-archive marker and returns the archive
// bytes. The builder cannot be used afterwards.
func (b *Builder) Finish() ([]byte, error) {
	if b.finished {
		return nil, fmt.Errorf("archive: finish called twice")
	}
	b.finished = true
	if err := b.writer.Close(); err != nil {
		return nil, fmt.Errorf("archive: closing tar writer: %w", err)
	}
	return b.buffer.Bytes(), nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("archive: empty entry name")
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("archive: entry name %q exceeds %d bytes", name, MaxNameLength)
	}
	for i := 0; i < len(name); i++ {
		if !isNameByte(name[i]) {
			return fmt.Errorf("archive: entry name %q contains invalid byte %q", name, name[i])
		}
	}
	return nil
}

// Reader iterates the entries of an archive in order, verifying each
// entry's checksum as it is read.
type Reader struct {
	tar *tar.Reader
}

// NewReader returns a reader over archive bytes produced by [Builder].
func NewReader(data []byte) *Reader {
	return &Reader{tar: tar.NewReader(bytes.NewReader(data))}
}

// Next returns the next entry and its content. It returns io.EOF after
// the last entry.
func (r *Reader) Next() (Entry, []byte, error) {
	entry, err := r.nextHeader()
	if err != nil {
		return Entry{}, nil, err
	}
	content, err := r.readContent(entry)
	if err != nil {
		return Entry{}, nil, err
	}
	return entry, content, nil
}

func (r *Reader) nextHeader() (Entry, error) {
	for {
		header, err := r.tar.Next()
		if err == io.EOF {
			return Entry{}, io.EOF
		}
		if err != nil {
			return Entry{}, fmt.Errorf("archive: reading header: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		return Entry{
			Name:     header.Name,
			Size:     header.Size,
			Checksum: header.PAXRecords[checksumRecord],
		}, nil
	}
}

func (r *Reader) readContent(entry Entry) ([]byte, error) {
	content := make([]byte, entry.Size)
	if _, err := io.ReadFull(r.tar, content); err != nil {
		return nil, fmt.Errorf("archive: reading entry %q: %w", entry.Name, err)
	}
	actual := Checksum(content)
	if entry.Checksum != actual {
		return nil, &ChecksumError{Name: entry.Name, Expected: entry.Checksum, Actual: actual}
	}
	return content, nil
}

// Extract returns the content of the entry called name. It returns
// [ErrEntryNotFound] if the archive has no such entry.
func Extract(data []byte, name string) ([]byte, error) {
	reader := NewReader(data)
	for {
		entry, err := reader.nextHeader()
		if err == io.EOF {
			return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
		}
		if err != nil {
			return nil, err
		}
		if entry.Name == name {
			return reader.readContent(entry)
		}
	}
}

// List returns the entries of an archive without reading or verifying
// their content.
func List(data []byte) ([]Entry, error) {
	reader := NewReader(data)
	var entries []Entry
	for {
		entry, err := reader.nextHeader()
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
}
