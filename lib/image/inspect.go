// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package image

import (
	"fmt"
	"io"

	"github.com/bureau-foundation/cutefs/lib/codec"
	"github.com/bureau-foundation/cutefs/lib/cutefs"
)

// Listing is the table of contents of an image.
type Listing struct {
	Header      Header
	Compression CompressionTag
	Encrypted   bool
	Entries     []ListingEntry
}

// ListingEntry describes one record without its content.
type ListingEntry struct {
	Path   string
	Type   cutefs.FileType
	Size   int64
	Digest []byte

	// Problem is non-nil when the record failed verification.
	Problem error
}

// Corrupt returns the entries that failed verification.
func (l *Listing) Corrupt() []ListingEntry {
	var corrupt []ListingEntry
	for _, entry := range l.Entries {
		if entry.Problem != nil {
			corrupt = append(corrupt, entry)
		}
	}
	return corrupt
}

// Inspect reads an image without a volume and verifies every record.
// Records that fail verification are reported in the listing rather
// than as an error; only a malformed file fails Inspect.
func Inspect(r io.Reader, options RestoreOptions) (*Listing, error) {
	payload, described, err := readEnvelope(r, options.Identities)
	if err != nil {
		return nil, err
	}
	header, decoder, err := decodeHeader(payload)
	if err != nil {
		return nil, err
	}

	listing := &Listing{
		Header:      header,
		Compression: described.Compression,
		Encrypted:   described.Encrypted,
		Entries:     make([]ListingEntry, 0, header.Entries),
	}
	for index := range header.Entries {
		var record Record
		if err := decoder.Decode(&record); err != nil {
			return nil, fmt.Errorf("%w: decoding record %d: %v", ErrFormat, index, err)
		}
		listing.Entries = append(listing.Entries, ListingEntry{
			Path:    record.Path,
			Type:    record.Type,
			Size:    record.Size,
			Digest:  record.Digest,
			Problem: verifyRecord(record),
		})
	}
	return listing, nil
}

// Dump writes the image payload in CBOR diagnostic notation, one item
// per line.
func Dump(r io.Reader, w io.Writer, options RestoreOptions) error {
	payload, _, err := readEnvelope(r, options.Identities)
	if err != nil {
		return err
	}
	for len(payload) > 0 {
		notation, rest, err := codec.DiagnoseFirst(payload)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrFormat, err)
		}
		if _, err := fmt.Fprintln(w, notation); err != nil {
			return err
		}
		payload = rest
	}
	return nil
}
