// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package image

import (
	"bytes"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/cutefs/lib/codec"
	"github.com/bureau-foundation/cutefs/lib/cutefs"
)

// Restore recreates the entries of an image in volume. Existing
// directories are reused and existing files are overwritten; entries
// not in the image are left alone.
//
// Restore stops at the first failure. A volume too small for the
// image fails with an error wrapping cutefs.ErrNoSpace that names the
// file being written. Entries restored before a failure stay in place.
func Restore(volume *cutefs.Volume, r io.Reader, options RestoreOptions) (Summary, error) {
	logger := defaultLogger(options.Logger)

	header, decoder, err := openPayload(r, options)
	if err != nil {
		return Summary{}, err
	}

	stats, err := volume.Statfs()
	if err != nil {
		return Summary{}, fmt.Errorf("reading volume geometry: %w", err)
	}
	if stats.BlockSize != header.BlockSize || stats.BlockCount != header.BlockCount {
		logger.Info("restoring image into a volume with different geometry",
			"image_block_size", header.BlockSize,
			"image_block_count", header.BlockCount,
			"volume_block_size", stats.BlockSize,
			"volume_block_count", stats.BlockCount,
		)
	}

	var summary Summary
	for index := range header.Entries {
		var record Record
		if err := decoder.Decode(&record); err != nil {
			return summary, fmt.Errorf("%w: decoding record %d: %v", ErrFormat, index, err)
		}
		if err := verifyRecord(record); err != nil {
			return summary, err
		}
		if err := restoreRecord(volume, record); err != nil {
			return summary, err
		}
		summary.add(record)
	}

	logger.Info("volume image restored",
		"directories", summary.Directories,
		"files", summary.Files,
		"bytes", summary.Bytes,
	)
	return summary, nil
}

// RestoreFile restores the image at path into volume.
func RestoreFile(volume *cutefs.Volume, path string, options RestoreOptions) (Summary, error) {
	file, err := os.Open(path)
	if err != nil {
		return Summary{}, fmt.Errorf("opening image: %w", err)
	}
	defer file.Close()
	return Restore(volume, file, options)
}

// openPayload reads the envelope and the header and returns a decoder
// positioned at the first record.
func openPayload(r io.Reader, options RestoreOptions) (Header, *codec.Decoder, error) {
	payload, _, err := readEnvelope(r, options.Identities)
	if err != nil {
		return Header{}, nil, err
	}
	return decodeHeader(payload)
}

// decodeHeader decodes and checks the header at the start of payload.
func decodeHeader(payload []byte) (Header, *codec.Decoder, error) {
	decoder := codec.NewDecoder(bytes.NewReader(payload))

	var header Header
	if err := decoder.Decode(&header); err != nil {
		return Header{}, nil, fmt.Errorf("%w: decoding header: %v", ErrFormat, err)
	}
	if header.Version != Version {
		return Header{}, nil, fmt.Errorf("%w: unsupported version %d", ErrFormat, header.Version)
	}
	if header.Entries < 0 {
		return Header{}, nil, fmt.Errorf("%w: negative entry count", ErrFormat)
	}
	return header, decoder, nil
}

// verifyRecord checks a record's content against its size and digest.
func verifyRecord(record Record) error {
	switch record.Type {
	case cutefs.TypeDirectory:
		if record.Size != 0 || len(record.Data) != 0 {
			return fmt.Errorf("%w: directory %s carries content", ErrCorrupt, record.Path)
		}
		return nil
	case cutefs.TypeFile:
	default:
		return fmt.Errorf("%w: %s has unknown type %d", ErrFormat, record.Path, record.Type)
	}

	if int64(len(record.Data)) != record.Size {
		return fmt.Errorf("%w: %s holds %d bytes, header says %d", ErrCorrupt, record.Path, len(record.Data), record.Size)
	}
	digest := blake3.Sum256(record.Data)
	if subtle.ConstantTimeCompare(digest[:], record.Digest) != 1 {
		return fmt.Errorf("%w: %s", ErrCorrupt, record.Path)
	}
	return nil
}

func restoreRecord(volume *cutefs.Volume, record Record) error {
	if record.Type == cutefs.TypeDirectory {
		err := volume.Mkdir(record.Path)
		if errors.Is(err, cutefs.ErrExist) {
			if info, statErr := volume.Stat(record.Path); statErr == nil && info.IsDir() {
				return nil
			}
		}
		if err != nil {
			return fmt.Errorf("restoring %s: %w", record.Path, err)
		}
		return nil
	}

	handle, err := volume.Open(record.Path, cutefs.Create|cutefs.WriteOnly|cutefs.Truncate)
	if err != nil {
		return fmt.Errorf("restoring %s: %w", record.Path, err)
	}
	written, writeErr := volume.Write(handle, record.Data)
	closeErr := handle.Close()
	switch {
	case writeErr != nil:
		return fmt.Errorf("restoring %s: %w", record.Path, writeErr)
	case written < len(record.Data):
		return fmt.Errorf("restoring %s: wrote %d of %d bytes: %w", record.Path, written, len(record.Data), cutefs.ErrNoSpace)
	case closeErr != nil:
		return fmt.Errorf("restoring %s: %w", record.Path, closeErr)
	}
	return nil
}
