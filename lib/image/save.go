// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package image

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"filippo.io/age"
	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/cutefs/lib/codec"
	"github.com/bureau-foundation/cutefs/lib/cutefs"
)

// SaveOptions configures Save.
type SaveOptions struct {
	// Compression is the algorithm to try on the payload.
	Compression CompressionTag

	// Recipients, when non-empty, encrypt the image to every listed
	// age recipient.
	Recipients []age.Recipient

	// Logger receives progress messages. If nil, errors are logged
	// to stderr.
	Logger *slog.Logger
}

// RestoreOptions configures Restore and Inspect.
type RestoreOptions struct {
	// Identities decrypt an encrypted image.
	Identities []age.Identity

	Logger *slog.Logger
}

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// Save writes every entry of volume to w.
//
// The volume stays usable during the save; each file is read through
// its own handle, so a file busy elsewhere is still captured. Entries
// created or removed concurrently may or may not appear.
func Save(volume *cutefs.Volume, w io.Writer, options SaveOptions) (Summary, error) {
	logger := defaultLogger(options.Logger)

	stats, err := volume.Statfs()
	if err != nil {
		return Summary{}, fmt.Errorf("reading volume geometry: %w", err)
	}

	var entries []Record
	err = volume.Walk("/", func(path string, info cutefs.FileInfo) error {
		if path == "/" {
			return nil
		}
		entries = append(entries, Record{Path: path, Type: info.Type})
		return nil
	})
	if err != nil {
		return Summary{}, fmt.Errorf("listing volume: %w", err)
	}

	var payload bytes.Buffer
	encoder := codec.NewEncoder(&payload)
	header := Header{
		Version:    Version,
		BlockSize:  stats.BlockSize,
		BlockCount: stats.BlockCount,
		Entries:    len(entries),
	}
	if err := encoder.Encode(header); err != nil {
		return Summary{}, fmt.Errorf("encoding header: %w", err)
	}

	var summary Summary
	for _, record := range entries {
		if record.Type == cutefs.TypeFile {
			data, err := readContent(volume, record.Path)
			if err != nil {
				return summary, err
			}
			digest := blake3.Sum256(data)
			record.Size = int64(len(data))
			record.Digest = digest[:]
			record.Data = data
		}
		if err := encoder.Encode(record); err != nil {
			return summary, fmt.Errorf("encoding %s: %w", record.Path, err)
		}
		summary.add(record)
	}

	applied, err := writeEnvelope(w, payload.Bytes(), options.Compression, options.Recipients)
	if err != nil {
		return summary, err
	}

	logger.Info("volume image saved",
		"directories", summary.Directories,
		"files", summary.Files,
		"bytes", summary.Bytes,
		"payload_bytes", payload.Len(),
		"compression", applied.String(),
		"encrypted", len(options.Recipients) > 0,
	)
	return summary, nil
}

// SaveFile saves volume to path, replacing it atomically.
func SaveFile(volume *cutefs.Volume, path string, options SaveOptions) (Summary, error) {
	temporary, err := os.CreateTemp(filepath.Dir(path), ".cutefs-image-*")
	if err != nil {
		return Summary{}, fmt.Errorf("creating temporary image: %w", err)
	}
	defer os.Remove(temporary.Name())

	summary, err := Save(volume, temporary, options)
	if err != nil {
		temporary.Close()
		return summary, err
	}
	if err := temporary.Sync(); err != nil {
		temporary.Close()
		return summary, fmt.Errorf("syncing image: %w", err)
	}
	if err := temporary.Close(); err != nil {
		return summary, fmt.Errorf("closing image: %w", err)
	}
	if err := os.Rename(temporary.Name(), path); err != nil {
		return summary, fmt.Errorf("installing image: %w", err)
	}
	return summary, nil
}

func readContent(volume *cutefs.Volume, path string) ([]byte, error) {
	handle, err := volume.Open(path, cutefs.ReadOnly)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	data, readErr := io.ReadAll(handle)
	closeErr := handle.Close()
	if readErr != nil {
		return nil, fmt.Errorf("reading %s: %w", path, readErr)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("closing %s: %w", path, closeErr)
	}
	return data, nil
}
