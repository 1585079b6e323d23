// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package image

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/cutefs/lib/cutefs"
)

// Magic opens every image file.
const Magic = "CUTEFSIM"

// Version is the payload format version written by Save.
const Version = 1

// MaxPayloadSize bounds the uncompressed payload Restore will accept.
const MaxPayloadSize = 1 << 34

const (
	flagCompressionMask = 0x0F
	flagEncrypted       = 0x80
	prefixLength        = len(Magic) + 1
)

var (
	// ErrFormat reports a file that is not a readable image: bad
	// magic, unknown flags or version, or a truncated payload.
	ErrFormat = errors.New("image: malformed image")

	// ErrCorrupt reports a record whose content does not match its
	// digest or size.
	ErrCorrupt = errors.New("image: content digest mismatch")

	// ErrEncrypted reports an encrypted image opened without an
	// identity.
	ErrEncrypted = errors.New("image: encrypted image requires an identity")
)

// Header is the first item of the payload.
type Header struct {
	Version    int `cbor:"v"`
	BlockSize  int `cbor:"bs"`
	BlockCount int `cbor:"bc"`
	Entries    int `cbor:"n"`
}

// Record describes one entry. Directories carry no size, digest, or
// data.
type Record struct {
	Path   string          `cbor:"p"`
	Type   cutefs.FileType `cbor:"t"`
	Size   int64           `cbor:"s,omitempty"`
	Digest []byte          `cbor:"h,omitempty"`
	Data   []byte          `cbor:"d,omitempty"`
}

// Summary counts what Save wrote or Restore created.
type Summary struct {
	Directories int
	Files       int
	Bytes       int64
}

func (s *Summary) add(record Record) {
	if record.Type == cutefs.TypeDirectory {
		s.Directories++
		return
	}
	s.Files++
	s.Bytes += record.Size
}

func (s Summary) String() string {
	return fmt.Sprintf("%d directories, %d files, %d bytes", s.Directories, s.Files, s.Bytes)
}
