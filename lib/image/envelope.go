// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package image

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"filippo.io/age"
)

// ParseRecipients parses age X25519 public keys (age1...).
func ParseRecipients(keys []string) ([]age.Recipient, error) {
	recipients := make([]age.Recipient, 0, len(keys))
	for _, key := range keys {
		recipient, err := age.ParseX25519Recipient(key)
		if err != nil {
			return nil, fmt.Errorf("parsing recipient key %q: %w", key, err)
		}
		recipients = append(recipients, recipient)
	}
	return recipients, nil
}

// LoadIdentities reads age identities from an identity file in the
// format written by age-keygen.
func LoadIdentities(path string) ([]age.Identity, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening identity file: %w", err)
	}
	defer file.Close()
	identities, err := age.ParseIdentities(file)
	if err != nil {
		return nil, fmt.Errorf("parsing identity file %s: %w", path, err)
	}
	return identities, nil
}

// writeEnvelope writes the prefix and the body around payload.
// It returns the compression actually applied.
func writeEnvelope(w io.Writer, payload []byte, tag CompressionTag, recipients []age.Recipient) (CompressionTag, error) {
	compressed, err := compressPayload(payload, tag)
	if errors.Is(err, errIncompressible) {
		tag, compressed = CompressionNone, payload
	} else if err != nil {
		return tag, err
	}

	flags := byte(tag) & flagCompressionMask
	if len(recipients) > 0 {
		flags |= flagEncrypted
	}
	prefix := append([]byte(Magic), flags)
	if _, err := w.Write(prefix); err != nil {
		return tag, fmt.Errorf("writing image prefix: %w", err)
	}

	body := w
	var encryptor io.WriteCloser
	if len(recipients) > 0 {
		encryptor, err = age.Encrypt(w, recipients...)
		if err != nil {
			return tag, fmt.Errorf("creating age encryptor: %w", err)
		}
		body = encryptor
	}

	var length [8]byte
	binary.BigEndian.PutUint64(length[:], uint64(len(payload)))
	if _, err := body.Write(length[:]); err != nil {
		return tag, fmt.Errorf("writing payload length: %w", err)
	}
	if _, err := body.Write(compressed); err != nil {
		return tag, fmt.Errorf("writing payload: %w", err)
	}
	if encryptor != nil {
		if err := encryptor.Close(); err != nil {
			return tag, fmt.Errorf("finalizing age encryption: %w", err)
		}
	}
	return tag, nil
}

// envelope describes the outer layers of an image as read.
type envelope struct {
	Compression CompressionTag
	Encrypted   bool
}

// readEnvelope reads an image up to the plaintext payload.
func readEnvelope(r io.Reader, identities []age.Identity) ([]byte, envelope, error) {
	var described envelope

	prefix := make([]byte, prefixLength)
	if _, err := io.ReadFull(r, prefix); err != nil {
		return nil, described, fmt.Errorf("%w: reading prefix: %v", ErrFormat, err)
	}
	if string(prefix[:len(Magic)]) != Magic {
		return nil, described, fmt.Errorf("%w: bad magic %q", ErrFormat, prefix[:len(Magic)])
	}
	flags := prefix[len(Magic)]
	if flags&^(flagCompressionMask|flagEncrypted) != 0 {
		return nil, described, fmt.Errorf("%w: unknown flags %#x", ErrFormat, flags)
	}
	described.Compression = CompressionTag(flags & flagCompressionMask)
	described.Encrypted = flags&flagEncrypted != 0

	body := r
	if described.Encrypted {
		if len(identities) == 0 {
			return nil, described, ErrEncrypted
		}
		decrypted, err := age.Decrypt(r, identities...)
		if err != nil {
			return nil, described, fmt.Errorf("decrypting image: %w", err)
		}
		body = decrypted
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, described, fmt.Errorf("reading image body: %w", err)
	}
	if len(raw) < 8 {
		return nil, described, fmt.Errorf("%w: body too short", ErrFormat)
	}
	length := binary.BigEndian.Uint64(raw[:8])
	if length > MaxPayloadSize {
		return nil, described, fmt.Errorf("%w: payload of %d bytes exceeds limit", ErrFormat, length)
	}

	payload, err := decompressPayload(raw[8:], described.Compression, int(length))
	if err != nil {
		return nil, described, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return payload, described, nil
}
