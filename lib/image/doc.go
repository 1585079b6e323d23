// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package image saves a cutefs volume to a self-contained image file
// and restores it again. Volumes live only as long as their process;
// images are how their content survives a restart.
//
// An image file is laid out as
//
//	magic    8 bytes  "CUTEFSIM"
//	flags    1 byte   low nibble: CompressionTag; bit 7: encrypted
//	body     rest     optionally age-encrypted
//
// and the body, once decrypted, is
//
//	length   8 bytes  big-endian uncompressed payload size
//	payload  rest     payload, compressed with the tagged algorithm
//
// The payload is a CBOR sequence (lib/codec): one [Header] followed by
// [Header.Entries] [Record] items in the pre-order of [cutefs.Volume.Walk].
// Every record carries the BLAKE3 digest of its content, checked on
// restore and by [Inspect].
//
// Compression falls back to [CompressionNone] when the payload does not
// shrink, so the tag in the file reflects what was actually applied.
// Encryption uses age X25519 recipients; decryption needs a matching
// identity.
package image
