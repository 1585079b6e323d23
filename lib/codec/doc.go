// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR encoding configuration shared by
// every cutefs package that persists structured data.
//
// Volume images (lib/image) are a CBOR sequence: a header item
// followed by one item per entry. Image digests are computed over the
// encoded bytes, so the encoder uses Core Deterministic Encoding
// (RFC 8949 §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items. Same logical data always produces identical
// bytes.
//
// For buffer-oriented operations:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations (image files):
//
//	encoder := codec.NewEncoder(w)
//	decoder := codec.NewDecoder(r)
//
// [Diagnose] and [DiagnoseFirst] render encoded data in CBOR
// diagnostic notation for the image dump command.
//
// Types persisted through this package use `cbor` struct tags with
// short keys. They never appear in JSON output.
package codec
