// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR encoding configuration and the
// compression framing used for stored transcripts and backups.
//
// JSON is the external format (import/export files, CLI --json
// output, provider wire requests). CBOR is the storage format: message
// blobs in the transcript database and backup payloads. The encoder
// uses Core Deterministic Encoding (RFC 8949 §4.2), so the same
// messages always produce identical bytes and backup hashes are
// stable across runs.
//
// Buffer-oriented use:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// Compressed use, for blobs large enough to matter:
//
//	data, err := codec.MarshalCompressed(value, codec.CompressionZstd)
//	err = codec.UnmarshalCompressed(data, &value)
//
// # Struct Tag Rules
//
// Types that only ever go to disk carry `cbor` tags. Types that also
// appear in JSON (transcript messages, CLI output) carry `json` tags
// only; fxamacker/cbor falls back to `json` tags when `cbor` tags are
// absent. Never put both tags on one field.
package codec
