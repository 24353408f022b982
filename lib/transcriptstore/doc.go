// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package transcriptstore persists transcripts, pre-truncation backups,
// and the audit log in a single SQLite database. [Store] implements
// truncate.Store, so the truncation engine can load a transcript, back
// it up, replace it, and record what happened.
//
// Messages are stored as one deterministic CBOR blob per transcript,
// compressed with the configured algorithm (see lib/codec). Backups
// are full copies of that blob at the moment before a truncation:
//
//   - The content hash is a BLAKE3 keyed hash of the uncompressed CBOR,
//     so it is stable across compression and encryption changes.
//   - When recipients are configured the payload is age-encrypted (see
//     lib/sealed) and reading it back requires an identity file.
//
// Backups and audit entries are append-only. Deleting a transcript
// cascades to both.
//
// All timestamps are stored as Unix nanoseconds and come from the
// injected clock.
package transcriptstore
