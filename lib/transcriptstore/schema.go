// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transcriptstore

// migrations move the schema forward one PRAGMA user_version at a
// time. Append only; never edit a released entry.
var migrations = []string{
	// 1: transcripts, backups, audit log.
	`
CREATE TABLE transcripts (
	id            TEXT PRIMARY KEY,
	title         TEXT NOT NULL DEFAULT '',
	created_at    INTEGER NOT NULL,
	updated_at    INTEGER NOT NULL,
	message_count INTEGER NOT NULL,
	token_count   INTEGER NOT NULL,
	messages      BLOB NOT NULL
);

CREATE TABLE backups (
	id            TEXT PRIMARY KEY,
	transcript_id TEXT NOT NULL REFERENCES transcripts(id) ON DELETE CASCADE,
	created_at    INTEGER NOT NULL,
	message_count INTEGER NOT NULL,
	token_count   INTEGER NOT NULL,
	compression   INTEGER NOT NULL,
	sealed        INTEGER NOT NULL,
	hash          TEXT NOT NULL,
	payload       BLOB NOT NULL
);

CREATE TABLE audit_entries (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	transcript_id TEXT NOT NULL REFERENCES transcripts(id) ON DELETE CASCADE,
	created_at    INTEGER NOT NULL,
	text          TEXT NOT NULL
);
`,
	// 2: listing indexes.
	`
CREATE INDEX backups_by_transcript ON backups(transcript_id, created_at);
CREATE INDEX audit_by_transcript ON audit_entries(transcript_id, id);
`,
}
