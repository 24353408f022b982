// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transcriptstore

import (
	"context"
	"fmt"
	"slices"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// AuditEntry is one line of a transcript's audit log.
type AuditEntry struct {
	ID           int64     `json:"id"`
	TranscriptID string    `json:"transcript_id"`
	CreatedAt    time.Time `json:"created_at"`
	Text         string    `json:"text"`
}

// AppendAuditEntry records a note against an existing transcript.
func (s *Store) AppendAuditEntry(ctx context.Context, transcriptID string, text string) (err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("transcriptstore: audit %s: %w", transcriptID, err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("transcriptstore: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	exists, err := transcriptExists(conn, transcriptID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("transcriptstore: transcript %s: %w", transcriptID, ErrNotFound)
	}

	err = sqlitex.Execute(conn,
		"INSERT INTO audit_entries (transcript_id, created_at, text) VALUES (?, ?, ?)",
		&sqlitex.ExecOptions{
			Args: []any{transcriptID, s.clock.Now().UnixNano(), text},
		})
	if err != nil {
		return fmt.Errorf("transcriptstore: insert audit entry for %s: %w", transcriptID, err)
	}
	return nil
}

// ListAudit returns the audit log of a transcript in insertion order.
// A limit of zero or less returns every entry; otherwise only the most
// recent limit entries are returned, still oldest first.
func (s *Store) ListAudit(ctx context.Context, transcriptID string, limit int) ([]AuditEntry, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("transcriptstore: list audit: %w", err)
	}
	defer s.pool.Put(conn)

	query := "SELECT id, transcript_id, created_at, text FROM audit_entries WHERE transcript_id = ? ORDER BY id DESC"
	args := []any{transcriptID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var entries []AuditEntry
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			entries = append(entries, AuditEntry{
				ID:           stmt.ColumnInt64(0),
				TranscriptID: stmt.ColumnText(1),
				CreatedAt:    fromUnixNano(stmt.ColumnInt64(2)),
				Text:         stmt.ColumnText(3),
			})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("transcriptstore: list audit for %s: %w", transcriptID, err)
	}

	slices.Reverse(entries)
	return entries, nil
}
