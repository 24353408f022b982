// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transcriptstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/transcript/lib/codec"
	"github.com/bureau-foundation/transcript/lib/sealed"
	"github.com/bureau-foundation/transcript/lib/transcript"
	"github.com/bureau-foundation/transcript/lib/truncate"
)

var _ truncate.Store = (*Store)(nil)

// ErrSealed is returned when reading an encrypted backup without
// identities.
var ErrSealed = errors.New("backup is encrypted; an identity file is required")

// IntegrityError reports a backup whose decoded content does not match
// the hash recorded when it was written.
type IntegrityError struct {
	BackupID string
	Want     string
	Got      string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("backup %s: content hash %s does not match recorded %s", e.BackupID, e.Got, e.Want)
}

// Backup describes a stored backup without its payload.
type Backup struct {
	ID           string               `json:"id"`
	TranscriptID string               `json:"transcript_id"`
	CreatedAt    time.Time            `json:"created_at"`
	MessageCount int                  `json:"message_count"`
	TokenCount   int64                `json:"token_count"`
	Compression  codec.CompressionTag `json:"compression"`
	Sealed       bool                 `json:"sealed"`
	Hash         string               `json:"hash"`
	Size         int                  `json:"size"`
}

// Handle converts the row to the handle the truncation engine reports.
func (b Backup) Handle() truncate.BackupHandle {
	return truncate.BackupHandle{
		ID:           b.ID,
		TranscriptID: b.TranscriptID,
		Hash:         b.Hash,
		CreatedAt:    b.CreatedAt,
	}
}

// CreateBackup copies the current messages of a transcript into a new
// backup row. The copy and the read happen in one transaction, so the
// backup is exactly what a subsequent SaveTranscript replaces.
func (s *Store) CreateBackup(ctx context.Context, transcriptID string) (handle truncate.BackupHandle, err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return truncate.BackupHandle{}, fmt.Errorf("transcriptstore: backup %s: %w", transcriptID, err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return truncate.BackupHandle{}, fmt.Errorf("transcriptstore: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	blob, found, err := readMessagesBlob(conn, transcriptID)
	if err != nil {
		return truncate.BackupHandle{}, err
	}
	if !found {
		return truncate.BackupHandle{}, fmt.Errorf("transcriptstore: transcript %s: %w", transcriptID, ErrNotFound)
	}

	raw, err := codec.Open(blob)
	if err != nil {
		return truncate.BackupHandle{}, fmt.Errorf("transcriptstore: decoding %s: %w", transcriptID, err)
	}
	var messages []transcript.Message
	if err = codec.Unmarshal(raw, &messages); err != nil {
		return truncate.BackupHandle{}, fmt.Errorf("transcriptstore: decoding %s: %w", transcriptID, err)
	}

	// MarshalCompressed encodes with the same deterministic mode, so
	// the hashed bytes are exactly what codec.Open recovers later.
	encoded, err := codec.Marshal(messages)
	if err != nil {
		return truncate.BackupHandle{}, fmt.Errorf("transcriptstore: encoding backup of %s: %w", transcriptID, err)
	}
	payload, err := codec.MarshalCompressed(messages, s.compression)
	if err != nil {
		return truncate.BackupHandle{}, fmt.Errorf("transcriptstore: encoding backup of %s: %w", transcriptID, err)
	}
	compression, err := codec.EnvelopeCompression(payload)
	if err != nil {
		return truncate.BackupHandle{}, fmt.Errorf("transcriptstore: encoding backup of %s: %w", transcriptID, err)
	}
	isSealed := len(s.recipients) > 0
	if isSealed {
		payload, err = sealed.Encrypt(payload, s.recipients)
		if err != nil {
			return truncate.BackupHandle{}, fmt.Errorf("transcriptstore: sealing backup of %s: %w", transcriptID, err)
		}
	}

	backup := Backup{
		ID:           uuid.NewString(),
		TranscriptID: transcriptID,
		CreatedAt:    fromUnixNano(s.clock.Now().UnixNano()),
		MessageCount: len(messages),
		TokenCount:   transcript.TotalTokens(messages),
		Compression:  compression,
		Sealed:       isSealed,
		Hash:         hashBackup(encoded),
		Size:         len(payload),
	}

	err = sqlitex.Execute(conn, `
		INSERT INTO backups (id, transcript_id, created_at, message_count, token_count, compression, sealed, hash, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, &sqlitex.ExecOptions{
		Args: []any{
			backup.ID,
			backup.TranscriptID,
			backup.CreatedAt.UnixNano(),
			backup.MessageCount,
			backup.TokenCount,
			int(backup.Compression),
			boolInt(backup.Sealed),
			backup.Hash,
			payload,
		},
	})
	if err != nil {
		return truncate.BackupHandle{}, fmt.Errorf("transcriptstore: insert backup of %s: %w", transcriptID, err)
	}

	s.logger.Info("backup created",
		"transcript_id", transcriptID,
		"backup_id", backup.ID,
		"messages", backup.MessageCount,
		"compression", backup.Compression.String(),
		"sealed", backup.Sealed,
		"bytes", backup.Size,
	)
	return backup.Handle(), nil
}

// ListBackups returns the backups of one transcript, or of every
// transcript when transcriptID is empty, oldest first.
func (s *Store) ListBackups(ctx context.Context, transcriptID string) ([]Backup, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("transcriptstore: list backups: %w", err)
	}
	defer s.pool.Put(conn)

	query := "SELECT " + backupColumns + " FROM backups"
	var args []any
	if transcriptID != "" {
		query += " WHERE transcript_id = ?"
		args = append(args, transcriptID)
	}
	query += " ORDER BY created_at, id"

	var backups []Backup
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			backups = append(backups, scanBackup(stmt))
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("transcriptstore: list backups: %w", err)
	}
	return backups, nil
}

// ReadBackup decodes a backup back into messages, decrypting it with
// identities when it is sealed. identities may be nil for unsealed
// backups. The content hash is checked before anything is returned.
func (s *Store) ReadBackup(ctx context.Context, backupID string, identities *sealed.Identities) (Backup, []transcript.Message, error) {
	backup, raw, err := s.ReadBackupPayload(ctx, backupID, identities)
	if err != nil {
		return backup, nil, err
	}
	var messages []transcript.Message
	if err := codec.Unmarshal(raw, &messages); err != nil {
		return backup, nil, fmt.Errorf("transcriptstore: backup %s: decoding messages: %w", backupID, err)
	}
	return backup, messages, nil
}

// ReadBackupPayload returns the CBOR encoding of a backup's messages,
// decrypted and decompressed, after checking it against the recorded
// hash.
func (s *Store) ReadBackupPayload(ctx context.Context, backupID string, identities *sealed.Identities) (Backup, []byte, error) {
	backup, payload, err := s.readBackupRow(ctx, backupID)
	if err != nil {
		return Backup{}, nil, err
	}

	if backup.Sealed {
		if identities == nil {
			return backup, nil, fmt.Errorf("transcriptstore: backup %s: %w", backupID, ErrSealed)
		}
		payload, err = sealed.Decrypt(payload, identities)
		if err != nil {
			return backup, nil, fmt.Errorf("transcriptstore: backup %s: %w", backupID, err)
		}
	}

	raw, err := codec.Open(payload)
	if err != nil {
		return backup, nil, fmt.Errorf("transcriptstore: backup %s: %w", backupID, err)
	}
	if got := hashBackup(raw); got != backup.Hash {
		return backup, nil, fmt.Errorf("transcriptstore: %w", &IntegrityError{BackupID: backupID, Want: backup.Hash, Got: got})
	}
	return backup, raw, nil
}

// VerifyBackup reads a backup end to end and checks its hash and
// message count against the recorded values.
func (s *Store) VerifyBackup(ctx context.Context, backupID string, identities *sealed.Identities) (Backup, error) {
	backup, messages, err := s.ReadBackup(ctx, backupID, identities)
	if err != nil {
		return backup, err
	}
	if len(messages) != backup.MessageCount {
		return backup, fmt.Errorf("transcriptstore: backup %s: decoded %d messages, recorded %d",
			backupID, len(messages), backup.MessageCount)
	}
	return backup, nil
}

const backupColumns = "id, transcript_id, created_at, message_count, token_count, compression, sealed, hash, length(payload)"

func (s *Store) readBackupRow(ctx context.Context, backupID string) (Backup, []byte, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return Backup{}, nil, fmt.Errorf("transcriptstore: read backup %s: %w", backupID, err)
	}
	defer s.pool.Put(conn)

	var backup Backup
	var payload []byte
	var found bool
	err = sqlitex.Execute(conn, "SELECT "+backupColumns+", payload FROM backups WHERE id = ?", &sqlitex.ExecOptions{
		Args: []any{backupID},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			found = true
			backup = scanBackup(stmt)
			payload = readBlob(stmt, 9)
			return nil
		},
	})
	if err != nil {
		return Backup{}, nil, fmt.Errorf("transcriptstore: read backup %s: %w", backupID, err)
	}
	if !found {
		return Backup{}, nil, fmt.Errorf("transcriptstore: backup %s: %w", backupID, ErrNotFound)
	}
	return backup, payload, nil
}

// scanBackup reads the backupColumns of the current row.
func scanBackup(stmt *sqlite.Stmt) Backup {
	return Backup{
		ID:           stmt.ColumnText(0),
		TranscriptID: stmt.ColumnText(1),
		CreatedAt:    fromUnixNano(stmt.ColumnInt64(2)),
		MessageCount: stmt.ColumnInt(3),
		TokenCount:   stmt.ColumnInt64(4),
		Compression:  codec.CompressionTag(stmt.ColumnInt(5)),
		Sealed:       stmt.ColumnInt(6) != 0,
		Hash:         stmt.ColumnText(7),
		Size:         stmt.ColumnInt(8),
	}
}

func boolInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
