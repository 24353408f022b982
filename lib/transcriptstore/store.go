// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transcriptstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/transcript/lib/clock"
	"github.com/bureau-foundation/transcript/lib/codec"
	"github.com/bureau-foundation/transcript/lib/sealed"
	"github.com/bureau-foundation/transcript/lib/sqlitepool"
	"github.com/bureau-foundation/transcript/lib/transcript"
)

var (
	// ErrNotFound is returned when a transcript or backup id does not
	// exist.
	ErrNotFound = errors.New("not found")

	// ErrExists is returned by CreateTranscript when the id is taken.
	ErrExists = errors.New("already exists")
)

// Config holds the parameters for opening a Store. Path is required.
type Config struct {
	// Path is the SQLite database file. Its parent directory must
	// exist.
	Path string

	// PoolSize is passed through to sqlitepool.
	PoolSize int

	// Compression is applied to message blobs and backup payloads.
	// The zero value stores them uncompressed.
	Compression codec.CompressionTag

	// Recipients are age public keys. When non-empty, every new
	// backup payload is encrypted to all of them.
	Recipients []string

	// Clock supplies timestamps. Defaults to clock.Real().
	Clock clock.Clock

	// Logger defaults to a discarding logger.
	Logger *slog.Logger
}

// Store is a SQLite-backed transcript store. It is safe for concurrent
// use.
type Store struct {
	pool        *sqlitepool.Pool
	compression codec.CompressionTag
	recipients  []string
	clock       clock.Clock
	logger      *slog.Logger
}

// Summary describes a stored transcript without its messages.
type Summary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
	TokenCount   int64     `json:"token_count"`
}

// Open opens (creating if necessary) the database at cfg.Path and
// migrates it to the current schema.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	for _, recipient := range cfg.Recipients {
		if err := sealed.ParsePublicKey(recipient); err != nil {
			return nil, fmt.Errorf("transcriptstore: backup recipient: %w", err)
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	storeClock := cfg.Clock
	if storeClock == nil {
		storeClock = clock.Real()
	}

	pool, err := sqlitepool.Open(ctx, sqlitepool.Config{
		Path:       cfg.Path,
		PoolSize:   cfg.PoolSize,
		Logger:     logger,
		Migrations: migrations,
	})
	if err != nil {
		return nil, fmt.Errorf("transcriptstore: %w", err)
	}

	return &Store{
		pool:        pool,
		compression: cfg.Compression,
		recipients:  cfg.Recipients,
		clock:       storeClock,
		logger:      logger,
	}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

// CreateTranscript stores a new transcript. It fails with ErrExists
// when the id is already in use.
func (s *Store) CreateTranscript(ctx context.Context, id, title string, messages []transcript.Message) (err error) {
	if id == "" {
		return fmt.Errorf("transcriptstore: create: empty transcript id")
	}
	blob, err := codec.MarshalCompressed(messages, s.compression)
	if err != nil {
		return fmt.Errorf("transcriptstore: create %s: %w", id, err)
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("transcriptstore: create %s: %w", id, err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("transcriptstore: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	exists, err := transcriptExists(conn, id)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("transcriptstore: transcript %s: %w", id, ErrExists)
	}

	now := s.clock.Now().UnixNano()
	err = sqlitex.Execute(conn, `
		INSERT INTO transcripts (id, title, created_at, updated_at, message_count, token_count, messages)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, &sqlitex.ExecOptions{
		Args: []any{id, title, now, now, len(messages), transcript.TotalTokens(messages), blob},
	})
	if err != nil {
		return fmt.Errorf("transcriptstore: insert %s: %w", id, err)
	}
	s.logger.Info("transcript created",
		"transcript_id", id,
		"messages", len(messages),
	)
	return nil
}

// LoadTranscript returns the stored messages of a transcript.
func (s *Store) LoadTranscript(ctx context.Context, id string) ([]transcript.Message, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("transcriptstore: load %s: %w", id, err)
	}
	defer s.pool.Put(conn)

	blob, found, err := readMessagesBlob(conn, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("transcriptstore: transcript %s: %w", id, ErrNotFound)
	}

	var messages []transcript.Message
	if err := codec.UnmarshalCompressed(blob, &messages); err != nil {
		return nil, fmt.Errorf("transcriptstore: decoding %s: %w", id, err)
	}
	return messages, nil
}

// SaveTranscript replaces the messages of an existing transcript.
func (s *Store) SaveTranscript(ctx context.Context, id string, messages []transcript.Message) (err error) {
	blob, err := codec.MarshalCompressed(messages, s.compression)
	if err != nil {
		return fmt.Errorf("transcriptstore: save %s: %w", id, err)
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("transcriptstore: save %s: %w", id, err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("transcriptstore: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	exists, err := transcriptExists(conn, id)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("transcriptstore: transcript %s: %w", id, ErrNotFound)
	}

	err = sqlitex.Execute(conn, `
		UPDATE transcripts
		SET messages = ?, message_count = ?, token_count = ?, updated_at = ?
		WHERE id = ?`, &sqlitex.ExecOptions{
		Args: []any{blob, len(messages), transcript.TotalTokens(messages), s.clock.Now().UnixNano(), id},
	})
	if err != nil {
		return fmt.Errorf("transcriptstore: update %s: %w", id, err)
	}
	s.logger.Info("transcript saved",
		"transcript_id", id,
		"messages", len(messages),
	)
	return nil
}

// DeleteTranscript removes a transcript together with its backups and
// audit entries.
func (s *Store) DeleteTranscript(ctx context.Context, id string) (err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("transcriptstore: delete %s: %w", id, err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("transcriptstore: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	exists, err := transcriptExists(conn, id)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("transcriptstore: transcript %s: %w", id, ErrNotFound)
	}
	if err = sqlitex.Execute(conn, "DELETE FROM transcripts WHERE id = ?", &sqlitex.ExecOptions{
		Args: []any{id},
	}); err != nil {
		return fmt.Errorf("transcriptstore: delete %s: %w", id, err)
	}
	s.logger.Info("transcript deleted", "transcript_id", id)
	return nil
}

// Transcript returns the summary row of one transcript.
func (s *Store) Transcript(ctx context.Context, id string) (Summary, error) {
	summaries, err := s.querySummaries(ctx, "WHERE id = ?", id)
	if err != nil {
		return Summary{}, err
	}
	if len(summaries) == 0 {
		return Summary{}, fmt.Errorf("transcriptstore: transcript %s: %w", id, ErrNotFound)
	}
	return summaries[0], nil
}

// ListTranscripts returns every stored transcript, most recently
// updated first.
func (s *Store) ListTranscripts(ctx context.Context) ([]Summary, error) {
	return s.querySummaries(ctx, "")
}

func (s *Store) querySummaries(ctx context.Context, where string, args ...any) ([]Summary, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("transcriptstore: list transcripts: %w", err)
	}
	defer s.pool.Put(conn)

	query := "SELECT id, title, created_at, updated_at, message_count, token_count FROM transcripts " +
		where + " ORDER BY updated_at DESC, id"

	var summaries []Summary
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			summaries = append(summaries, Summary{
				ID:           stmt.ColumnText(0),
				Title:        stmt.ColumnText(1),
				CreatedAt:    fromUnixNano(stmt.ColumnInt64(2)),
				UpdatedAt:    fromUnixNano(stmt.ColumnInt64(3)),
				MessageCount: stmt.ColumnInt(4),
				TokenCount:   stmt.ColumnInt64(5),
			})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("transcriptstore: list transcripts: %w", err)
	}
	return summaries, nil
}

func transcriptExists(conn *sqlite.Conn, id string) (bool, error) {
	var exists bool
	err := sqlitex.Execute(conn, "SELECT 1 FROM transcripts WHERE id = ?", &sqlitex.ExecOptions{
		Args: []any{id},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			exists = true
			return nil
		},
	})
	if err != nil {
		return false, fmt.Errorf("transcriptstore: looking up %s: %w", id, err)
	}
	return exists, nil
}

func readMessagesBlob(conn *sqlite.Conn, id string) ([]byte, bool, error) {
	var blob []byte
	var found bool
	err := sqlitex.Execute(conn, "SELECT messages FROM transcripts WHERE id = ?", &sqlitex.ExecOptions{
		Args: []any{id},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			found = true
			blob = readBlob(stmt, 0)
			return nil
		},
	})
	if err != nil {
		return nil, false, fmt.Errorf("transcriptstore: reading %s: %w", id, err)
	}
	return blob, found, nil
}

// readBlob copies a BLOB column out of the statement. The statement's
// buffer is only valid until the next step.
func readBlob(stmt *sqlite.Stmt, column int) []byte {
	blob := make([]byte, stmt.ColumnLen(column))
	stmt.ColumnBytes(column, blob)
	return blob
}

func fromUnixNano(nanos int64) time.Time {
	return time.Unix(0, nanos).UTC()
}
