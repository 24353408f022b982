// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transcriptstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/transcript/lib/codec"
	"github.com/bureau-foundation/transcript/lib/sealed"
	"github.com/bureau-foundation/transcript/lib/transcript"
	"github.com/bureau-foundation/transcript/lib/truncate"
)

func TestCreateBackupAndVerify(t *testing.T) {
	t.Parallel()
	store, fake := openTestStore(t)
	ctx := context.Background()

	if err := store.CreateTranscript(ctx, "t-1", "", sampleMessages()); err != nil {
		t.Fatalf("CreateTranscript: %v", err)
	}
	fake.Advance(time.Hour)

	handle, err := store.CreateBackup(ctx, "t-1")
	if err != nil {
		t.Fatalf("CreateBackup: %v", err)
	}
	if handle.ID == "" || handle.TranscriptID != "t-1" || len(handle.Hash) != 64 {
		t.Errorf("CreateBackup() = %+v, want an id, the transcript id, and a 64-char hash", handle)
	}
	if !handle.CreatedAt.Equal(epoch.Add(time.Hour)) {
		t.Errorf("CreatedAt = %v, want %v", handle.CreatedAt, epoch.Add(time.Hour))
	}

	backups, err := store.ListBackups(ctx, "t-1")
	if err != nil {
		t.Fatalf("ListBackups: %v", err)
	}
	if len(backups) != 1 {
		t.Fatalf("ListBackups() = %d rows, want 1", len(backups))
	}
	backup := backups[0]
	if backup.MessageCount != 4 || backup.TokenCount != 100 || backup.Sealed || backup.Size == 0 {
		t.Errorf("backup row = %+v", backup)
	}
	if backup.Handle() != handle {
		t.Errorf("Handle() = %+v, want %+v", backup.Handle(), handle)
	}

	verified, err := store.VerifyBackup(ctx, handle.ID, nil)
	if err != nil {
		t.Fatalf("VerifyBackup: %v", err)
	}
	if verified.Hash != handle.Hash {
		t.Errorf("VerifyBackup() hash = %s, want %s", verified.Hash, handle.Hash)
	}

	_, messages, err := store.ReadBackup(ctx, handle.ID, nil)
	if err != nil {
		t.Fatalf("ReadBackup: %v", err)
	}
	if got := transcript.Roles(messages); len(got) != 4 || messages[3].ID != "a-2" {
		t.Errorf("ReadBackup() roles = %v, want the original four messages", got)
	}
}

func TestBackupSurvivesSave(t *testing.T) {
	t.Parallel()
	store, _ := openTestStore(t)
	ctx := context.Background()

	if err := store.CreateTranscript(ctx, "t-1", "", sampleMessages()); err != nil {
		t.Fatalf("CreateTranscript: %v", err)
	}
	handle, err := store.CreateBackup(ctx, "t-1")
	if err != nil {
		t.Fatalf("CreateBackup: %v", err)
	}
	if err := store.SaveTranscript(ctx, "t-1", sampleMessages()[2:]); err != nil {
		t.Fatalf("SaveTranscript: %v", err)
	}

	_, messages, err := store.ReadBackup(ctx, handle.ID, nil)
	if err != nil {
		t.Fatalf("ReadBackup: %v", err)
	}
	if len(messages) != 4 {
		t.Errorf("backup after save has %d messages, want the 4 from before", len(messages))
	}
}

func TestBackupHashIndependentOfCompression(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var hashes []string
	for _, tag := range []codec.CompressionTag{codec.CompressionNone, codec.CompressionLZ4, codec.CompressionZstd} {
		store, _ := openTestStore(t, func(cfg *Config) { cfg.Compression = tag })
		if err := store.CreateTranscript(ctx, "t-1", "", sampleMessages()); err != nil {
			t.Fatalf("CreateTranscript: %v", err)
		}
		handle, err := store.CreateBackup(ctx, "t-1")
		if err != nil {
			t.Fatalf("CreateBackup(%s): %v", tag, err)
		}
		hashes = append(hashes, handle.Hash)
	}
	if hashes[0] != hashes[1] || hashes[1] != hashes[2] {
		t.Errorf("backup hashes differ across compression: %v", hashes)
	}
}

func TestSealedBackup(t *testing.T) {
	t.Parallel()
	keypair, err := sealed.GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	store, _ := openTestStore(t, func(cfg *Config) { cfg.Recipients = []string{keypair.PublicKey} })
	ctx := context.Background()

	if err := store.CreateTranscript(ctx, "t-1", "", sampleMessages()); err != nil {
		t.Fatalf("CreateTranscript: %v", err)
	}
	handle, err := store.CreateBackup(ctx, "t-1")
	if err != nil {
		t.Fatalf("CreateBackup: %v", err)
	}

	backups, err := store.ListBackups(ctx, "")
	if err != nil {
		t.Fatalf("ListBackups: %v", err)
	}
	if len(backups) != 1 || !backups[0].Sealed {
		t.Fatalf("ListBackups() = %+v, want one sealed backup", backups)
	}

	if _, _, err := store.ReadBackup(ctx, handle.ID, nil); !errors.Is(err, ErrSealed) {
		t.Errorf("ReadBackup() without identities error = %v, want ErrSealed", err)
	}

	identities, err := sealed.ParseIdentities(bytes.NewReader(keypair.IdentityFile(epoch)))
	if err != nil {
		t.Fatalf("ParseIdentities: %v", err)
	}
	if _, err := store.VerifyBackup(ctx, handle.ID, identities); err != nil {
		t.Errorf("VerifyBackup() with identity error: %v", err)
	}

	stranger, err := sealed.GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	wrong, err := sealed.ParseIdentities(strings.NewReader(stranger.PrivateKey))
	if err != nil {
		t.Fatalf("ParseIdentities: %v", err)
	}
	if _, err := store.VerifyBackup(ctx, handle.ID, wrong); err == nil {
		t.Error("VerifyBackup() with the wrong identity succeeded, want error")
	}
}

func TestVerifyBackupDetectsTampering(t *testing.T) {
	t.Parallel()
	store, _ := openTestStore(t)
	ctx := context.Background()

	if err := store.CreateTranscript(ctx, "t-1", "", sampleMessages()); err != nil {
		t.Fatalf("CreateTranscript: %v", err)
	}
	handle, err := store.CreateBackup(ctx, "t-1")
	if err != nil {
		t.Fatalf("CreateBackup: %v", err)
	}

	// Swap in a well-formed payload with different content.
	forged, err := codec.MarshalCompressed(sampleMessages()[:2], codec.CompressionNone)
	if err != nil {
		t.Fatalf("MarshalCompressed: %v", err)
	}
	conn, err := store.pool.Take(ctx)
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	err = sqlitex.Execute(conn, "UPDATE backups SET payload = ? WHERE id = ?", &sqlitex.ExecOptions{
		Args: []any{forged, handle.ID},
	})
	store.pool.Put(conn)
	if err != nil {
		t.Fatalf("tampering: %v", err)
	}

	_, err = store.VerifyBackup(ctx, handle.ID, nil)
	var integrity *IntegrityError
	if !errors.As(err, &integrity) {
		t.Fatalf("VerifyBackup() error = %v, want *IntegrityError", err)
	}
	if integrity.Want != handle.Hash {
		t.Errorf("IntegrityError.Want = %s, want %s", integrity.Want, handle.Hash)
	}
}

func TestReadBackupMissing(t *testing.T) {
	t.Parallel()
	store, _ := openTestStore(t)

	if _, _, err := store.ReadBackup(context.Background(), "no-such-backup", nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("ReadBackup() error = %v, want ErrNotFound", err)
	}
}

func TestListBackupsFilters(t *testing.T) {
	t.Parallel()
	store, fake := openTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"t-1", "t-2"} {
		if err := store.CreateTranscript(ctx, id, "", sampleMessages()); err != nil {
			t.Fatalf("CreateTranscript: %v", err)
		}
	}
	for _, id := range []string{"t-1", "t-2", "t-1"} {
		fake.Advance(time.Second)
		if _, err := store.CreateBackup(ctx, id); err != nil {
			t.Fatalf("CreateBackup(%s): %v", id, err)
		}
	}

	all, err := store.ListBackups(ctx, "")
	if err != nil {
		t.Fatalf("ListBackups: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("ListBackups(\"\") = %d rows, want 3", len(all))
	}
	one, err := store.ListBackups(ctx, "t-1")
	if err != nil {
		t.Fatalf("ListBackups: %v", err)
	}
	if len(one) != 2 || !one[0].CreatedAt.Before(one[1].CreatedAt) {
		t.Errorf("ListBackups(t-1) = %+v, want two rows oldest first", one)
	}
}

// stubSummarizer returns a summary containing every required section.
type stubSummarizer struct{}

func (stubSummarizer) Summarize(_ context.Context, request truncate.SummaryRequest) (*truncate.SummaryResponse, error) {
	var builder strings.Builder
	builder.WriteString(request.Header + "\n\n")
	for _, section := range request.RequiredSections {
		fmt.Fprintf(&builder, "%s\n- noted\n\n", section)
	}
	return &truncate.SummaryResponse{Text: builder.String(), OutputTokens: 30, Model: "stub"}, nil
}

func TestEngineAgainstStore(t *testing.T) {
	t.Parallel()
	store, fake := openTestStore(t)
	ctx := context.Background()

	messages := []transcript.Message{
		userMessage("u-1", "first"),
		assistantMessage("a-1", "long answer", 1000),
		userMessage("u-2", "second"),
		assistantMessage("a-2", "another long answer", 1000),
	}
	if err := store.CreateTranscript(ctx, "t-1", "", messages); err != nil {
		t.Fatalf("CreateTranscript: %v", err)
	}

	engine, err := truncate.NewEngine(truncate.EngineConfig{
		Store:      store,
		Summarizer: stubSummarizer{},
		Clock:      fake,
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	result, err := engine.Truncate(ctx, "t-1", truncate.Request{MaxTokensToKeep: 1500})
	if err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	if !result.Truncated || result.Backup == nil {
		t.Fatalf("Truncate() = %+v, want a truncation with a backup", result)
	}

	stored, err := store.LoadTranscript(ctx, "t-1")
	if err != nil {
		t.Fatalf("LoadTranscript: %v", err)
	}
	if len(stored) != len(result.KeptMessages) {
		t.Errorf("stored transcript has %d messages, result has %d", len(stored), len(result.KeptMessages))
	}

	_, backedUp, err := store.ReadBackup(ctx, result.Backup.ID, nil)
	if err != nil {
		t.Fatalf("ReadBackup: %v", err)
	}
	if len(backedUp) != 4 {
		t.Errorf("backup holds %d messages, want the original 4", len(backedUp))
	}

	entries, err := store.ListAudit(ctx, "t-1", 0)
	if err != nil {
		t.Fatalf("ListAudit: %v", err)
	}
	if len(entries) != 1 || !strings.Contains(entries[0].Text, result.Backup.ID) {
		t.Errorf("ListAudit() = %+v, want one entry naming backup %s", entries, result.Backup.ID)
	}
}

func TestReadBackupPayload(t *testing.T) {
	t.Parallel()
	store, _ := openTestStore(t, func(cfg *Config) { cfg.Compression = codec.CompressionLZ4 })
	ctx := context.Background()

	if err := store.CreateTranscript(ctx, "t-1", "", sampleMessages()); err != nil {
		t.Fatalf("CreateTranscript: %v", err)
	}
	handle, err := store.CreateBackup(ctx, "t-1")
	if err != nil {
		t.Fatalf("CreateBackup: %v", err)
	}

	backup, raw, err := store.ReadBackupPayload(ctx, handle.ID, nil)
	if err != nil {
		t.Fatalf("ReadBackupPayload: %v", err)
	}
	if backup.ID != handle.ID {
		t.Errorf("ReadBackupPayload() backup id = %s, want %s", backup.ID, handle.ID)
	}
	want, err := codec.Marshal(sampleMessages())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(raw, want) {
		t.Errorf("ReadBackupPayload() returned %d bytes, want the %d-byte CBOR encoding of the messages", len(raw), len(want))
	}
}
