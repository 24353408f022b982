// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package truncate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bureau-foundation/transcript/lib/clock"
	"github.com/bureau-foundation/transcript/lib/transcript"
)

// Store is the persistence collaborator. CreateBackup must complete
// before SaveTranscript is called for the same transcript.
type Store interface {
	// LoadTranscript returns the stored messages of a transcript.
	LoadTranscript(ctx context.Context, transcriptID string) ([]transcript.Message, error)

	// CreateBackup snapshots the current stored state of the
	// transcript and returns a handle to the snapshot.
	CreateBackup(ctx context.Context, transcriptID string) (BackupHandle, error)

	// SaveTranscript replaces the stored messages of a transcript.
	SaveTranscript(ctx context.Context, transcriptID string, messages []transcript.Message) error

	// AppendAuditEntry records a human-readable note about a change
	// to the transcript.
	AppendAuditEntry(ctx context.Context, transcriptID string, text string) error
}

// EngineConfig holds the collaborators of an [Engine].
type EngineConfig struct {
	// Store is required by Truncate. TruncateMessages does not use it.
	Store Store

	// Summarizer writes summaries. Required.
	Summarizer Summarizer

	// Clock stamps synthetic messages. Defaults to clock.Real().
	Clock clock.Clock

	// Logger receives stage-level progress. Defaults to a discard
	// logger.
	Logger *slog.Logger

	// Estimator fills in summary token counts the summarizer does not
	// report. Defaults to NewCharEstimator().
	Estimator *CharEstimator

	// NewID generates ids for synthetic messages. Defaults to random
	// UUIDs.
	NewID func() string
}

// Engine runs truncations. It is safe for concurrent use; calls for
// the same transcript id are serialized, calls for different ids run
// independently. A transcript's lock entry exists only while a call
// for that id holds or waits for it.
type Engine struct {
	store      Store
	summarizer Summarizer
	clock      clock.Clock
	logger     *slog.Logger
	estimator  *CharEstimator
	newID      func() string

	locksMutex      sync.Mutex
	transcriptLocks map[string]*transcriptLock
}

// transcriptLock serializes calls for one transcript id. users counts
// the callers holding or waiting for mutex and is guarded by
// Engine.locksMutex.
type transcriptLock struct {
	mutex sync.Mutex
	users int
}

// NewEngine validates the configuration and returns an Engine.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Summarizer == nil {
		return nil, fmt.Errorf("truncate: Summarizer is required")
	}
	engine := &Engine{
		store:      cfg.Store,
		summarizer: cfg.Summarizer,
		clock:      cfg.Clock,
		logger:     cfg.Logger,
		estimator:  cfg.Estimator,
		newID:      cfg.NewID,

		transcriptLocks: make(map[string]*transcriptLock),
	}
	if engine.clock == nil {
		engine.clock = clock.Real()
	}
	if engine.logger == nil {
		engine.logger = slog.New(slog.DiscardHandler)
	}
	if engine.estimator == nil {
		engine.estimator = NewCharEstimator()
	}
	return engine, nil
}

// Truncate loads a transcript from the store, truncates and summarises
// it under request, and saves the result.
//
// Parameters are validated before the store is touched. When the
// transcript already fits the budget it is summarised but neither
// backed up nor saved. Otherwise a backup is taken before any split is
// computed, and the assembled transcript is saved only after every
// validation stage has passed. An audit entry follows the save; if it
// cannot be written the failure is logged and the result is still
// returned, since the stored transcript has already changed.
func (engine *Engine) Truncate(ctx context.Context, transcriptID string, request Request) (*Result, error) {
	request = request.Normalize()
	if err := request.Validate(); err != nil {
		return nil, fmt.Errorf("truncate: validating parameters: %w", err)
	}
	if engine.store == nil {
		return nil, fmt.Errorf("truncate: no Store configured")
	}

	unlock := engine.lockTranscript(transcriptID)
	defer unlock()

	messages, err := engine.store.LoadTranscript(ctx, transcriptID)
	if err != nil {
		return nil, fmt.Errorf("truncate: loading transcript %s: %w", transcriptID, err)
	}

	logger := engine.logger.With("transcript_id", transcriptID)
	backup := func() (*BackupHandle, error) {
		handle, err := engine.store.CreateBackup(ctx, transcriptID)
		if err != nil {
			return nil, err
		}
		logger.Info("transcript backed up", "backup_id", handle.ID)
		return &handle, nil
	}

	result, err := engine.run(ctx, logger, messages, request, backup)
	if err != nil {
		return nil, err
	}
	if !result.Truncated {
		return result, nil
	}

	if err := engine.store.SaveTranscript(ctx, transcriptID, result.KeptMessages); err != nil {
		return nil, fmt.Errorf("truncate: saving transcript %s: %w", transcriptID, err)
	}
	// The transcript has been replaced at this point, so a failed audit
	// write must not be reported as a failed truncation.
	if err := engine.store.AppendAuditEntry(ctx, transcriptID, auditText(result)); err != nil {
		logger.Warn("recording audit entry failed",
			"backup_id", backupID(result),
			"error", err,
		)
	}

	logger.Info("transcript truncated",
		"kept_messages", result.KeptMessageCount,
		"removed_messages", result.RemovedMessageCount,
		"original_tokens", result.OriginalTokenCount,
		"new_tokens", result.NewTokenCount,
		"summary_tokens", result.Metadata.SummaryTokenCount,
	)
	return result, nil
}

// TruncateMessages runs the same pipeline as Truncate over an
// in-memory transcript, without backups or persistence. The input
// slice is not modified.
func (engine *Engine) TruncateMessages(ctx context.Context, messages []transcript.Message, request Request) (*Result, error) {
	request = request.Normalize()
	if err := request.Validate(); err != nil {
		return nil, fmt.Errorf("truncate: validating parameters: %w", err)
	}
	return engine.run(ctx, engine.logger, messages, request, nil)
}

// run is the pipeline shared by Truncate and TruncateMessages. backup,
// when non-nil, is called once on the truncating path before the split
// index is computed.
func (engine *Engine) run(ctx context.Context, logger *slog.Logger, messages []transcript.Message, request Request, backup func() (*BackupHandle, error)) (*Result, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("truncate: checking transcript structure: %w",
			&StructuralError{Op: "load", Cause: errors.New("transcript has no messages")})
	}
	if err := ValidateAlternation(messages); err != nil {
		return nil, fmt.Errorf("truncate: checking transcript structure: %w",
			&StructuralError{Op: "alternation", Cause: err})
	}

	budget := int64(request.MaxTokensToKeep)
	originalTokens := transcript.TotalTokens(messages)

	if originalTokens <= budget {
		logger.Debug("transcript within budget, summarising in place",
			"tokens", originalTokens,
			"budget", budget,
		)
		return engine.summarizeInPlace(ctx, messages, request, originalTokens)
	}

	var handle *BackupHandle
	if backup != nil {
		var err error
		handle, err = backup()
		if err != nil {
			return nil, fmt.Errorf("truncate: creating backup: %w", err)
		}
	}

	boundary := FindBoundary(messages, budget)
	repair, err := RepairBoundary(messages, boundary)
	if err != nil {
		return nil, fmt.Errorf("truncate: repairing boundary: %w", err)
	}
	logger.Debug("split index chosen",
		"boundary", boundary,
		"split_index", repair.Split,
		"repair_steps", repair.Steps,
		"kept_messages", len(repair.Kept),
	)

	discarded := messages[:repair.Split]
	summary, err := GenerateSummary(ctx, engine.summarizer, engine.estimator,
		repair.Kept, discarded, request.SummaryLength)
	if err != nil {
		return nil, fmt.Errorf("truncate: generating summary: %w", err)
	}

	assembled, err := Assemble(AssembleInput{
		Summary:   summary,
		Kept:      repair.Kept,
		Discarded: discarded,
		Source:    request.RequestSource,
		Now:       engine.clock.Now(),
		NewID:     engine.newID,
	})
	if err != nil {
		return nil, fmt.Errorf("truncate: assembling transcript: %w", err)
	}

	return &Result{
		Summary:              summary.Text,
		KeptMessages:         assembled,
		OriginalTokenCount:   originalTokens,
		NewTokenCount:        transcript.TotalTokens(repair.Kept),
		OriginalMessageCount: len(messages),
		KeptMessageCount:     len(repair.Kept),
		RemovedMessageCount:  len(messages) - len(repair.Kept),
		SummaryLength:        request.SummaryLength,
		RequestSource:        request.RequestSource,
		MaxTokensToKeep:      request.MaxTokensToKeep,
		Truncated:            true,
		Backup:               handle,
		Metadata: Metadata{
			MessageRange:       MessageRange{Start: 0, End: repair.Split},
			OriginalTokenCount: originalTokens,
			SummaryTokenCount:  summary.Tokens,
			Model:              summary.Model,
			FallbackUsed:       summary.FallbackUsed,
		},
	}, nil
}

// summarizeInPlace handles a transcript that already fits: the whole
// transcript is summarised with nothing discarded, and the transcript
// itself is returned unchanged.
func (engine *Engine) summarizeInPlace(ctx context.Context, messages []transcript.Message, request Request, originalTokens int64) (*Result, error) {
	summary, err := GenerateSummary(ctx, engine.summarizer, engine.estimator,
		messages, nil, request.SummaryLength)
	if err != nil {
		return nil, fmt.Errorf("truncate: generating summary: %w", err)
	}

	return &Result{
		Summary:              summary.Text,
		KeptMessages:         messages,
		OriginalTokenCount:   originalTokens,
		NewTokenCount:        originalTokens,
		OriginalMessageCount: len(messages),
		KeptMessageCount:     len(messages),
		SummaryLength:        request.SummaryLength,
		RequestSource:        request.RequestSource,
		MaxTokensToKeep:      request.MaxTokensToKeep,
		Metadata: Metadata{
			OriginalTokenCount: originalTokens,
			SummaryTokenCount:  summary.Tokens,
			Model:              summary.Model,
			FallbackUsed:       summary.FallbackUsed,
		},
	}, nil
}

// lockTranscript acquires the mutex for transcriptID and returns its
// release function. The entry is removed from transcriptLocks by the
// last caller to release it.
func (engine *Engine) lockTranscript(transcriptID string) func() {
	engine.locksMutex.Lock()
	lock, ok := engine.transcriptLocks[transcriptID]
	if !ok {
		lock = &transcriptLock{}
		engine.transcriptLocks[transcriptID] = lock
	}
	lock.users++
	engine.locksMutex.Unlock()

	lock.mutex.Lock()
	return func() {
		lock.mutex.Unlock()

		engine.locksMutex.Lock()
		lock.users--
		if lock.users == 0 {
			delete(engine.transcriptLocks, transcriptID)
		}
		engine.locksMutex.Unlock()
	}
}

func backupID(result *Result) string {
	if result.Backup == nil {
		return ""
	}
	return result.Backup.ID
}

// auditText is the audit log line recorded after a successful save.
func auditText(result *Result) string {
	text := fmt.Sprintf("truncated transcript: kept %d messages, removed %d messages, tokens %d -> %d, %s summary",
		result.KeptMessageCount, result.RemovedMessageCount,
		result.OriginalTokenCount, result.NewTokenCount, result.SummaryLength)
	if result.Metadata.Model != "" {
		text += " by " + result.Metadata.Model
	}
	if result.Backup != nil {
		text += ", backup " + result.Backup.ID
	}
	return text
}
