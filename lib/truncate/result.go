// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package truncate

import (
	"time"

	"github.com/bureau-foundation/transcript/lib/transcript"
)

// BackupHandle identifies a backup taken before a transcript was
// overwritten. Its contents are opaque to the engine.
type BackupHandle struct {
	ID           string    `json:"id"`
	TranscriptID string    `json:"transcript_id"`
	Hash         string    `json:"hash,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// MessageRange is a half-open range [Start, End) of indices into the
// original transcript.
type MessageRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Metadata describes how a summary was produced.
type Metadata struct {
	// MessageRange is the discarded prefix of the original transcript.
	// Empty when nothing was truncated.
	MessageRange       MessageRange `json:"message_range"`
	OriginalTokenCount int64        `json:"original_token_count"`
	SummaryTokenCount  int64        `json:"summary_token_count"`
	Model              string       `json:"model"`
	FallbackUsed       bool         `json:"fallback_used"`
}

// Result reports the outcome of a truncation.
type Result struct {
	Summary string `json:"summary"`

	// KeptMessages is the new transcript including the synthetic
	// summary pair. When Truncated is false it is the original
	// transcript, unchanged.
	KeptMessages []transcript.Message `json:"kept_messages"`

	OriginalTokenCount int64 `json:"original_token_count"`

	// NewTokenCount is the assistant-token total of the original
	// messages that were kept. Synthetic messages are not counted.
	NewTokenCount int64 `json:"new_token_count"`

	OriginalMessageCount int `json:"original_message_count"`

	// KeptMessageCount and RemovedMessageCount partition the original
	// messages. Synthetic messages are not counted.
	KeptMessageCount    int `json:"kept_message_count"`
	RemovedMessageCount int `json:"removed_message_count"`

	SummaryLength   SummaryLength `json:"summary_length"`
	RequestSource   RequestSource `json:"request_source"`
	MaxTokensToKeep int           `json:"max_tokens_to_keep"`

	// Truncated is false when the transcript already fit the budget
	// and was only summarised.
	Truncated bool `json:"truncated"`

	// Backup is the backup taken before saving. Nil when nothing was
	// saved.
	Backup *BackupHandle `json:"backup,omitempty"`

	Metadata Metadata `json:"metadata"`
}
