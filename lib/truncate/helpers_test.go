// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package truncate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bureau-foundation/transcript/lib/transcript"
)

// Message builders shared by the tests in this package.

func userText(text string) transcript.Message {
	return transcript.Message{
		ID:    "u-" + text,
		Role:  transcript.RoleUser,
		Parts: []transcript.Part{transcript.TextPart(text)},
	}
}

func assistantText(text string, tokens int64) transcript.Message {
	return transcript.Message{
		ID:         "a-" + text,
		Role:       transcript.RoleAssistant,
		Parts:      []transcript.Part{transcript.TextPart(text)},
		TokenUsage: &transcript.TokenUsage{TotalTokens: tokens},
	}
}

func assistantRequest(id string, tokens int64) transcript.Message {
	return transcript.Message{
		ID:         "a-req-" + id,
		Role:       transcript.RoleAssistant,
		Parts:      []transcript.Part{transcript.RequestPart(id, "run", nil)},
		TokenUsage: &transcript.TokenUsage{TotalTokens: tokens},
	}
}

func userResult(id string, isError bool) transcript.Message {
	return transcript.Message{
		ID:    "u-res-" + id,
		Role:  transcript.RoleUser,
		Parts: []transcript.Part{transcript.ResultPart(id, "output", isError)},
	}
}

// messageIDs returns the ids of messages, for compact comparisons.
func messageIDs(messages []transcript.Message) []string {
	ids := make([]string, len(messages))
	for i := range messages {
		ids[i] = messages[i].ID
	}
	return ids
}

func equalIDs(got []transcript.Message, want ...string) bool {
	ids := messageIDs(got)
	if len(ids) != len(want) {
		return false
	}
	for i := range ids {
		if ids[i] != want[i] {
			return false
		}
	}
	return true
}

// completeSummary returns a summary text that satisfies every section
// required for length.
func completeSummary(length SummaryLength) string {
	var builder strings.Builder
	builder.WriteString(SummaryHeader + "\n\n")
	for _, section := range RequiredSections(length) {
		fmt.Fprintf(&builder, "%s\n- details\n\n", section)
	}
	return builder.String()
}

// stubSummarizer is a deterministic Summarizer.
type stubSummarizer struct {
	mutex    sync.Mutex
	text     string
	tokens   int64
	model    string
	err      error
	requests []SummaryRequest
}

func (summarizer *stubSummarizer) Summarize(_ context.Context, request SummaryRequest) (*SummaryResponse, error) {
	summarizer.mutex.Lock()
	defer summarizer.mutex.Unlock()
	summarizer.requests = append(summarizer.requests, request)
	if summarizer.err != nil {
		return nil, summarizer.err
	}
	return &SummaryResponse{
		Text:         summarizer.text,
		OutputTokens: summarizer.tokens,
		Model:        summarizer.model,
	}, nil
}

func (summarizer *stubSummarizer) calls() int {
	summarizer.mutex.Lock()
	defer summarizer.mutex.Unlock()
	return len(summarizer.requests)
}

// memoryStore is an in-memory Store that records the order of calls.
type memoryStore struct {
	mutex       sync.Mutex
	transcripts map[string][]transcript.Message
	calls       []string
	audit       []string
	backupErr   error
	saveErr     error
	auditErr    error
}

func newMemoryStore(id string, messages []transcript.Message) *memoryStore {
	return &memoryStore{transcripts: map[string][]transcript.Message{id: messages}}
}

func (store *memoryStore) LoadTranscript(_ context.Context, id string) ([]transcript.Message, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.calls = append(store.calls, "load")
	messages, ok := store.transcripts[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return messages, nil
}

func (store *memoryStore) CreateBackup(_ context.Context, id string) (BackupHandle, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.calls = append(store.calls, "backup")
	if store.backupErr != nil {
		return BackupHandle{}, store.backupErr
	}
	return BackupHandle{ID: "backup-1", TranscriptID: id}, nil
}

func (store *memoryStore) SaveTranscript(_ context.Context, id string, messages []transcript.Message) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.calls = append(store.calls, "save")
	if store.saveErr != nil {
		return store.saveErr
	}
	store.transcripts[id] = messages
	return nil
}

func (store *memoryStore) AppendAuditEntry(_ context.Context, _ string, text string) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.calls = append(store.calls, "audit")
	if store.auditErr != nil {
		return store.auditErr
	}
	store.audit = append(store.audit, text)
	return nil
}

func (store *memoryStore) stored(id string) []transcript.Message {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	return store.transcripts[id]
}

func (store *memoryStore) callLog() string {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	return strings.Join(store.calls, ",")
}
