// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package truncate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bureau-foundation/transcript/lib/transcript"
)

func TestRequiredSectionsNest(t *testing.T) {
	t.Parallel()

	short := RequiredSections(SummaryShort)
	medium := RequiredSections(SummaryMedium)
	long := RequiredSections(SummaryLong)

	if len(medium) != len(short)+3 {
		t.Errorf("medium has %d sections, want short+3 = %d", len(medium), len(short)+3)
	}
	if len(long) != len(medium)+1 {
		t.Errorf("long has %d sections, want medium+1 = %d", len(long), len(medium)+1)
	}
	for i := range short {
		if medium[i] != short[i] {
			t.Errorf("medium[%d] = %q, want %q", i, medium[i], short[i])
		}
	}
	for i := range medium {
		if long[i] != medium[i] {
			t.Errorf("long[%d] = %q, want %q", i, long[i], medium[i])
		}
	}

	found := false
	for _, section := range short {
		if section == "### Key Decisions" {
			found = true
		}
	}
	if !found {
		t.Errorf("short sections %v do not include ### Key Decisions", short)
	}
}

func TestGenerateSummary(t *testing.T) {
	t.Parallel()

	summarizer := &stubSummarizer{
		text:   "\n" + completeSummary(SummaryMedium) + "\n\n",
		tokens: 321,
		model:  "test-model",
	}
	kept := []transcript.Message{userText("kept"), assistantText("kept", 10)}
	discarded := []transcript.Message{userText("old"), assistantText("old", 10)}

	summary, err := GenerateSummary(context.Background(), summarizer, NewCharEstimator(), kept, discarded, SummaryMedium)
	if err != nil {
		t.Fatalf("GenerateSummary() error: %v", err)
	}
	if summary.Tokens != 321 {
		t.Errorf("Tokens = %d, want 321", summary.Tokens)
	}
	if summary.Model != "test-model" {
		t.Errorf("Model = %q, want test-model", summary.Model)
	}
	if strings.HasPrefix(summary.Text, "\n") || strings.HasSuffix(summary.Text, "\n") {
		t.Errorf("Text not trimmed: %q", summary.Text)
	}

	if summarizer.calls() != 1 {
		t.Fatalf("summarizer called %d times, want 1", summarizer.calls())
	}
	request := summarizer.requests[0]
	if !equalIDs(request.Discarded, "u-old", "a-old") {
		t.Errorf("Discarded = %v", messageIDs(request.Discarded))
	}
	if !equalIDs(request.Kept, "u-kept", "a-kept") {
		t.Errorf("Kept = %v", messageIDs(request.Kept))
	}
	if request.Header != SummaryHeader {
		t.Errorf("Header = %q, want %q", request.Header, SummaryHeader)
	}
	if len(request.RequiredSections) != len(RequiredSections(SummaryMedium)) {
		t.Errorf("RequiredSections = %v", request.RequiredSections)
	}
	if request.Instruction == "" {
		t.Error("Instruction is empty")
	}
}

func TestGenerateSummaryMissingSection(t *testing.T) {
	t.Parallel()

	text := strings.Replace(completeSummary(SummaryShort), "### Key Decisions", "### Decisions", 1)
	summarizer := &stubSummarizer{text: text, tokens: 10}

	_, err := GenerateSummary(context.Background(), summarizer, nil, nil, nil, SummaryShort)
	var generationErr *GenerationError
	if !errors.As(err, &generationErr) {
		t.Fatalf("GenerateSummary() = %v, want *GenerationError", err)
	}
	if len(generationErr.Missing) != 1 || generationErr.Missing[0] != "### Key Decisions" {
		t.Errorf("Missing = %v, want [### Key Decisions]", generationErr.Missing)
	}
	if !strings.Contains(err.Error(), "### Key Decisions") {
		t.Errorf("error %q does not name the missing section", err)
	}

	foundDecisions := false
	for _, heading := range generationErr.Found {
		if heading == "### Decisions" {
			foundDecisions = true
		}
	}
	if !foundDecisions {
		t.Errorf("Found = %v, want it to include ### Decisions", generationErr.Found)
	}
}

func TestGenerateSummaryMissingHeader(t *testing.T) {
	t.Parallel()

	text := strings.Replace(completeSummary(SummaryLong), SummaryHeader, "## Summary", 1)
	summarizer := &stubSummarizer{text: text}

	_, err := GenerateSummary(context.Background(), summarizer, nil, nil, nil, SummaryLong)
	var generationErr *GenerationError
	if !errors.As(err, &generationErr) {
		t.Fatalf("GenerateSummary() = %v, want *GenerationError", err)
	}
	if len(generationErr.Missing) != 1 || generationErr.Missing[0] != SummaryHeader {
		t.Errorf("Missing = %v, want [%s]", generationErr.Missing, SummaryHeader)
	}
}

func TestGenerateSummaryCollaboratorFailure(t *testing.T) {
	t.Parallel()

	cause := errors.New("backend unavailable")
	summarizer := &stubSummarizer{err: cause}

	_, err := GenerateSummary(context.Background(), summarizer, nil, nil, nil, SummaryShort)
	var generationErr *GenerationError
	if !errors.As(err, &generationErr) {
		t.Fatalf("GenerateSummary() = %v, want *GenerationError", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("error %v does not wrap the collaborator error", err)
	}
	if summarizer.calls() != 1 {
		t.Errorf("summarizer called %d times, want exactly 1 (no retry)", summarizer.calls())
	}
}

func TestGenerateSummaryEstimatesMissingTokens(t *testing.T) {
	t.Parallel()

	text := completeSummary(SummaryShort)
	summarizer := &stubSummarizer{text: text}

	summary, err := GenerateSummary(context.Background(), summarizer, NewCharEstimator(), nil, nil, SummaryShort)
	if err != nil {
		t.Fatalf("GenerateSummary() error: %v", err)
	}
	trimmed := strings.TrimSpace(text)
	want := int64(float64(len(trimmed))/defaultCharactersPerToken) + 1
	if summary.Tokens != want {
		t.Errorf("Tokens = %d, want estimate %d", summary.Tokens, want)
	}
}

func TestMarkdownHeadings(t *testing.T) {
	t.Parallel()

	markdown := "## Removed Conversation Context\n\nintro\n\n### Main Topics\n- one\n\n### Current State  \n"
	got := markdownHeadings(markdown)
	want := []string{"## Removed Conversation Context", "### Main Topics", "### Current State"}
	if len(got) != len(want) {
		t.Fatalf("markdownHeadings() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("heading[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
