// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package truncate

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bureau-foundation/transcript/lib/transcript"
)

// sequentialIDs returns a NewID function yielding syn-1, syn-2, ...
func sequentialIDs() func() string {
	next := 0
	return func() string {
		next++
		return fmt.Sprintf("syn-%d", next)
	}
}

func TestAssembleStartsWithUser(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	discarded := []transcript.Message{userText("old"), assistantText("old", 500)}
	discarded[1].Counters = transcript.Counters{ConversationTurn: 7, StatementTurn: 3, StatementCount: 12}

	assembled, err := Assemble(AssembleInput{
		Summary:   &Summary{Text: "summary text", Tokens: 42},
		Kept:      []transcript.Message{userText("new"), assistantText("new", 100)},
		Discarded: discarded,
		Source:    SourceTool,
		Now:       now,
		NewID:     sequentialIDs(),
	})
	if err != nil {
		t.Fatalf("Assemble() error: %v", err)
	}
	if !equalIDs(assembled, "syn-1", "syn-2", "u-new", "a-new") {
		t.Fatalf("Assemble() ids = %v, want [syn-1 syn-2 u-new a-new]", messageIDs(assembled))
	}

	continuation := assembled[0]
	if continuation.Role != transcript.RoleUser {
		t.Errorf("continuation role = %s, want user", continuation.Role)
	}
	if continuation.Counters != discarded[1].Counters {
		t.Errorf("continuation counters = %+v, want %+v", continuation.Counters, discarded[1].Counters)
	}
	if !continuation.Timestamp.Equal(now) {
		t.Errorf("continuation timestamp = %v, want %v", continuation.Timestamp, now)
	}

	summary := assembled[1]
	if summary.Role != transcript.RoleAssistant {
		t.Errorf("summary role = %s, want assistant", summary.Role)
	}
	if summary.PlainText() != "summary text" {
		t.Errorf("summary text = %q, want %q", summary.PlainText(), "summary text")
	}
	if got := transcript.MessageTokens(summary); got != 42 {
		t.Errorf("summary tokens = %d, want 42", got)
	}
}

func TestAssembleInsertsFillerBeforeAssistant(t *testing.T) {
	t.Parallel()

	assembled, err := Assemble(AssembleInput{
		Summary: &Summary{Text: "summary"},
		Kept:    []transcript.Message{assistantText("reply", 100), userText("next")},
		Source:  SourceTool,
		NewID:   sequentialIDs(),
	})
	if err != nil {
		t.Fatalf("Assemble() error: %v", err)
	}
	if !equalIDs(assembled, "syn-1", "syn-2", "syn-3", "a-reply", "u-next") {
		t.Fatalf("Assemble() ids = %v, want filler at index 2", messageIDs(assembled))
	}
	if assembled[2].Role != transcript.RoleUser {
		t.Errorf("filler role = %s, want user", assembled[2].Role)
	}
}

func TestAssembleUserSourceAddsNote(t *testing.T) {
	t.Parallel()

	kept := []transcript.Message{userText("new"), assistantText("new", 100)}
	assembled, err := Assemble(AssembleInput{
		Summary: &Summary{Text: "summary"},
		Kept:    kept,
		Source:  SourceUser,
		NewID:   sequentialIDs(),
	})
	if err != nil {
		t.Fatalf("Assemble() error: %v", err)
	}

	last := assembled[len(assembled)-1]
	if len(last.Parts) != 2 {
		t.Fatalf("last message has %d parts, want 2", len(last.Parts))
	}
	if last.Parts[1].Text != truncationNote {
		t.Errorf("appended part = %q, want the truncation note", last.Parts[1].Text)
	}
	if len(kept[1].Parts) != 1 {
		t.Errorf("kept input was modified: %d parts", len(kept[1].Parts))
	}
}

func TestAssembleUserSourceSkipsUserLast(t *testing.T) {
	t.Parallel()

	assembled, err := Assemble(AssembleInput{
		Summary: &Summary{Text: "summary"},
		Kept:    []transcript.Message{userText("new"), assistantText("new", 100), userText("pending")},
		Source:  SourceUser,
		NewID:   sequentialIDs(),
	})
	if err != nil {
		t.Fatalf("Assemble() error: %v", err)
	}
	for _, message := range assembled {
		for _, part := range message.Parts {
			if part.Text == truncationNote {
				t.Errorf("note added to %s although the last message is a user message", message.ID)
			}
		}
	}
}

func TestAssembleToolSourceAddsNoNote(t *testing.T) {
	t.Parallel()

	assembled, err := Assemble(AssembleInput{
		Summary: &Summary{Text: "summary"},
		Kept:    []transcript.Message{userText("new"), assistantText("new", 100)},
		Source:  SourceTool,
		NewID:   sequentialIDs(),
	})
	if err != nil {
		t.Fatalf("Assemble() error: %v", err)
	}
	if parts := len(assembled[len(assembled)-1].Parts); parts != 1 {
		t.Errorf("last message has %d parts, want 1", parts)
	}
}

func TestAssembleEmptyKept(t *testing.T) {
	t.Parallel()

	assembled, err := Assemble(AssembleInput{
		Summary: &Summary{Text: "summary"},
		Source:  SourceUser,
		NewID:   sequentialIDs(),
	})
	if err != nil {
		t.Fatalf("Assemble() error: %v", err)
	}
	if !equalIDs(assembled, "syn-1", "syn-2") {
		t.Errorf("Assemble() ids = %v, want [syn-1 syn-2]", messageIDs(assembled))
	}
	if len(assembled[1].Parts) != 1 {
		t.Errorf("summary message was annotated: %d parts", len(assembled[1].Parts))
	}
}

func TestAssembleRejectsBrokenAlternation(t *testing.T) {
	t.Parallel()

	_, err := Assemble(AssembleInput{
		Summary: &Summary{Text: "summary"},
		Kept:    []transcript.Message{userText("one"), userText("two")},
		Source:  SourceTool,
		NewID:   sequentialIDs(),
	})
	var assemblyErr *AssemblyError
	if !errors.As(err, &assemblyErr) {
		t.Fatalf("Assemble() = %v, want *AssemblyError", err)
	}
	if assemblyErr.Cause.Index != 3 {
		t.Errorf("alternation failure at index %d, want 3", assemblyErr.Cause.Index)
	}
}

func TestAssembleDefaultIDs(t *testing.T) {
	t.Parallel()

	assembled, err := Assemble(AssembleInput{
		Summary: &Summary{Text: "summary"},
		Kept:    []transcript.Message{userText("new"), assistantText("new", 1)},
	})
	if err != nil {
		t.Fatalf("Assemble() error: %v", err)
	}
	if assembled[0].ID == "" || assembled[1].ID == "" || assembled[0].ID == assembled[1].ID {
		t.Errorf("synthetic ids = %q, %q, want distinct non-empty", assembled[0].ID, assembled[1].ID)
	}
}

func TestAssembleUserSourceSkipsInFlightRequest(t *testing.T) {
	t.Parallel()

	assembled, err := Assemble(AssembleInput{
		Summary: &Summary{Text: "summary"},
		Kept:    []transcript.Message{userText("next"), assistantRequest("call_1", 100)},
		Source:  SourceUser,
		NewID:   sequentialIDs(),
	})
	if err != nil {
		t.Fatalf("Assemble() error: %v", err)
	}
	last := assembled[len(assembled)-1]
	if len(last.Parts) != 1 || !last.HasRequest() {
		t.Errorf("last message parts = %+v, want the request unchanged", last.Parts)
	}
}
