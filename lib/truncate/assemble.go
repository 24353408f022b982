// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package truncate

import (
	"time"

	"github.com/google/uuid"

	"github.com/bureau-foundation/transcript/lib/transcript"
)

// Text of the synthetic messages spliced in by Assemble.
const (
	continuationPrompt = "The earlier part of this conversation was removed to stay within the " +
		"context budget. The next message summarises what was removed. Treat it as " +
		"established context and continue from where the conversation left off."

	fillerPrompt = "Continue with the conversation below."

	truncationNote = "Note: earlier messages in this conversation were summarised to " +
		"stay within the token budget. Refer to the summary at the start of the " +
		"conversation for the removed context."
)

// AssembleInput is the input to [Assemble].
type AssembleInput struct {
	Summary *Summary

	// Kept is the repaired kept slice, as returned in Repair.Kept.
	Kept []transcript.Message

	// Discarded is the removed prefix. Only its last message is used,
	// for its counters.
	Discarded []transcript.Message

	Source RequestSource

	// Now stamps the synthetic messages.
	Now time.Time

	// NewID generates ids for synthetic messages. Defaults to random
	// UUIDs.
	NewID func() string
}

// Assemble builds the transcript that replaces the stored one:
//
//	user(continuation prompt) -> assistant(summary) -> kept...
//
// The continuation prompt carries the counters of the last discarded
// message. For user-initiated truncations a note is appended to the
// final message when it is an assistant message, unless that message
// carries an in-flight action request, which is kept verbatim. When
// the kept slice starts with an assistant message, a filler user
// message is inserted after the summary so roles keep alternating. The
// result is checked with ValidateAlternation and a failure is an
// *AssemblyError. That failure is reachable: dropping an unanswered
// request from the middle of the kept slice leaves two user messages
// adjacent.
//
// Kept is not modified; the note is added to a copy.
func Assemble(input AssembleInput) ([]transcript.Message, error) {
	newID := input.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	var counters transcript.Counters
	if len(input.Discarded) > 0 {
		counters = input.Discarded[len(input.Discarded)-1].Counters
	}

	assembled := make([]transcript.Message, 0, len(input.Kept)+3)
	assembled = append(assembled,
		transcript.Message{
			ID:        newID(),
			Role:      transcript.RoleUser,
			Parts:     []transcript.Part{transcript.TextPart(continuationPrompt)},
			Timestamp: input.Now,
			Counters:  counters,
		},
		transcript.Message{
			ID:        newID(),
			Role:      transcript.RoleAssistant,
			Parts:     []transcript.Part{transcript.TextPart(input.Summary.Text)},
			Timestamp: input.Now,
			TokenUsage: &transcript.TokenUsage{
				OutputTokens: input.Summary.Tokens,
				TotalTokens:  input.Summary.Tokens,
			},
		},
	)
	assembled = append(assembled, input.Kept...)

	if input.Source == SourceUser {
		last := len(assembled) - 1
		if last >= 2 && assembled[last].Role == transcript.RoleAssistant && !assembled[last].HasRequest() {
			annotated := assembled[last].Clone()
			annotated.Parts = append(annotated.Parts, transcript.TextPart(truncationNote))
			assembled[last] = annotated
		}
	}

	if len(assembled) > 2 && assembled[2].Role == transcript.RoleAssistant {
		filler := transcript.Message{
			ID:        newID(),
			Role:      transcript.RoleUser,
			Parts:     []transcript.Part{transcript.TextPart(fillerPrompt)},
			Timestamp: input.Now,
		}
		withFiller := make([]transcript.Message, 0, len(assembled)+1)
		withFiller = append(withFiller, assembled[:2]...)
		withFiller = append(withFiller, filler)
		withFiller = append(withFiller, assembled[2:]...)
		assembled = withFiller
	}

	if err := ValidateAlternation(assembled); err != nil {
		return nil, &AssemblyError{Cause: err.(*AlternationError)}
	}
	return assembled, nil
}
