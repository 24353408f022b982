// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package truncate

import (
	"errors"
	"testing"

	"github.com/bureau-foundation/transcript/lib/transcript"
)

func TestValidatePairingAccepts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		messages []transcript.Message
	}{
		{name: "empty"},
		{
			name:     "plain conversation",
			messages: []transcript.Message{userText("hi"), assistantText("hello", 5)},
		},
		{
			name: "matched pairs",
			messages: []transcript.Message{
				userText("go"),
				assistantRequest("call_1", 5), userResult("call_1", false),
				assistantRequest("call_2", 5), userResult("call_2", false),
				assistantText("done", 5),
			},
		},
		{
			name: "request in flight at the tail",
			messages: []transcript.Message{
				userText("go"),
				assistantRequest("call_1", 5),
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			if err := ValidatePairing(test.messages); err != nil {
				t.Errorf("ValidatePairing() = %v, want nil", err)
			}
		})
	}
}

func TestValidatePairingRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		messages   []transcript.Message
		wantIndex  int
		wantReason string
	}{
		{
			name: "orphan result",
			messages: []transcript.Message{
				userResult("call_1", false),
				assistantText("ok", 5),
			},
			wantIndex:  0,
			wantReason: "orphan result",
		},
		{
			name: "mismatched id",
			messages: []transcript.Message{
				userText("go"),
				assistantRequest("call_1", 5),
				userResult("call_2", false),
			},
			wantIndex:  2,
			wantReason: "mismatched result",
		},
		{
			name: "error result",
			messages: []transcript.Message{
				userText("go"),
				assistantRequest("call_1", 5),
				userResult("call_1", true),
			},
			wantIndex:  2,
			wantReason: "error result",
		},
		{
			name: "second request before result",
			messages: []transcript.Message{
				userText("go"),
				assistantRequest("call_1", 5),
				assistantRequest("call_2", 5),
			},
			wantIndex:  2,
			wantReason: "second request",
		},
		{
			name: "unanswered request before the tail",
			messages: []transcript.Message{
				userText("go"),
				assistantRequest("call_1", 5),
				userText("never mind"),
				assistantText("ok", 5),
			},
			wantIndex:  1,
			wantReason: "unanswered request",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			err := ValidatePairing(test.messages)
			var pairingErr *PairingError
			if !errors.As(err, &pairingErr) {
				t.Fatalf("ValidatePairing() = %v, want *PairingError", err)
			}
			if pairingErr.Index != test.wantIndex {
				t.Errorf("Index = %d, want %d", pairingErr.Index, test.wantIndex)
			}
			if pairingErr.Reason != test.wantReason {
				t.Errorf("Reason = %q, want %q", pairingErr.Reason, test.wantReason)
			}
		})
	}
}

func TestValidatePairingResultThenRequestInOneMessage(t *testing.T) {
	t.Parallel()

	// A message may answer one call and issue the next.
	combined := transcript.Message{
		ID:   "combined",
		Role: transcript.RoleUser,
		Parts: []transcript.Part{
			transcript.ResultPart("call_1", "ok", false),
			transcript.RequestPart("call_2", "run", nil),
		},
	}
	messages := []transcript.Message{
		assistantRequest("call_1", 5),
		combined,
	}
	if err := ValidatePairing(messages); err != nil {
		t.Errorf("ValidatePairing() = %v, want nil", err)
	}
}

func TestValidateAlternation(t *testing.T) {
	t.Parallel()

	valid := []transcript.Message{userText("a"), assistantText("b", 1), userText("c")}
	if err := ValidateAlternation(valid); err != nil {
		t.Errorf("ValidateAlternation(valid) = %v, want nil", err)
	}
	if err := ValidateAlternation(nil); err != nil {
		t.Errorf("ValidateAlternation(nil) = %v, want nil", err)
	}

	invalid := []transcript.Message{userText("a"), assistantText("b", 1), assistantText("c", 1)}
	err := ValidateAlternation(invalid)
	var alternationErr *AlternationError
	if !errors.As(err, &alternationErr) {
		t.Fatalf("ValidateAlternation(invalid) = %v, want *AlternationError", err)
	}
	if alternationErr.Index != 2 {
		t.Errorf("Index = %d, want 2", alternationErr.Index)
	}
	if len(alternationErr.Roles) != 3 {
		t.Errorf("Roles has %d entries, want 3", len(alternationErr.Roles))
	}
}
