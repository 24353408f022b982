// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transcript

import (
	"encoding/json"
	"strings"
	"time"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid reports whether the role is one of the two known roles.
func (role Role) IsValid() bool {
	return role == RoleUser || role == RoleAssistant
}

// PartType discriminates the variants of [Part].
type PartType string

const (
	// PartText is plain prose.
	PartText PartType = "text"

	// PartActionRequest is a call issued by the assistant. The
	// matching result arrives in a later user message.
	PartActionRequest PartType = "action_request"

	// PartActionResult answers an earlier action request. IsError
	// marks a call that failed or was interrupted.
	PartActionResult PartType = "action_result"
)

// Part is one content segment of a message. Exactly one of the payload
// fields is meaningful, selected by Type: Text for PartText, Request
// for PartActionRequest, Result for PartActionResult.
type Part struct {
	Type    PartType       `json:"type"`
	Text    string         `json:"text,omitempty"`
	Request *ActionRequest `json:"request,omitempty"`
	Result  *ActionResult  `json:"result,omitempty"`
}

// ActionRequest is the payload of a PartActionRequest.
type ActionRequest struct {
	ID    string          `json:"id"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

// ActionResult is the payload of a PartActionResult.
type ActionResult struct {
	RequestID string `json:"request_id"`
	IsError   bool   `json:"is_error,omitempty"`
	Content   string `json:"content,omitempty"`
}

// TextPart returns a text part.
func TextPart(text string) Part {
	return Part{Type: PartText, Text: text}
}

// RequestPart returns an action request part.
func RequestPart(id, name string, input json.RawMessage) Part {
	return Part{
		Type:    PartActionRequest,
		Request: &ActionRequest{ID: id, Name: name, Input: input},
	}
}

// ResultPart returns an action result part answering requestID.
func ResultPart(requestID, content string, isError bool) Part {
	return Part{
		Type:   PartActionResult,
		Result: &ActionResult{RequestID: requestID, Content: content, IsError: isError},
	}
}

// TokenUsage is the provider-reported token cost of producing a
// message. Only assistant messages carry a meaningful value.
type TokenUsage struct {
	InputTokens  int64 `json:"input_tokens,omitempty"`
	OutputTokens int64 `json:"output_tokens,omitempty"`
	TotalTokens  int64 `json:"total_tokens"`
}

// Counters are per-turn bookkeeping values maintained by the
// conversation driver. They are opaque here and carried through every
// transformation unchanged.
type Counters struct {
	ConversationTurn int `json:"conversation_turn,omitempty"`
	StatementTurn    int `json:"statement_turn,omitempty"`
	StatementCount   int `json:"statement_count,omitempty"`
}

// Message is one entry of a transcript.
type Message struct {
	ID         string      `json:"id"`
	Role       Role        `json:"role"`
	Parts      []Part      `json:"parts"`
	Timestamp  time.Time   `json:"timestamp"`
	TokenUsage *TokenUsage `json:"token_usage,omitempty"`
	Counters   Counters    `json:"counters"`
}

// FirstRequest returns the first action request in the message, or
// nil if the message holds none.
func (message Message) FirstRequest() *ActionRequest {
	for _, part := range message.Parts {
		if part.Type == PartActionRequest && part.Request != nil {
			return part.Request
		}
	}
	return nil
}

// FirstResult returns the first action result in the message, or nil
// if the message holds none.
func (message Message) FirstResult() *ActionResult {
	for _, part := range message.Parts {
		if part.Type == PartActionResult && part.Result != nil {
			return part.Result
		}
	}
	return nil
}

// HasRequest reports whether the message contains an action request.
func (message Message) HasRequest() bool {
	return message.FirstRequest() != nil
}

// HasResult reports whether the message contains an action result.
func (message Message) HasResult() bool {
	return message.FirstResult() != nil
}

// PlainText concatenates the text of every part, rendering requests
// and results as bracketed markers so the output reads as a log of
// the exchange.
func (message Message) PlainText() string {
	var builder strings.Builder
	for i, part := range message.Parts {
		if i > 0 {
			builder.WriteByte('\n')
		}
		switch part.Type {
		case PartText:
			builder.WriteString(part.Text)
		case PartActionRequest:
			if part.Request != nil {
				builder.WriteString("[action request " + part.Request.ID)
				if part.Request.Name != "" {
					builder.WriteString(" " + part.Request.Name)
				}
				builder.WriteString("]")
				if len(part.Request.Input) > 0 {
					builder.WriteString(" ")
					builder.Write(part.Request.Input)
				}
			}
		case PartActionResult:
			if part.Result != nil {
				status := "ok"
				if part.Result.IsError {
					status = "error"
				}
				builder.WriteString("[action result " + part.Result.RequestID + " " + status + "]")
				if part.Result.Content != "" {
					builder.WriteString(" " + part.Result.Content)
				}
			}
		default:
			builder.WriteString(part.Text)
		}
	}
	return builder.String()
}

// Clone returns a copy of the message whose Parts slice and TokenUsage
// can be modified without affecting the original. Payload pointers
// inside parts are shared; they are treated as immutable.
func (message Message) Clone() Message {
	clone := message
	if message.Parts != nil {
		clone.Parts = make([]Part, len(message.Parts))
		copy(clone.Parts, message.Parts)
	}
	if message.TokenUsage != nil {
		usage := *message.TokenUsage
		clone.TokenUsage = &usage
	}
	return clone
}

// Roles returns the role sequence of a message slice, used in
// diagnostics when alternation fails.
func Roles(messages []Message) []Role {
	roles := make([]Role, len(messages))
	for i := range messages {
		roles[i] = messages[i].Role
	}
	return roles
}
