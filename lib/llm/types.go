// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import "strings"

// Role is the author of a message in a completion request.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ContentType discriminates the variants of [ContentBlock].
type ContentType string

const (
	ContentText ContentType = "text"
)

// ContentBlock is one piece of message content. Only text is
// produced or consumed by the summarizer; other block types returned
// by a provider are preserved with their type and any text.
type ContentBlock struct {
	Type ContentType `json:"type"`
	Text string      `json:"text,omitempty"`
}

// TextBlock returns a text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: ContentText, Text: text}
}

// Message is one turn of a completion request.
type Message struct {
	Role    Role           `json:"role"`
	Content []ContentBlock `json:"content"`
}

// UserMessage returns a user message with a single text block.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: []ContentBlock{TextBlock(text)}}
}

// AssistantMessage returns an assistant message with a single text
// block.
func AssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: []ContentBlock{TextBlock(text)}}
}

// Request is a provider-agnostic completion request.
type Request struct {
	// Model is the provider-specific model identifier.
	Model string

	// MaxTokens caps the length of the completion.
	MaxTokens int

	// System is the system prompt. Empty means none.
	System string

	Messages []Message

	// Temperature overrides the provider default when non-nil.
	Temperature *float64

	StopSequences []string
}

// StopReason is why the model stopped generating.
type StopReason string

const (
	StopReasonEndTurn      StopReason = "end_turn"
	StopReasonMaxTokens    StopReason = "max_tokens"
	StopReasonStopSequence StopReason = "stop_sequence"
)

// Usage is the token accounting reported by the provider. Zero values
// mean the provider did not report the field.
type Usage struct {
	InputTokens      int64
	OutputTokens     int64
	CacheReadTokens  int64
	CacheWriteTokens int64
}

// Response is a completed provider response.
type Response struct {
	Content    []ContentBlock
	StopReason StopReason
	Usage      Usage

	// Model is the model that actually served the request, which may
	// be a dated snapshot of the requested alias.
	Model string
}

// TextContent concatenates the text of every text block.
func (response *Response) TextContent() string {
	var builder strings.Builder
	for _, block := range response.Content {
		if block.Type == ContentText {
			builder.WriteString(block.Text)
		}
	}
	return builder.String()
}
