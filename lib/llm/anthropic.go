// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"fmt"
	"net/http"
)

// anthropicVersion is the Messages API version this provider speaks.
const anthropicVersion = "2023-06-01"

// DefaultAnthropicBaseURL is the public Anthropic API.
const DefaultAnthropicBaseURL = "https://api.anthropic.com"

// Anthropic implements [Provider] for the Anthropic Messages API.
// Requests are POSTed to {baseURL}/v1/messages. The API key header is
// added by the httpClient's transport, not by this type.
type Anthropic struct {
	httpClient *http.Client
	baseURL    string
}

// NewAnthropic creates an Anthropic provider. An empty baseURL means
// [DefaultAnthropicBaseURL].
func NewAnthropic(httpClient *http.Client, baseURL string) *Anthropic {
	if baseURL == "" {
		baseURL = DefaultAnthropicBaseURL
	}
	return &Anthropic{
		httpClient: httpClient,
		baseURL:    baseURL,
	}
}

// Complete sends a non-streaming request and returns the full response.
func (provider *Anthropic) Complete(ctx context.Context, request Request) (*Response, error) {
	wireRequest := provider.buildRequest(request)

	httpResponse, err := doProviderRequest(ctx, provider.httpClient,
		provider.endpoint(), wireRequest, "llm/anthropic",
		map[string]string{"anthropic-version": anthropicVersion})
	if err != nil {
		return nil, err
	}

	return decodeResponse[anthropicResponse](httpResponse, "llm/anthropic")
}

func (provider *Anthropic) endpoint() string {
	return joinEndpoint(provider.baseURL, "/v1/messages")
}

// buildRequest converts our types to Anthropic wire format.
func (provider *Anthropic) buildRequest(request Request) anthropicRequest {
	wireRequest := anthropicRequest{
		Model:         request.Model,
		MaxTokens:     request.MaxTokens,
		System:        request.System,
		Temperature:   request.Temperature,
		StopSequences: request.StopSequences,
	}
	for _, message := range request.Messages {
		wire := anthropicMessage{Role: string(message.Role)}
		for _, block := range message.Content {
			wire.Content = append(wire.Content, anthropicContentBlock{
				Type: string(block.Type),
				Text: block.Text,
			})
		}
		wireRequest.Messages = append(wireRequest.Messages, wire)
	}
	return wireRequest
}

// --- Anthropic wire types ---
//
// These map directly to the Anthropic Messages API JSON format.

type anthropicRequest struct {
	Model         string             `json:"model"`
	MaxTokens     int                `json:"max_tokens"`
	System        string             `json:"system,omitempty"`
	Messages      []anthropicMessage `json:"messages"`
	Temperature   *float64           `json:"temperature,omitempty"`
	StopSequences []string           `json:"stop_sequences,omitempty"`
}

type anthropicMessage struct {
	Role    string                  `json:"role"`
	Content []anthropicContentBlock `json:"content"`
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type anthropicResponse struct {
	ID         string                  `json:"id"`
	Type       string                  `json:"type"`
	Role       string                  `json:"role"`
	Content    []anthropicContentBlock `json:"content"`
	Model      string                  `json:"model"`
	StopReason string                  `json:"stop_reason"`
	Usage      anthropicUsage          `json:"usage"`
}

type anthropicUsage struct {
	InputTokens              int64 `json:"input_tokens"`
	OutputTokens             int64 `json:"output_tokens"`
	CacheCreationInputTokens int64 `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int64 `json:"cache_read_input_tokens"`
}

func (wireResponse *anthropicResponse) toResponse() (*Response, error) {
	response := &Response{
		StopReason: mapAnthropicStopReason(wireResponse.StopReason),
		Model:      wireResponse.Model,
		Usage: Usage{
			InputTokens:      wireResponse.Usage.InputTokens,
			OutputTokens:     wireResponse.Usage.OutputTokens,
			CacheReadTokens:  wireResponse.Usage.CacheReadInputTokens,
			CacheWriteTokens: wireResponse.Usage.CacheCreationInputTokens,
		},
	}
	for _, wireBlock := range wireResponse.Content {
		if wireBlock.Type == "text" {
			response.Content = append(response.Content, TextBlock(wireBlock.Text))
			continue
		}
		// Non-text blocks (thinking, tool use) carry no summary text.
		response.Content = append(response.Content, ContentBlock{Type: ContentType(wireBlock.Type)})
	}
	if len(response.Content) == 0 {
		return nil, fmt.Errorf("response has no content blocks (stop reason %q)", wireResponse.StopReason)
	}
	return response, nil
}

func mapAnthropicStopReason(reason string) StopReason {
	switch reason {
	case "end_turn":
		return StopReasonEndTurn
	case "max_tokens":
		return StopReasonMaxTokens
	case "stop_sequence":
		return StopReasonStopSequence
	default:
		return StopReason(reason)
	}
}
