// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicSDKConfig configures an [AnthropicSDK] provider.
type AnthropicSDKConfig struct {
	// APIKey authenticates requests. When empty the SDK falls back to
	// the ANTHROPIC_API_KEY environment variable.
	APIKey string

	// BaseURL overrides the API endpoint. Empty means the SDK default.
	BaseURL string

	// HTTPClient overrides the SDK's HTTP client. Nil means the SDK
	// default.
	HTTPClient *http.Client
}

// AnthropicSDK implements [Provider] with the official Anthropic Go
// SDK. It produces the same [Response] as [Anthropic].
type AnthropicSDK struct {
	client anthropic.Client
}

// NewAnthropicSDK creates an SDK-backed Anthropic provider with SDK
// retries disabled.
func NewAnthropicSDK(config AnthropicSDKConfig) *AnthropicSDK {
	options := []option.RequestOption{option.WithMaxRetries(0)}
	if config.APIKey != "" {
		options = append(options, option.WithAPIKey(config.APIKey))
	}
	if config.BaseURL != "" {
		options = append(options, option.WithBaseURL(config.BaseURL))
	}
	if config.HTTPClient != nil {
		options = append(options, option.WithHTTPClient(config.HTTPClient))
	}
	return &AnthropicSDK{client: anthropic.NewClient(options...)}
}

// Complete sends the request through the SDK's Messages.New call.
// API errors are returned as *ProviderError.
func (provider *AnthropicSDK) Complete(ctx context.Context, request Request) (*Response, error) {
	message, err := provider.client.Messages.New(ctx, buildAnthropicSDKParams(request))
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return nil, &ProviderError{StatusCode: apiErr.StatusCode, Message: apiErr.Error()}
		}
		return nil, fmt.Errorf("llm/anthropic-sdk: %w", err)
	}
	response, err := fromAnthropicSDKMessage(message)
	if err != nil {
		return nil, fmt.Errorf("llm/anthropic-sdk: %w", err)
	}
	return response, nil
}

func buildAnthropicSDKParams(request Request) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:         anthropic.Model(request.Model),
		MaxTokens:     int64(request.MaxTokens),
		StopSequences: request.StopSequences,
	}
	if request.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: request.System}}
	}
	if request.Temperature != nil {
		params.Temperature = anthropic.Float(*request.Temperature)
	}
	for _, message := range request.Messages {
		var blocks []anthropic.ContentBlockParamUnion
		for _, block := range message.Content {
			if block.Type == ContentText {
				blocks = append(blocks, anthropic.NewTextBlock(block.Text))
			}
		}
		if message.Role == RoleAssistant {
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(blocks...))
		} else {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(blocks...))
		}
	}
	return params
}

func fromAnthropicSDKMessage(message *anthropic.Message) (*Response, error) {
	response := &Response{
		StopReason: mapAnthropicStopReason(string(message.StopReason)),
		Model:      string(message.Model),
		Usage: Usage{
			InputTokens:      message.Usage.InputTokens,
			OutputTokens:     message.Usage.OutputTokens,
			CacheReadTokens:  message.Usage.CacheReadInputTokens,
			CacheWriteTokens: message.Usage.CacheCreationInputTokens,
		},
	}
	for _, block := range message.Content {
		if block.Type == "text" {
			response.Content = append(response.Content, TextBlock(block.Text))
			continue
		}
		response.Content = append(response.Content, ContentBlock{Type: ContentType(block.Type)})
	}
	if len(response.Content) == 0 {
		return nil, fmt.Errorf("response has no content blocks (stop reason %q)", message.StopReason)
	}
	return response, nil
}
