// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// GeminiConfig configures a [Gemini] provider.
type GeminiConfig struct {
	// APIKey authenticates against the Gemini API. Required.
	APIKey string

	// BaseURL overrides the API endpoint. Empty means the SDK default.
	BaseURL string

	// HTTPClient overrides the SDK's HTTP client. Nil means the SDK
	// default.
	HTTPClient *http.Client
}

// Gemini implements [Provider] for Google's Gemini models using the
// Google Gen AI SDK.
type Gemini struct {
	client *genai.Client
}

// NewGemini creates a Gemini provider on the Gemini API backend.
func NewGemini(ctx context.Context, config GeminiConfig) (*Gemini, error) {
	if config.APIKey == "" {
		return nil, errors.New("llm/gemini: APIKey is required")
	}
	clientConfig := &genai.ClientConfig{
		APIKey:     config.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: config.HTTPClient,
	}
	if config.BaseURL != "" {
		clientConfig.HTTPOptions.BaseURL = config.BaseURL
	}
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("llm/gemini: creating client: %w", err)
	}
	return &Gemini{client: client}, nil
}

// Complete sends the request through GenerateContent. API errors are
// returned as *ProviderError.
func (provider *Gemini) Complete(ctx context.Context, request Request) (*Response, error) {
	contents, config := buildGeminiRequest(request)

	result, err := provider.client.Models.GenerateContent(ctx, request.Model, contents, config)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return nil, &ProviderError{StatusCode: apiErr.Code, Type: apiErr.Status, Message: apiErr.Message}
		}
		return nil, fmt.Errorf("llm/gemini: %w", err)
	}

	response, err := fromGeminiResponse(result)
	if err != nil {
		return nil, fmt.Errorf("llm/gemini: %w", err)
	}
	if response.Model == "" {
		response.Model = request.Model
	}
	return response, nil
}

// buildGeminiRequest converts our types to genai contents. Assistant
// turns use the "model" role; the system prompt becomes the
// SystemInstruction.
func buildGeminiRequest(request Request) ([]*genai.Content, *genai.GenerateContentConfig) {
	contents := make([]*genai.Content, 0, len(request.Messages))
	for _, message := range request.Messages {
		role := string(genai.RoleUser)
		if message.Role == RoleAssistant {
			role = string(genai.RoleModel)
		}
		var parts []*genai.Part
		for _, block := range message.Content {
			if block.Type == ContentText {
				parts = append(parts, &genai.Part{Text: block.Text})
			}
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(request.MaxTokens),
		StopSequences:   request.StopSequences,
	}
	if request.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: request.System}},
		}
	}
	if request.Temperature != nil {
		temperature := float32(*request.Temperature)
		config.Temperature = &temperature
	}
	return contents, config
}

// fromGeminiResponse reads the first candidate. Thought parts are
// skipped.
func fromGeminiResponse(result *genai.GenerateContentResponse) (*Response, error) {
	if result == nil || len(result.Candidates) == 0 {
		return nil, errors.New("response has no candidates")
	}
	candidate := result.Candidates[0]

	var text strings.Builder
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			text.WriteString(part.Text)
		}
	}

	response := &Response{
		Content:    []ContentBlock{TextBlock(text.String())},
		StopReason: mapGeminiFinishReason(candidate.FinishReason),
		Model:      result.ModelVersion,
	}
	if usage := result.UsageMetadata; usage != nil {
		response.Usage.InputTokens = int64(usage.PromptTokenCount)
		response.Usage.OutputTokens = int64(usage.CandidatesTokenCount)
		response.Usage.CacheReadTokens = int64(usage.CachedContentTokenCount)
	}
	return response, nil
}

func mapGeminiFinishReason(reason genai.FinishReason) StopReason {
	switch reason {
	case genai.FinishReasonStop:
		return StopReasonEndTurn
	case genai.FinishReasonMaxTokens:
		return StopReasonMaxTokens
	default:
		return StopReason(strings.ToLower(string(reason)))
	}
}
