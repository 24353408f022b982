// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// anthropicTestServer creates a test HTTP server and returns an
// Anthropic provider connected to it.
func anthropicTestServer(t *testing.T, handler http.Handler) *Anthropic {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewAnthropic(server.Client(), server.URL+"/")
}

func TestAnthropicComplete(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/messages", func(writer http.ResponseWriter, request *http.Request) {
		if version := request.Header.Get("anthropic-version"); version != anthropicVersion {
			t.Errorf("anthropic-version = %q, want %q", version, anthropicVersion)
		}

		var wireRequest struct {
			Model       string   `json:"model"`
			MaxTokens   int      `json:"max_tokens"`
			System      string   `json:"system"`
			Temperature *float64 `json:"temperature"`
			Messages    []struct {
				Role    string `json:"role"`
				Content []struct {
					Type string `json:"type"`
					Text string `json:"text"`
				} `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(request.Body).Decode(&wireRequest); err != nil {
			writer.WriteHeader(http.StatusBadRequest)
			return
		}

		if wireRequest.Model != "claude-haiku-4-5" {
			t.Errorf("model = %q, want claude-haiku-4-5", wireRequest.Model)
		}
		if wireRequest.MaxTokens != 2048 {
			t.Errorf("max_tokens = %d, want 2048", wireRequest.MaxTokens)
		}
		if wireRequest.System != "You summarise conversations." {
			t.Errorf("system = %q", wireRequest.System)
		}
		if wireRequest.Temperature == nil || *wireRequest.Temperature != 0.2 {
			t.Errorf("temperature = %v, want 0.2", wireRequest.Temperature)
		}
		if length := len(wireRequest.Messages); length != 1 {
			t.Fatalf("messages length = %d, want 1", length)
		}
		message := wireRequest.Messages[0]
		if message.Role != "user" || len(message.Content) != 1 || message.Content[0].Text != "Summarise this." {
			t.Errorf("message = %+v", message)
		}

		writer.Header().Set("Content-Type", "application/json")
		json.NewEncoder(writer).Encode(map[string]any{
			"id":   "msg_test",
			"type": "message",
			"role": "assistant",
			"content": []map[string]any{
				{"type": "text", "text": "## Removed Conversation Context"},
			},
			"model":       "claude-haiku-4-5-20251001",
			"stop_reason": "end_turn",
			"usage": map[string]any{
				"input_tokens":                1200,
				"output_tokens":               150,
				"cache_read_input_tokens":     40,
				"cache_creation_input_tokens": 0,
			},
		})
	})

	provider := anthropicTestServer(t, mux)

	temperature := 0.2
	response, err := provider.Complete(context.Background(), Request{
		Model:       "claude-haiku-4-5",
		System:      "You summarise conversations.",
		MaxTokens:   2048,
		Temperature: &temperature,
		Messages:    []Message{UserMessage("Summarise this.")},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if response.StopReason != StopReasonEndTurn {
		t.Errorf("StopReason = %q, want end_turn", response.StopReason)
	}
	if response.Model != "claude-haiku-4-5-20251001" {
		t.Errorf("Model = %q, want claude-haiku-4-5-20251001", response.Model)
	}
	if response.Usage.InputTokens != 1200 {
		t.Errorf("InputTokens = %d, want 1200", response.Usage.InputTokens)
	}
	if response.Usage.OutputTokens != 150 {
		t.Errorf("OutputTokens = %d, want 150", response.Usage.OutputTokens)
	}
	if response.Usage.CacheReadTokens != 40 {
		t.Errorf("CacheReadTokens = %d, want 40", response.Usage.CacheReadTokens)
	}
	if text := response.TextContent(); text != "## Removed Conversation Context" {
		t.Errorf("TextContent() = %q", text)
	}
}

func TestAnthropicCompleteSkipsNonTextBlocks(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/messages", func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		json.NewEncoder(writer).Encode(map[string]any{
			"content": []map[string]any{
				{"type": "thinking", "thinking": "considering"},
				{"type": "text", "text": "first "},
				{"type": "text", "text": "second"},
			},
			"model":       "claude-haiku-4-5",
			"stop_reason": "max_tokens",
		})
	})

	response, err := anthropicTestServer(t, mux).Complete(context.Background(), Request{
		Model:    "claude-haiku-4-5",
		Messages: []Message{UserMessage("Hello")},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if len(response.Content) != 3 {
		t.Fatalf("Content length = %d, want 3", len(response.Content))
	}
	if response.Content[0].Type != "thinking" {
		t.Errorf("Content[0].Type = %q, want thinking", response.Content[0].Type)
	}
	if text := response.TextContent(); text != "first second" {
		t.Errorf("TextContent() = %q, want %q", text, "first second")
	}
	if response.StopReason != StopReasonMaxTokens {
		t.Errorf("StopReason = %q, want max_tokens", response.StopReason)
	}
}

func TestAnthropicCompleteEmptyContent(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/messages", func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		writer.Write([]byte(`{"content":[],"stop_reason":"refusal"}`))
	})

	_, err := anthropicTestServer(t, mux).Complete(context.Background(), Request{
		Messages: []Message{UserMessage("Hello")},
	})
	if err == nil {
		t.Fatal("expected error for a response with no content")
	}
}

func TestAnthropicCompleteError(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/messages", func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		writer.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(writer).Encode(map[string]any{
			"error": map[string]string{
				"type":    "rate_limit_error",
				"message": "Rate limit exceeded",
			},
		})
	})

	provider := anthropicTestServer(t, mux)

	_, err := provider.Complete(context.Background(), Request{
		Model:     "claude-haiku-4-5",
		MaxTokens: 1024,
		Messages:  []Message{UserMessage("Hello")},
	})
	if err == nil {
		t.Fatal("expected error for 429 response")
	}

	var providerErr *ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("error type = %T, want *ProviderError", err)
	}
	if providerErr.StatusCode != 429 {
		t.Errorf("StatusCode = %d, want 429", providerErr.StatusCode)
	}
	if providerErr.Type != "rate_limit_error" {
		t.Errorf("Type = %q, want rate_limit_error", providerErr.Type)
	}
	if !providerErr.IsRateLimited() {
		t.Error("IsRateLimited should be true")
	}
}

func TestAnthropicCompleteUnstructuredError(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/messages", func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(529)
		writer.Write([]byte("upstream overloaded"))
	})

	_, err := anthropicTestServer(t, mux).Complete(context.Background(), Request{
		Messages: []Message{UserMessage("Hello")},
	})
	var providerErr *ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("error type = %T, want *ProviderError", err)
	}
	if !providerErr.IsOverloaded() {
		t.Errorf("IsOverloaded() = false for status %d", providerErr.StatusCode)
	}
	if providerErr.Message != "upstream overloaded" {
		t.Errorf("Message = %q, want the raw body", providerErr.Message)
	}
}

func TestNewAnthropicDefaultBaseURL(t *testing.T) {
	t.Parallel()

	provider := NewAnthropic(http.DefaultClient, "")
	if endpoint := provider.endpoint(); endpoint != "https://api.anthropic.com/v1/messages" {
		t.Errorf("endpoint() = %q", endpoint)
	}
}
