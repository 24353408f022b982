// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package llm provides a provider-agnostic interface for the Large
// Language Model APIs used to write transcript summaries.
//
// The primary abstraction is [Provider], a blocking single-shot
// completion. Provider implementations translate between the common
// types in this package and each vendor's wire format.
//
// The HTTP providers ([Anthropic], [OpenAI]) send every request through
// a caller-supplied [http.Client]. Credentials are the transport's
// concern: the CLI wraps the client with a round tripper that adds the
// configured API key header, and tests point the client at an
// [httptest.Server]. These providers never handle API keys, TLS
// configuration, or connection management themselves.
//
// The SDK providers ([AnthropicSDK], [Gemini]) wrap the vendors'
// official Go clients and take an API key directly. [AnthropicSDK]
// disables the SDK's retry loop; retry and fallback policy belongs to
// the caller.
//
// Current provider implementations:
//   - [Anthropic]: Claude models via the Messages API (/v1/messages)
//   - [OpenAI]: any OpenAI-compatible Chat Completions API
//   - [AnthropicSDK]: Claude models via github.com/anthropics/anthropic-sdk-go
//   - [Gemini]: Gemini models via google.golang.org/genai
package llm
