// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package summarizer implements [truncate.Summarizer] on top of an
// [llm.Provider]. It renders the removed part of a transcript into a
// prompt that names the required summary sections, calls the primary
// provider, and falls back to a secondary provider when the primary
// fails.
//
// The engine validates the returned text. This package only produces
// it; it never inspects the sections itself.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bureau-foundation/transcript/lib/llm"
	"github.com/bureau-foundation/transcript/lib/transcript"
	"github.com/bureau-foundation/transcript/lib/truncate"
)

// DefaultMaxOutputTokens caps the summary length when the
// configuration does not.
const DefaultMaxOutputTokens = 4096

// Backend is one provider and the model to request from it.
type Backend struct {
	Provider llm.Provider
	Model    string
}

// Config configures a [Summarizer].
type Config struct {
	// Primary is tried first. Required.
	Primary Backend

	// Fallback is tried once when Primary fails. Optional.
	Fallback *Backend

	// MaxOutputTokens caps the summary length. Defaults to
	// DefaultMaxOutputTokens.
	MaxOutputTokens int

	// Temperature overrides the provider default when non-nil.
	Temperature *float64

	// Logger defaults to a discard logger.
	Logger *slog.Logger
}

// Summarizer writes transcript summaries with an LLM.
type Summarizer struct {
	primary         Backend
	fallback        *Backend
	maxOutputTokens int
	temperature     *float64
	logger          *slog.Logger
}

var _ truncate.Summarizer = (*Summarizer)(nil)

// New validates config and returns a Summarizer.
func New(config Config) (*Summarizer, error) {
	if config.Primary.Provider == nil {
		return nil, errors.New("summarizer: primary provider is required")
	}
	if config.Primary.Model == "" {
		return nil, errors.New("summarizer: primary model is required")
	}
	if config.Fallback != nil && (config.Fallback.Provider == nil || config.Fallback.Model == "") {
		return nil, errors.New("summarizer: fallback needs both a provider and a model")
	}
	summarizer := &Summarizer{
		primary:         config.Primary,
		fallback:        config.Fallback,
		maxOutputTokens: config.MaxOutputTokens,
		temperature:     config.Temperature,
		logger:          config.Logger,
	}
	if summarizer.maxOutputTokens <= 0 {
		summarizer.maxOutputTokens = DefaultMaxOutputTokens
	}
	if summarizer.logger == nil {
		summarizer.logger = slog.New(slog.DiscardHandler)
	}
	return summarizer, nil
}

// Summarize renders the request into a prompt and asks the primary
// backend for a summary. When the primary fails and a fallback is
// configured, the fallback is asked once and FallbackUsed is set on
// the response. Cancellation of ctx is never retried.
func (summarizer *Summarizer) Summarize(ctx context.Context, request truncate.SummaryRequest) (*truncate.SummaryResponse, error) {
	llmRequest := llm.Request{
		MaxTokens:   summarizer.maxOutputTokens,
		System:      systemPrompt(request),
		Messages:    []llm.Message{llm.UserMessage(renderConversation(request))},
		Temperature: summarizer.temperature,
	}

	response, err := summarizer.complete(ctx, summarizer.primary, llmRequest)
	if err == nil {
		return response, nil
	}
	if summarizer.fallback == nil || ctx.Err() != nil {
		return nil, err
	}

	summarizer.logger.Warn("primary summarizer failed, using fallback",
		"primary_model", summarizer.primary.Model,
		"fallback_model", summarizer.fallback.Model,
		"reason", failureReason(err),
		"error", err,
	)
	fallbackResponse, fallbackErr := summarizer.complete(ctx, *summarizer.fallback, llmRequest)
	if fallbackErr != nil {
		return nil, fmt.Errorf("summarizer: primary failed (%v), fallback failed: %w", err, fallbackErr)
	}
	fallbackResponse.FallbackUsed = true
	return fallbackResponse, nil
}

// complete runs one backend and converts its answer. An empty
// completion is an error so that the fallback gets a chance.
func (summarizer *Summarizer) complete(ctx context.Context, backend Backend, request llm.Request) (*truncate.SummaryResponse, error) {
	request.Model = backend.Model

	response, err := backend.Provider.Complete(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("summarizer: model %s: %w", backend.Model, err)
	}
	text := strings.TrimSpace(response.TextContent())
	if text == "" {
		return nil, fmt.Errorf("summarizer: model %s returned no text (stop reason %q)", backend.Model, response.StopReason)
	}
	if response.StopReason == llm.StopReasonMaxTokens {
		summarizer.logger.Warn("summary hit the output token limit",
			"model", backend.Model,
			"max_output_tokens", request.MaxTokens,
		)
	}

	model := response.Model
	if model == "" {
		model = backend.Model
	}
	return &truncate.SummaryResponse{
		Text:         text,
		OutputTokens: response.Usage.OutputTokens,
		Model:        model,
	}, nil
}

// failureReason classifies a backend failure for the fallback log.
func failureReason(err error) string {
	var providerErr *llm.ProviderError
	if !errors.As(err, &providerErr) {
		return "error"
	}
	switch {
	case providerErr.IsRateLimited():
		return "rate_limited"
	case providerErr.IsOverloaded():
		return "overloaded"
	case providerErr.StatusCode >= 500:
		return "server_error"
	default:
		return "rejected"
	}
}

// systemPrompt lists the exact headers the summary must contain.
func systemPrompt(request truncate.SummaryRequest) string {
	var builder strings.Builder
	builder.WriteString("You summarise the earlier part of a conversation between a user and an ")
	builder.WriteString("assistant that has been removed to save space. The summary replaces the ")
	builder.WriteString("removed messages, so it must carry everything needed to continue the work.\n\n")
	builder.WriteString(request.Instruction)
	builder.WriteString("\n\nFormat the summary as markdown. Start with this exact header line:\n\n")
	builder.WriteString(request.Header)
	builder.WriteString("\n\nThen include each of these section headers, exactly as written and in this order:\n\n")
	for _, section := range request.RequiredSections {
		builder.WriteString(section)
		builder.WriteByte('\n')
	}
	builder.WriteString("\nWrite \"None.\" under a section that has nothing to report. ")
	builder.WriteString("Do not quote large file contents or tool output; describe what they showed. ")
	builder.WriteString("Reply with the summary only.")
	return builder.String()
}

// renderConversation renders the discarded messages, followed by the
// kept messages as context. When nothing was discarded the kept
// messages are the content to summarise.
func renderConversation(request truncate.SummaryRequest) string {
	var builder strings.Builder
	if len(request.Discarded) == 0 {
		builder.WriteString("<conversation>\n")
		writeMessages(&builder, request.Kept)
		builder.WriteString("</conversation>\n\nSummarise the conversation above.")
		return builder.String()
	}

	builder.WriteString("<removed_conversation>\n")
	writeMessages(&builder, request.Discarded)
	builder.WriteString("</removed_conversation>\n")
	if len(request.Kept) > 0 {
		builder.WriteString("\n<remaining_conversation>\n")
		writeMessages(&builder, request.Kept)
		builder.WriteString("</remaining_conversation>\n")
	}
	builder.WriteString("\nSummarise the removed conversation. The remaining conversation is ")
	builder.WriteString("shown for context only; do not summarise it.")
	return builder.String()
}

func writeMessages(builder *strings.Builder, messages []transcript.Message) {
	for i := range messages {
		fmt.Fprintf(builder, "[%s]\n%s\n\n", messages[i].Role, messages[i].PlainText())
	}
}
