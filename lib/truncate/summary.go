// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package truncate

import (
	"context"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/bureau-foundation/transcript/lib/transcript"
)

// Summarizer is the generative collaborator that writes summaries. Its
// output is untrusted: the engine checks structure before using it.
// Implementations own any timeout, retry, or fallback policy; the
// engine calls Summarize exactly once per truncation.
type Summarizer interface {
	Summarize(ctx context.Context, request SummaryRequest) (*SummaryResponse, error)
}

// SummaryRequest is everything the summarizer needs to write a summary.
type SummaryRequest struct {
	// Kept is the slice that stays in the transcript, included so the
	// summary can focus on what is relevant to it.
	Kept []transcript.Message

	// Discarded is the content to summarise. Empty when the whole
	// transcript fits the budget and is summarised in place.
	Discarded []transcript.Message

	Length SummaryLength

	// Instruction is verbosity guidance for the tier.
	Instruction string

	// Header is the top-level header the summary must start with.
	Header string

	// RequiredSections lists the section headers the summary must
	// reproduce verbatim.
	RequiredSections []string
}

// SummaryResponse is the summarizer's answer.
type SummaryResponse struct {
	Text string

	// OutputTokens is the provider-reported cost of the summary. Zero
	// means unknown.
	OutputTokens int64

	// Model identifies the model that wrote the summary.
	Model string

	// FallbackUsed is set when the summarizer's primary backend failed
	// and a secondary one produced the text.
	FallbackUsed bool
}

// Summary is a validated summary ready for assembly.
type Summary struct {
	Text         string
	Tokens       int64
	Model        string
	FallbackUsed bool
}

// GenerateSummary asks summarizer for a summary of discarded, then
// checks that the text contains SummaryHeader and every section
// required for length. Collaborator failures and incomplete summaries
// are returned as *GenerationError. There is no retry.
//
// When the response reports no token count, estimator supplies one
// from the text; otherwise the reported count calibrates estimator.
func GenerateSummary(ctx context.Context, summarizer Summarizer, estimator *CharEstimator, kept, discarded []transcript.Message, length SummaryLength) (*Summary, error) {
	sections := RequiredSections(length)

	response, err := summarizer.Summarize(ctx, SummaryRequest{
		Kept:             kept,
		Discarded:        discarded,
		Length:           length,
		Instruction:      summaryInstruction(length),
		Header:           SummaryHeader,
		RequiredSections: sections,
	})
	if err != nil {
		return nil, &GenerationError{Cause: err}
	}
	if response == nil {
		return nil, &GenerationError{Missing: append([]string{SummaryHeader}, sections...)}
	}

	summaryText := strings.TrimSpace(response.Text)
	if missing := missingSections(summaryText, sections); len(missing) > 0 {
		return nil, &GenerationError{Missing: missing, Found: markdownHeadings(summaryText)}
	}

	tokens := response.OutputTokens
	if estimator != nil {
		if tokens > 0 {
			estimator.RecordUsage(summaryText, tokens)
		} else {
			tokens = estimator.EstimateTokens(summaryText)
		}
	}

	return &Summary{
		Text:         summaryText,
		Tokens:       tokens,
		Model:        response.Model,
		FallbackUsed: response.FallbackUsed,
	}, nil
}

// missingSections returns SummaryHeader and each required section that
// does not occur in summaryText, in required order. Matching is by
// substring; order within the summary does not matter.
func missingSections(summaryText string, sections []string) []string {
	var missing []string
	if !strings.Contains(summaryText, SummaryHeader) {
		missing = append(missing, SummaryHeader)
	}
	for _, section := range sections {
		if !strings.Contains(summaryText, section) {
			missing = append(missing, section)
		}
	}
	return missing
}

// markdownHeadings lists the ATX and setext headings of a markdown
// document, rendered back as "## Title" strings. Used to report what a
// rejected summary contained.
func markdownHeadings(markdown string) []string {
	source := []byte(markdown)
	document := goldmark.DefaultParser().Parse(text.NewReader(source))

	var headings []string
	_ = ast.Walk(document, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := node.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		var title strings.Builder
		lines := heading.Lines()
		for i := 0; i < lines.Len(); i++ {
			segment := lines.At(i)
			title.Write(segment.Value(source))
		}
		headings = append(headings, strings.Repeat("#", heading.Level)+" "+strings.TrimSpace(title.String()))
		return ast.WalkSkipChildren, nil
	})
	return headings
}
