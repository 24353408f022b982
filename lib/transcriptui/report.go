// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transcriptui

import (
	"fmt"
	"strings"

	"github.com/bureau-foundation/transcript/lib/truncate"
)

// TruncationReport renders the outcome of a truncation: message and
// token counts before and after, how the summary was produced, the
// backup taken, and the summary itself.
func (renderer *Renderer) TruncationReport(result *truncate.Result) string {
	var builder strings.Builder
	field := func(label, value string) {
		fmt.Fprintf(&builder, "%s %s\n", renderer.Faint(fmt.Sprintf("%-10s", label)), value)
	}

	if result.Truncated {
		builder.WriteString(renderer.Heading("Transcript truncated") + "\n\n")
		field("messages", fmt.Sprintf("%d → %d kept, %d removed",
			result.OriginalMessageCount, result.KeptMessageCount, result.RemovedMessageCount))
		field("tokens", fmt.Sprintf("%s → %s (budget %s)",
			FormatTokens(result.OriginalTokenCount), FormatTokens(result.NewTokenCount),
			FormatTokens(int64(result.MaxTokensToKeep))))
		field("discarded", fmt.Sprintf("messages [%d, %d)",
			result.Metadata.MessageRange.Start, result.Metadata.MessageRange.End))
	} else {
		builder.WriteString(renderer.Heading("Transcript within budget, summarized in place") + "\n\n")
		field("messages", fmt.Sprintf("%d", result.OriginalMessageCount))
		field("tokens", fmt.Sprintf("%s (budget %s)",
			FormatTokens(result.OriginalTokenCount), FormatTokens(int64(result.MaxTokensToKeep))))
	}

	summary := fmt.Sprintf("%s, %s tokens, model %s",
		result.SummaryLength, FormatTokens(result.Metadata.SummaryTokenCount), result.Metadata.Model)
	if result.Metadata.FallbackUsed {
		summary += " " + renderer.Accent("(fallback)")
	}
	field("summary", summary)
	field("source", string(result.RequestSource))

	if result.Backup != nil {
		hash := result.Backup.Hash
		if len(hash) > 16 {
			hash = hash[:16]
		}
		field("backup", result.Backup.ID+" "+renderer.Faint("blake3:"+hash))
	}

	builder.WriteString("\n" + renderer.Rule() + "\n")
	builder.WriteString(renderer.Markdown(result.Summary))
	builder.WriteString("\n")
	return builder.String()
}
