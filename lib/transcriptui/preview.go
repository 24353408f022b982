// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transcriptui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"github.com/bureau-foundation/transcript/lib/transcript"
)

// roleColumnWidth fits the longest role name.
const roleColumnWidth = len("assistant")

// MessageLine renders a one-line preview of a message: its index, its
// role, an action marker when it carries a request or result, its
// token cost for assistant messages, and as much of its text as fits
// the renderer width.
func (renderer *Renderer) MessageLine(index int, message transcript.Message) string {
	theme := renderer.theme

	var builder strings.Builder
	builder.WriteString(renderer.Faint(fmt.Sprintf("%4d", index)))
	builder.WriteString("  ")
	role := fmt.Sprintf("%-*s", roleColumnWidth, message.Role)
	builder.WriteString(renderer.newStyle().Foreground(theme.RoleColor(message.Role)).Render(role))
	builder.WriteString("  ")

	if request := message.FirstRequest(); request != nil {
		name := request.Name
		if name == "" {
			name = request.ID
		}
		builder.WriteString(renderer.newStyle().Foreground(theme.ActionRequest).Render("→ " + name))
		builder.WriteString("  ")
	}
	if result := message.FirstResult(); result != nil {
		if result.IsError {
			builder.WriteString(renderer.newStyle().Foreground(theme.ActionError).Render("← error"))
		} else {
			builder.WriteString(renderer.newStyle().Foreground(theme.ActionResult).Render("← result"))
		}
		builder.WriteString("  ")
	}
	if message.Role == transcript.RoleAssistant {
		builder.WriteString(renderer.Faint(FormatTokens(transcript.MessageTokens(message)) + " tok"))
		builder.WriteString("  ")
	}

	prefix := builder.String()
	remaining := renderer.width - ansi.StringWidth(prefix)
	if remaining <= 1 {
		return ansi.Truncate(prefix, renderer.width, "…")
	}
	preview := ansi.Truncate(flatten(messageText(message)), remaining, "…")
	return prefix + renderer.newStyle().Foreground(theme.NormalText).Render(preview)
}

// messageText is the prose of a message, or its full plain rendering
// when it has no text parts.
func messageText(message transcript.Message) string {
	var texts []string
	for _, part := range message.Parts {
		if part.Type == transcript.PartText && part.Text != "" {
			texts = append(texts, part.Text)
		}
	}
	if len(texts) == 0 {
		return message.PlainText()
	}
	return strings.Join(texts, " ")
}

// flatten collapses all whitespace runs, newlines included, into
// single spaces.
func flatten(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// FormatTokens formats a token count with thousands separators.
func FormatTokens(count int64) string {
	return humanize.Comma(count)
}

// FormatSize formats a byte count in IEC units.
func FormatSize(size int64) string {
	if size < 0 {
		size = 0
	}
	return humanize.IBytes(uint64(size))
}
