// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package transcriptui renders transcripts, summaries, and truncation
// reports for a terminal.
//
// A [Renderer] binds a [Theme] to an output width and a color mode.
// With color enabled it emits ANSI 256-color sequences through
// lipgloss and highlights code with Chroma; with color disabled every
// method produces plain text with the same layout, which is what
// bureau-transcript writes when stdout is a pipe.
//
// Summaries are markdown: [Renderer.Markdown] parses them with
// goldmark and walks the AST directly, reflowing paragraphs to the
// configured width and keeping list and code structure intact.
package transcriptui
