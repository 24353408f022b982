// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transcriptui

import (
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// DefaultWidth is the output width used when the caller passes zero.
const DefaultWidth = 100

// Renderer styles transcript output. It holds no per-call state and is
// safe for concurrent use.
type Renderer struct {
	theme Theme
	width int
	color bool

	lipRenderer *lipgloss.Renderer
}

// NewRenderer returns a Renderer that writes lines of at most width
// visible columns. When color is false every style renders as plain
// text. The lipgloss color profile is set explicitly rather than
// detected from output, so the result depends only on the arguments.
func NewRenderer(output io.Writer, theme Theme, width int, color bool) *Renderer {
	if width <= 0 {
		width = DefaultWidth
	}
	profile := termenv.Ascii
	if color {
		profile = termenv.ANSI256
	}
	lipRenderer := lipgloss.NewRenderer(output, termenv.WithProfile(profile))
	lipRenderer.SetColorProfile(profile)
	return &Renderer{
		theme:       theme,
		width:       width,
		color:       color,
		lipRenderer: lipRenderer,
	}
}

// Width returns the configured output width.
func (renderer *Renderer) Width() int {
	return renderer.width
}

func (renderer *Renderer) newStyle() lipgloss.Style {
	return renderer.lipRenderer.NewStyle()
}

// Heading renders a bold section title.
func (renderer *Renderer) Heading(text string) string {
	return renderer.newStyle().Bold(true).Foreground(renderer.theme.HeaderForeground).Render(text)
}

// Faint renders secondary text such as ids and timestamps.
func (renderer *Renderer) Faint(text string) string {
	return renderer.newStyle().Foreground(renderer.theme.FaintText).Render(text)
}

// Accent renders text that should stand out from the surrounding
// report, such as a warning.
func (renderer *Renderer) Accent(text string) string {
	return renderer.newStyle().Bold(true).Foreground(renderer.theme.Accent).Render(text)
}

// Rule renders a horizontal separator spanning the output width.
func (renderer *Renderer) Rule() string {
	return renderer.newStyle().Foreground(renderer.theme.BorderColor).Render(strings.Repeat("─", renderer.width))
}

// Highlight syntax-highlights code with Chroma. Without color, or when
// the language is empty or unknown to Chroma, the code is returned
// unchanged.
func (renderer *Renderer) Highlight(code, language string) string {
	if !renderer.color || language == "" {
		return code
	}
	var buffer strings.Builder
	if err := quick.Highlight(&buffer, code, language, "terminal256", "monokai"); err != nil {
		return code
	}
	return buffer.String()
}
