// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transcriptui

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// The goldmark parser is safe to share; Parse creates per-call state.
var (
	markdownParserInstance goldmark.Markdown
	markdownParserOnce     sync.Once
)

func getMarkdownParser() goldmark.Markdown {
	markdownParserOnce.Do(func() {
		markdownParserInstance = goldmark.New(
			goldmark.WithExtensions(
				extension.Strikethrough,
				extension.TaskList,
			),
		)
	})
	return markdownParserInstance
}

// Markdown renders a summary (or any markdown text) for the terminal.
// Soft line breaks become spaces so the text reflows to the renderer's
// width. Headings, lists, block quotes, and code blocks keep their
// structure; fenced code with a language tag is highlighted.
func (renderer *Renderer) Markdown(input string) string {
	if input == "" {
		return ""
	}
	source := []byte(input)
	document := getMarkdownParser().Parser().Parse(text.NewReader(source))

	walker := &markdownWalker{
		renderer: renderer,
		source:   source,
	}
	ast.Walk(document, walker.walk)

	return strings.TrimRight(walker.output.String(), "\n")
}

// markdownWalker holds the state of one Markdown call. Inline content
// accumulates in a buffer and is word-wrapped as a unit when its block
// closes, which is why this walks the AST directly instead of using
// goldmark's streaming renderer interface.
type markdownWalker struct {
	renderer *Renderer
	source   []byte

	output strings.Builder
	inline strings.Builder

	// Prefix stack for nested block quotes and list items.
	prefixStack     []prefixLevel
	linePrefix      string
	linePrefixWidth int

	// pendingBullet replaces linePrefix for the next emitted line.
	pendingBullet string

	boldCount          int
	italicCount        int
	strikethroughCount int

	listStack []listState

	trailingNewlines int
}

type prefixLevel struct {
	text  string
	width int
}

type listState struct {
	ordered bool
	counter int
	tight   bool
}

func (walker *markdownWalker) style() lipgloss.Style {
	return walker.renderer.newStyle()
}

// currentWidth is the content width left after nesting prefixes,
// clamped to at least 10 columns.
func (walker *markdownWalker) currentWidth() int {
	return max(walker.renderer.width-walker.linePrefixWidth, 10)
}

func (walker *markdownWalker) pushPrefix(prefixText string, visibleWidth int) {
	walker.prefixStack = append(walker.prefixStack, prefixLevel{text: prefixText, width: visibleWidth})
	walker.linePrefix += prefixText
	walker.linePrefixWidth += visibleWidth
}

func (walker *markdownWalker) popPrefix() {
	if len(walker.prefixStack) == 0 {
		return
	}
	top := walker.prefixStack[len(walker.prefixStack)-1]
	walker.prefixStack = walker.prefixStack[:len(walker.prefixStack)-1]
	walker.linePrefix = walker.linePrefix[:len(walker.linePrefix)-len(top.text)]
	walker.linePrefixWidth -= top.width
}

func (walker *markdownWalker) inTightList() bool {
	if len(walker.listStack) == 0 {
		return false
	}
	return walker.listStack[len(walker.listStack)-1].tight
}

// writeOutput appends to the output and tracks how many newlines it
// currently ends with.
func (walker *markdownWalker) writeOutput(s string) {
	if s == "" {
		return
	}
	walker.output.WriteString(s)

	trailing := len(s) - len(strings.TrimRight(s, "\n"))
	if trailing == len(s) {
		walker.trailingNewlines += trailing
	} else {
		walker.trailingNewlines = trailing
	}
}

func (walker *markdownWalker) ensureNewline() {
	if walker.trailingNewlines < 1 {
		walker.writeOutput("\n")
	}
}

// ensureBlankLine separates blocks. At the very start of the output
// there is nothing to separate from.
func (walker *markdownWalker) ensureBlankLine() {
	if walker.output.Len() == 0 {
		return
	}
	for walker.trailingNewlines < 2 {
		walker.writeOutput("\n")
	}
}

func (walker *markdownWalker) consumeLinePrefix() string {
	if walker.pendingBullet != "" {
		bullet := walker.pendingBullet
		walker.pendingBullet = ""
		return bullet
	}
	return walker.linePrefix
}

// applyPrefixes prefixes each line of content: the first with the
// pending bullet if one is set, the rest with the regular prefix.
func (walker *markdownWalker) applyPrefixes(content string) string {
	lines := strings.Split(content, "\n")
	var result strings.Builder
	for index, line := range lines {
		if index == 0 {
			result.WriteString(walker.consumeLinePrefix())
		} else {
			result.WriteString(walker.linePrefix)
		}
		result.WriteString(line)
		if index < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

func (walker *markdownWalker) flushInline() string {
	content := walker.inline.String()
	walker.inline.Reset()
	if content == "" {
		return ""
	}
	content = ansi.Wrap(content, walker.currentWidth(), " ,.;-+|")
	return walker.applyPrefixes(content)
}

func (walker *markdownWalker) styledText(content string) string {
	style := walker.style().Foreground(walker.renderer.theme.NormalText)
	if walker.boldCount > 0 {
		style = style.Bold(true)
	}
	if walker.italicCount > 0 {
		style = style.Italic(true)
	}
	if walker.strikethroughCount > 0 {
		style = style.Strikethrough(true)
	}
	return style.Render(content)
}

func (walker *markdownWalker) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node.Kind() {
	case ast.KindParagraph, ast.KindTextBlock:
		if entering {
			walker.inline.Reset()
		} else if flushed := walker.flushInline(); flushed != "" {
			walker.writeOutput(flushed)
			walker.ensureNewline()
			if !walker.inTightList() {
				walker.ensureBlankLine()
			}
		}

	case ast.KindHeading:
		if entering {
			walker.inline.Reset()
		} else {
			walker.leaveHeading(node.(*ast.Heading))
		}

	case ast.KindFencedCodeBlock:
		if entering {
			block := node.(*ast.FencedCodeBlock)
			walker.renderCode(walker.blockLines(block), string(block.Language(walker.source)))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindCodeBlock, ast.KindHTMLBlock:
		if entering {
			walker.renderCode(walker.blockLines(node), "")
			return ast.WalkSkipChildren, nil
		}

	case ast.KindBlockquote:
		if entering {
			walker.pushPrefix("│ ", 2)
		} else {
			walker.popPrefix()
			walker.ensureBlankLine()
		}

	case ast.KindList:
		if entering {
			list := node.(*ast.List)
			walker.listStack = append(walker.listStack, listState{
				ordered: list.IsOrdered(),
				counter: list.Start,
				tight:   list.IsTight,
			})
		} else {
			walker.listStack = walker.listStack[:len(walker.listStack)-1]
			if !walker.inTightList() {
				walker.ensureBlankLine()
			}
		}

	case ast.KindListItem:
		if entering {
			walker.enterListItem()
		} else {
			walker.popPrefix()
			if walker.inTightList() {
				walker.ensureNewline()
			} else {
				walker.ensureBlankLine()
			}
		}

	case ast.KindThematicBreak:
		if entering {
			rule := walker.style().Foreground(walker.renderer.theme.BorderColor).
				Render(strings.Repeat("─", walker.currentWidth()))
			walker.ensureBlankLine()
			walker.writeOutput(walker.applyPrefixes(rule))
			walker.ensureNewline()
			walker.ensureBlankLine()
		}

	case ast.KindText:
		if entering {
			textNode := node.(*ast.Text)
			walker.inline.WriteString(walker.styledText(string(textNode.Segment.Value(walker.source))))
			if textNode.SoftLineBreak() {
				walker.inline.WriteString(" ")
			}
			if textNode.HardLineBreak() {
				walker.inline.WriteString("\n")
			}
		}

	case ast.KindString:
		if entering {
			walker.inline.WriteString(walker.styledText(string(node.(*ast.String).Value)))
		}

	case ast.KindEmphasis:
		counter := &walker.italicCount
		if node.(*ast.Emphasis).Level >= 2 {
			counter = &walker.boldCount
		}
		if entering {
			*counter++
		} else {
			*counter--
		}

	case ast.KindCodeSpan:
		if entering {
			var code strings.Builder
			for child := node.FirstChild(); child != nil; child = child.NextSibling() {
				switch inline := child.(type) {
				case *ast.Text:
					code.Write(inline.Segment.Value(walker.source))
				case *ast.String:
					code.Write(inline.Value)
				}
			}
			walker.inline.WriteString(walker.style().Foreground(walker.renderer.theme.ActionRequest).Render(code.String()))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindLink:
		if !entering {
			if destination := string(node.(*ast.Link).Destination); destination != "" {
				walker.inline.WriteString(" " + walker.renderer.Faint("("+destination+")"))
			}
		}

	case ast.KindAutoLink:
		if entering {
			walker.inline.WriteString(walker.renderer.Faint(string(node.(*ast.AutoLink).URL(walker.source))))
		}

	case ast.KindRawHTML:
		if entering {
			raw := node.(*ast.RawHTML)
			for index := 0; index < raw.Segments.Len(); index++ {
				segment := raw.Segments.At(index)
				walker.inline.WriteString(walker.renderer.Faint(string(segment.Value(walker.source))))
			}
		}

	case extast.KindStrikethrough:
		if entering {
			walker.strikethroughCount++
		} else {
			walker.strikethroughCount--
		}

	case extast.KindTaskCheckBox:
		if entering {
			if node.(*extast.TaskCheckBox).IsChecked {
				walker.inline.WriteString(walker.style().Foreground(walker.renderer.theme.UserRole).Render("[x]") + " ")
			} else {
				walker.inline.WriteString(walker.styledText("[ ] "))
			}
		}
	}

	return ast.WalkContinue, nil
}

func (walker *markdownWalker) leaveHeading(heading *ast.Heading) {
	// The heading style replaces the inline NormalText styling.
	content := ansi.Strip(walker.inline.String())
	walker.inline.Reset()
	if content == "" {
		return
	}

	style := walker.style().Bold(true)
	if heading.Level <= 2 {
		style = style.Foreground(walker.renderer.theme.HeaderForeground)
	} else {
		style = style.Foreground(walker.renderer.theme.NormalText)
	}

	wrapped := ansi.Wrap(style.Render(content), walker.currentWidth(), " ,.;-+|")
	walker.ensureBlankLine()
	walker.writeOutput(walker.applyPrefixes(wrapped))
	walker.ensureNewline()
	walker.ensureBlankLine()
}

// blockLines concatenates the raw source lines of a block node.
func (walker *markdownWalker) blockLines(node ast.Node) string {
	var code strings.Builder
	lines := node.Lines()
	for index := 0; index < lines.Len(); index++ {
		segment := lines.At(index)
		code.Write(segment.Value(walker.source))
	}
	return code.String()
}

// renderCode writes code lines without wrapping them. Code Chroma
// could not highlight is rendered faint, one line at a time so lipgloss
// does not pad short lines to the block width.
func (walker *markdownWalker) renderCode(code, language string) {
	styled := walker.renderer.Highlight(code, language)
	highlighted := styled != code
	walker.ensureBlankLine()
	for _, line := range strings.Split(strings.TrimRight(styled, "\n"), "\n") {
		if !highlighted {
			line = walker.renderer.Faint(line)
		}
		walker.writeOutput(walker.consumeLinePrefix() + line)
		walker.ensureNewline()
	}
	walker.ensureBlankLine()
}

func (walker *markdownWalker) enterListItem() {
	if len(walker.listStack) == 0 {
		return
	}
	top := &walker.listStack[len(walker.listStack)-1]

	bullet := "- "
	if top.ordered {
		bullet = fmt.Sprintf("%d. ", top.counter)
		top.counter++
	}

	// Bullets are ASCII, so byte length is the visible width.
	walker.pendingBullet = walker.linePrefix + bullet
	walker.pushPrefix(strings.Repeat(" ", len(bullet)), len(bullet))
}
