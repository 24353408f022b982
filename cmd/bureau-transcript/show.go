// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/transcript/lib/transcript"
	"github.com/bureau-foundation/transcript/lib/transcriptstore"
	"github.com/bureau-foundation/transcript/lib/transcriptui"
)

func (a *app) showCommand() *Command {
	var (
		width      int
		full       bool
		outputJSON bool
	)
	return &Command{
		Name:    "show",
		Summary: "List transcripts, or show the messages of one",
		Description: `List stored transcripts, or show the messages of one.

Without an argument, every transcript is listed with its message and
token counts, most recently updated first. With a transcript id, each
message is shown on one line: its index, role, any action it carries,
its token cost, and a preview of its text. --full renders the complete
text of every message instead.`,
		Usage: "bureau-transcript show [<transcript-id>] [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := a.newFlagSet("show")
			flagSet.IntVarP(&width, "width", "w", 0, "output width (default: terminal width)")
			flagSet.BoolVar(&full, "full", false, "show complete message text")
			flagSet.BoolVar(&outputJSON, "json", false, "output as JSON")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 1 {
				return usagef("show takes at most one transcript id")
			}

			session, err := a.open()
			if err != nil {
				return err
			}
			defer session.Close()

			if len(args) == 0 {
				summaries, err := session.store.ListTranscripts(a.ctx)
				if err != nil {
					return err
				}
				if outputJSON {
					return writeJSON(a.stdout, summaries)
				}
				a.printSummaries(summaries)
				return nil
			}

			summary, err := session.store.Transcript(a.ctx, args[0])
			if err != nil {
				return err
			}
			messages, err := session.store.LoadTranscript(a.ctx, args[0])
			if err != nil {
				return err
			}
			if outputJSON {
				return writeJSON(a.stdout, struct {
					transcriptstore.Summary
					Messages []transcript.Message `json:"messages"`
				}{summary, messages})
			}
			a.printTranscript(a.renderer(width), summary, messages, full)
			return nil
		},
	}
}

func (a *app) printSummaries(summaries []transcriptstore.Summary) {
	if len(summaries) == 0 {
		fmt.Fprintln(a.stdout, "No transcripts stored.")
		return
	}
	writer := tabwriter.NewWriter(a.stdout, 2, 0, 3, ' ', 0)
	fmt.Fprintln(writer, "ID\tTITLE\tMESSAGES\tTOKENS\tUPDATED")
	for _, summary := range summaries {
		fmt.Fprintf(writer, "%s\t%s\t%d\t%s\t%s\n",
			summary.ID,
			summary.Title,
			summary.MessageCount,
			transcriptui.FormatTokens(summary.TokenCount),
			summary.UpdatedAt.Local().Format(time.DateTime),
		)
	}
	writer.Flush()
}

func (a *app) printTranscript(renderer *transcriptui.Renderer, summary transcriptstore.Summary, messages []transcript.Message, full bool) {
	title := summary.ID
	if summary.Title != "" {
		title = summary.Title + " " + renderer.Faint("("+summary.ID+")")
	}
	fmt.Fprintln(a.stdout, renderer.Heading(title))
	fmt.Fprintln(a.stdout, renderer.Faint(fmt.Sprintf("%d messages, %s tokens, updated %s",
		summary.MessageCount,
		transcriptui.FormatTokens(summary.TokenCount),
		summary.UpdatedAt.Local().Format(time.DateTime))))
	fmt.Fprintln(a.stdout)

	if !full {
		for index, message := range messages {
			fmt.Fprintln(a.stdout, renderer.MessageLine(index, message))
		}
		return
	}
	for index, message := range messages {
		fmt.Fprintln(a.stdout, renderer.MessageLine(index, message))
		fmt.Fprintln(a.stdout, renderer.Markdown(message.PlainText()))
		fmt.Fprintln(a.stdout, renderer.Rule())
	}
}
