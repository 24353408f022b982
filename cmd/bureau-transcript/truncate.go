// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/transcript/lib/truncate"
)

func (a *app) truncateCommand() *Command {
	var (
		maxTokens  int
		length     string
		source     string
		dryRun     bool
		width      int
		outputJSON bool
	)
	return &Command{
		Name:    "truncate",
		Summary: "Summarize and truncate a transcript to a token budget",
		Description: `Summarize and truncate a transcript to a token budget.

The newest messages whose assistant token costs fit within --max-tokens
are kept. Everything before them is summarized by the configured LLM
and replaced with a summary message and an acknowledgement. The stored
transcript is backed up before it is overwritten, and the change is
recorded in the audit log.

A transcript that already fits the budget is summarized but left
unchanged. --dry-run runs the same pipeline without touching the
store.

Defaults for each flag come from the truncation section of the config.`,
		Usage: "bureau-transcript truncate <transcript-id> [flags]",
		Examples: []Example{
			{Description: "Keep roughly the last 32k assistant tokens", Command: "bureau-transcript truncate review-42 --max-tokens 32000"},
			{Description: "Preview a short summary without saving", Command: "bureau-transcript truncate review-42 --length short --dry-run"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := a.newFlagSet("truncate")
			flagSet.IntVar(&maxTokens, "max-tokens", 0,
				fmt.Sprintf("assistant-token budget of the kept messages (%d to %d)", truncate.MinTokensToKeep, truncate.MaxTokensToKeep))
			flagSet.StringVar(&length, "length", "", "summary length: short, medium, or long")
			flagSet.StringVar(&source, "source", "", "who requested the truncation: user or tool")
			flagSet.BoolVarP(&dryRun, "dry-run", "n", false, "compute the result without saving it")
			flagSet.IntVarP(&width, "width", "w", 0, "output width (default: terminal width)")
			flagSet.BoolVar(&outputJSON, "json", false, "output the result as JSON")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return usagef("truncate takes exactly one transcript id")
			}
			transcriptID := args[0]

			session, err := a.open()
			if err != nil {
				return err
			}
			defer session.Close()
			cfg := session.config

			request := cfg.TruncationRequest()
			if maxTokens != 0 {
				request.MaxTokensToKeep = maxTokens
			}
			if length != "" {
				request.SummaryLength = truncate.SummaryLength(length)
			}
			if source != "" {
				request.RequestSource = truncate.RequestSource(source)
			}
			// Flag errors are reported ahead of summarizer setup errors.
			if err := request.Normalize().Validate(); err != nil {
				return usagef("%v", err)
			}

			summarizer, err := a.newSummarizer(cfg.Summarizer, session.logger)
			if err != nil {
				return err
			}
			engine, err := truncate.NewEngine(truncate.EngineConfig{
				Store:      session.store,
				Summarizer: summarizer,
				Clock:      a.clock,
				Logger:     session.logger,
			})
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(a.ctx, cfg.Summarizer.TimeoutDuration())
			defer cancel()

			var result *truncate.Result
			if dryRun {
				messages, err := session.store.LoadTranscript(ctx, transcriptID)
				if err != nil {
					return fmt.Errorf("loading transcript %s: %w", transcriptID, err)
				}
				result, err = engine.TruncateMessages(ctx, messages, request)
				if err != nil {
					return describeTruncateError(err)
				}
			} else {
				result, err = engine.Truncate(ctx, transcriptID, request)
				if err != nil {
					return describeTruncateError(err)
				}
			}

			if outputJSON {
				return writeJSON(a.stdout, result)
			}
			renderer := a.renderer(width)
			if dryRun {
				fmt.Fprintln(a.stdout, renderer.Accent("Dry run: the stored transcript was not changed."))
				fmt.Fprintln(a.stdout)
			}
			fmt.Fprint(a.stdout, renderer.TruncationReport(result))
			return nil
		},
	}
}

// describeTruncateError adds a hint for the failures a user can act
// on. The error chain is preserved.
func describeTruncateError(err error) error {
	var (
		generation *truncate.GenerationError
		structural *truncate.StructuralError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w (raise summarizer.timeout in the config)", err)
	case errors.As(err, &generation):
		return fmt.Errorf("%w (the stored transcript was not changed)", err)
	case errors.As(err, &structural):
		return fmt.Errorf("%w (repair the transcript and import it again with --replace)", err)
	}
	return err
}
