// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/transcript/lib/transcript"
	"github.com/bureau-foundation/transcript/lib/transcriptstore"
	"github.com/bureau-foundation/transcript/lib/truncate"
)

// transcriptDocument is the JSON interchange format read by import and
// written by export.
type transcriptDocument struct {
	ID       string               `json:"id,omitempty"`
	Title    string               `json:"title,omitempty"`
	Messages []transcript.Message `json:"messages"`
}

func (a *app) importCommand() *Command {
	var (
		id      string
		title   string
		replace bool
	)
	return &Command{
		Name:    "import",
		Summary: "Store a transcript read from a JSON file",
		Description: `Store a transcript read from a JSON file.

The file holds either a bare array of messages or an object with
"id", "title", and "messages" fields, as written by export. Comments
and trailing commas are accepted. Use "-" to read standard input.

The transcript is checked before it is stored: it must be non-empty,
use only the user and assistant roles, alternate roles strictly, and
answer every action request with a result. A request answered by an
error result counts as an interrupted call and is allowed.`,
		Usage: "bureau-transcript import <file|-> [flags]",
		Examples: []Example{
			{Description: "Import a transcript under a chosen id", Command: "bureau-transcript import session.json --id review-42"},
			{Description: "Overwrite an existing transcript", Command: "bureau-transcript import session.json --id review-42 --replace"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := a.newFlagSet("import")
			flagSet.StringVar(&id, "id", "", "transcript id (default: the file's id, or a new UUID)")
			flagSet.StringVar(&title, "title", "", "transcript title (default: the file's title, or its name)")
			flagSet.BoolVar(&replace, "replace", false, "replace the messages of an existing transcript")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return usagef("import takes exactly one file argument")
			}
			document, err := a.readDocument(args[0])
			if err != nil {
				return err
			}
			if err := checkTranscript(document.Messages); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			if id == "" {
				id = document.ID
			}
			if id == "" {
				id = uuid.NewString()
			}
			if title == "" {
				title = document.Title
			}
			if title == "" && args[0] != "-" {
				title = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}

			session, err := a.open()
			if err != nil {
				return err
			}
			defer session.Close()

			err = session.store.CreateTranscript(a.ctx, id, title, document.Messages)
			if errors.Is(err, transcriptstore.ErrExists) && replace {
				err = session.store.SaveTranscript(a.ctx, id, document.Messages)
				if err == nil {
					err = session.store.AppendAuditEntry(a.ctx, id,
						fmt.Sprintf("Replaced by import of %d messages.", len(document.Messages)))
				}
			}
			if errors.Is(err, transcriptstore.ErrExists) {
				return fmt.Errorf("transcript %q already exists (use --replace to overwrite it)", id)
			}
			if err != nil {
				return err
			}

			session.logger.Info("transcript imported",
				"transcript_id", id,
				"messages", len(document.Messages),
				"tokens", transcript.TotalTokens(document.Messages),
			)
			fmt.Fprintln(a.stdout, id)
			return nil
		},
	}
}

// readDocument reads a transcript file, or standard input for "-".
func (a *app) readDocument(path string) (*transcriptDocument, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(a.stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading transcript: %w", err)
	}
	return parseDocument(data)
}

// parseDocument decodes either a bare message array or a
// transcriptDocument object.
func parseDocument(data []byte) (*transcriptDocument, error) {
	data = bytes.TrimSpace(jsonc.ToJSON(data))
	if len(data) == 0 {
		return nil, errors.New("transcript file is empty")
	}

	var document transcriptDocument
	if data[0] == '[' {
		if err := json.Unmarshal(data, &document.Messages); err != nil {
			return nil, fmt.Errorf("parsing message array: %w", err)
		}
		return &document, nil
	}

	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("parsing transcript: %w", err)
	}
	return &document, nil
}

// checkTranscript applies the structural checks the truncation engine
// relies on, so a bad file is rejected at import rather than at the
// first truncation.
func checkTranscript(messages []transcript.Message) error {
	if len(messages) == 0 {
		return errors.New("transcript has no messages")
	}
	for index, message := range messages {
		if !message.Role.IsValid() {
			return fmt.Errorf("message %d has role %q (want user or assistant)", index, message.Role)
		}
	}
	if err := truncate.ValidateAlternation(messages); err != nil {
		return err
	}
	// Interrupted calls are dropped by every truncation, so they are
	// not held against the file.
	return truncate.ValidatePairing(truncate.RemoveInterruptedPairs(messages))
}
