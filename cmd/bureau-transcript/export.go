// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
)

func (a *app) exportCommand() *Command {
	var (
		output   string
		backupID string
		identity string
	)
	return &Command{
		Name:    "export",
		Summary: "Write a transcript or backup as JSON",
		Description: `Write a stored transcript, or the contents of a backup, as JSON.

The output is the object format accepted by import. With --backup the
transcript id argument may be omitted; the backup's integrity hash is
checked before anything is written. Sealed backups need an age identity
from --identity or backup.identity_file.`,
		Usage: "bureau-transcript export [<transcript-id>] [flags]",
		Examples: []Example{
			{Description: "Save a transcript to a file", Command: "bureau-transcript export review-42 -o review-42.json"},
			{Description: "Recover the messages held by a backup", Command: "bureau-transcript export --backup 3f2a... --identity ~/.config/bureau/backup.key"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := a.newFlagSet("export")
			flagSet.StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
			flagSet.StringVar(&backupID, "backup", "", "export the messages held by this backup")
			flagSet.StringVar(&identity, "identity", "", "age identity file for sealed backups")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 1 {
				return usagef("export takes at most one transcript id")
			}
			if len(args) == 0 && backupID == "" {
				return usagef("transcript id or --backup required")
			}

			session, err := a.open()
			if err != nil {
				return err
			}
			defer session.Close()

			var document transcriptDocument
			if backupID != "" {
				identities, err := session.identities(identity)
				if err != nil {
					return err
				}
				backup, messages, err := session.store.ReadBackup(a.ctx, backupID, identities)
				if err != nil {
					return err
				}
				if len(args) == 1 && args[0] != backup.TranscriptID {
					return fmt.Errorf("backup %s belongs to transcript %s, not %s", backupID, backup.TranscriptID, args[0])
				}
				document = transcriptDocument{ID: backup.TranscriptID, Messages: messages}
				if summary, err := session.store.Transcript(a.ctx, backup.TranscriptID); err == nil {
					document.Title = summary.Title
				}
			} else {
				summary, err := session.store.Transcript(a.ctx, args[0])
				if err != nil {
					return err
				}
				messages, err := session.store.LoadTranscript(a.ctx, args[0])
				if err != nil {
					return err
				}
				document = transcriptDocument{ID: summary.ID, Title: summary.Title, Messages: messages}
			}

			var buffer bytes.Buffer
			if err := writeJSON(&buffer, document); err != nil {
				return err
			}
			if output != "" {
				// Owner-only: transcripts may hold pasted credentials.
				if err := os.WriteFile(output, buffer.Bytes(), 0o600); err != nil {
					return fmt.Errorf("writing %s: %w", output, err)
				}
				session.logger.Info("transcript exported",
					"transcript_id", document.ID,
					"backup_id", backupID,
					"path", output,
				)
				return nil
			}
			_, err = io.WriteString(a.stdout, a.renderer(0).Highlight(buffer.String(), "json"))
			return err
		},
	}
}
