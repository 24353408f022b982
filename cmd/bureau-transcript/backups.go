// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/transcript/lib/codec"
	"github.com/bureau-foundation/transcript/lib/transcriptstore"
	"github.com/bureau-foundation/transcript/lib/transcriptui"
)

func (a *app) backupsCommand() *Command {
	var outputJSON bool
	return &Command{
		Name:    "backups",
		Summary: "List, verify, and inspect pre-truncation backups",
		Description: `List the backups taken before each truncation, oldest first.

With a transcript id only that transcript's backups are listed. The
verify and inspect subcommands read backups back and check them against
the hash recorded when they were taken.`,
		Usage: "bureau-transcript backups [<transcript-id>] [flags]\n  bureau-transcript backups <command> [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := a.newFlagSet("backups")
			flagSet.BoolVar(&outputJSON, "json", false, "output as JSON")
			return flagSet
		},
		Subcommands: []*Command{
			a.backupsVerifyCommand(),
			a.backupsInspectCommand(),
		},
		Run: func(args []string) error {
			if len(args) > 1 {
				return usagef("backups takes at most one transcript id")
			}
			transcriptID := ""
			if len(args) == 1 {
				transcriptID = args[0]
			}

			session, err := a.open()
			if err != nil {
				return err
			}
			defer session.Close()

			backups, err := session.store.ListBackups(a.ctx, transcriptID)
			if err != nil {
				return err
			}
			if outputJSON {
				return writeJSON(a.stdout, backups)
			}
			if len(backups) == 0 {
				fmt.Fprintln(a.stdout, "No backups.")
				return nil
			}
			writer := tabwriter.NewWriter(a.stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(writer, "ID\tTRANSCRIPT\tCREATED\tMESSAGES\tTOKENS\tSIZE\tSTORAGE")
			for _, backup := range backups {
				fmt.Fprintf(writer, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
					backup.ID,
					backup.TranscriptID,
					backup.CreatedAt.Local().Format(time.DateTime),
					backup.MessageCount,
					transcriptui.FormatTokens(backup.TokenCount),
					transcriptui.FormatSize(int64(backup.Size)),
					storageLabel(backup),
				)
			}
			return writer.Flush()
		},
	}
}

// storageLabel describes how a backup payload is stored, e.g.
// "zstd" or "zstd+age".
func storageLabel(backup transcriptstore.Backup) string {
	label := backup.Compression.String()
	if backup.Sealed {
		label += "+age"
	}
	return label
}

func (a *app) backupsVerifyCommand() *Command {
	var (
		all      bool
		identity string
	)
	return &Command{
		Name:    "verify",
		Summary: "Check backups against their recorded hashes",
		Description: `Read backups back end to end and check each against the BLAKE3
hash and message count recorded when it was taken.

Sealed backups are decrypted with --identity or backup.identity_file;
without an identity they are reported as skipped. The command exits
with status 1 when any backup fails.`,
		Usage: "bureau-transcript backups verify <backup-id>... | --all [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := a.newFlagSet("verify")
			flagSet.BoolVar(&all, "all", false, "verify every backup")
			flagSet.StringVar(&identity, "identity", "", "age identity file for sealed backups")
			return flagSet
		},
		Run: func(args []string) error {
			if all == (len(args) > 0) {
				return usagef("give backup ids or --all, not both or neither")
			}

			session, err := a.open()
			if err != nil {
				return err
			}
			defer session.Close()

			identities, err := session.identities(identity)
			if err != nil {
				return err
			}

			backupIDs := args
			if all {
				backups, err := session.store.ListBackups(a.ctx, "")
				if err != nil {
					return err
				}
				for _, backup := range backups {
					backupIDs = append(backupIDs, backup.ID)
				}
			}

			var failed, skipped int
			for _, backupID := range backupIDs {
				backup, err := session.store.VerifyBackup(a.ctx, backupID, identities)
				switch {
				case errors.Is(err, transcriptstore.ErrSealed):
					skipped++
					fmt.Fprintf(a.stdout, "skip  %s  sealed, no identity given\n", backupID)
				case err != nil:
					failed++
					fmt.Fprintf(a.stdout, "FAIL  %s  %v\n", backupID, err)
				default:
					fmt.Fprintf(a.stdout, "ok    %s  %s  %d messages\n", backupID, backup.TranscriptID, backup.MessageCount)
				}
			}
			fmt.Fprintf(a.stdout, "%d verified, %d failed, %d skipped\n", len(backupIDs)-failed-skipped, failed, skipped)
			if failed > 0 {
				return &ExitError{Code: 1}
			}
			return nil
		},
	}
}

func (a *app) backupsInspectCommand() *Command {
	var identity string
	return &Command{
		Name:    "inspect",
		Summary: "Print a backup's payload in CBOR diagnostic notation",
		Description: `Print the decoded payload of a backup in CBOR diagnostic notation
(RFC 8949 section 8), after checking it against the recorded hash.`,
		Usage: "bureau-transcript backups inspect <backup-id> [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := a.newFlagSet("inspect")
			flagSet.StringVar(&identity, "identity", "", "age identity file for sealed backups")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return usagef("inspect takes exactly one backup id")
			}

			session, err := a.open()
			if err != nil {
				return err
			}
			defer session.Close()

			identities, err := session.identities(identity)
			if err != nil {
				return err
			}
			backup, raw, err := session.store.ReadBackupPayload(a.ctx, args[0], identities)
			if err != nil {
				return err
			}
			diagnostic, err := codec.Diagnose(raw)
			if err != nil {
				return fmt.Errorf("backup %s: %w", backup.ID, err)
			}

			renderer := a.renderer(0)
			fmt.Fprintln(a.stdout, renderer.Faint(fmt.Sprintf("# backup %s of %s, %s, blake3:%s",
				backup.ID, backup.TranscriptID, storageLabel(backup), backup.Hash)))
			fmt.Fprintln(a.stdout, diagnostic)
			return nil
		},
	}
}
