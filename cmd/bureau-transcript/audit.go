// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

func (a *app) auditCommand() *Command {
	var (
		limit      int
		outputJSON bool
	)
	return &Command{
		Name:    "audit",
		Summary: "Show the audit log of a transcript",
		Description: `Show the audit log of a transcript, oldest entry first.

Each truncation appends an entry naming the messages removed, the token
counts before and after, and the backup taken.`,
		Usage: "bureau-transcript audit <transcript-id> [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := a.newFlagSet("audit")
			flagSet.IntVarP(&limit, "limit", "l", 0, "show only the most recent N entries")
			flagSet.BoolVar(&outputJSON, "json", false, "output as JSON")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return usagef("audit takes exactly one transcript id")
			}
			if limit < 0 {
				return usagef("--limit must not be negative")
			}

			session, err := a.open()
			if err != nil {
				return err
			}
			defer session.Close()

			if _, err := session.store.Transcript(a.ctx, args[0]); err != nil {
				return err
			}
			entries, err := session.store.ListAudit(a.ctx, args[0], limit)
			if err != nil {
				return err
			}
			if outputJSON {
				return writeJSON(a.stdout, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(a.stdout, "No audit entries.")
				return nil
			}
			renderer := a.renderer(0)
			for _, entry := range entries {
				fmt.Fprintf(a.stdout, "%s  %s\n", renderer.Faint(entry.CreatedAt.Local().Format(time.DateTime)), entry.Text)
			}
			return nil
		},
	}
}
