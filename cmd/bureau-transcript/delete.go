// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import "github.com/spf13/pflag"

func (a *app) deleteCommand() *Command {
	var confirmed bool
	return &Command{
		Name:    "delete",
		Summary: "Delete a transcript with its backups and audit log",
		Description: `Delete a transcript together with every backup taken of it and its
audit log. This cannot be undone; export the transcript first if it
may be needed again. --yes is required.`,
		Usage: "bureau-transcript delete <transcript-id> --yes",
		Flags: func() *pflag.FlagSet {
			flagSet := a.newFlagSet("delete")
			flagSet.BoolVarP(&confirmed, "yes", "y", false, "confirm the deletion")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return usagef("delete takes exactly one transcript id")
			}
			if !confirmed {
				return usagef("deleting %s also deletes its backups; pass --yes to confirm", args[0])
			}

			session, err := a.open()
			if err != nil {
				return err
			}
			defer session.Close()

			return session.store.DeleteTranscript(a.ctx, args[0])
		},
	}
}
