// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/transcript/lib/sealed"
)

func (a *app) keygenCommand() *Command {
	var output string
	return &Command{
		Name:    "keygen",
		Summary: "Generate an age keypair for sealing backups",
		Description: `Generate an age X25519 keypair for sealing backups.

The identity file is written to --output (mode 0600, never overwriting
an existing file), or to stdout. The public key is printed separately:
add it to backup.recipients in the config, and point
backup.identity_file at the identity to read sealed backups back.`,
		Usage: "bureau-transcript keygen [flags]",
		Examples: []Example{
			{Command: "bureau-transcript keygen -o ~/.config/bureau/backup.key"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("keygen", pflag.ContinueOnError)
			flagSet.StringVarP(&output, "output", "o", "", "write the identity to this file")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return usagef("keygen takes no arguments")
			}
			keypair, err := sealed.GenerateKeypair()
			if err != nil {
				return err
			}
			identity := keypair.IdentityFile(a.clock.Now())

			if output == "" {
				if _, err := a.stdout.Write(identity); err != nil {
					return err
				}
				fmt.Fprintf(a.stderr, "Public key: %s\n", keypair.PublicKey)
				return nil
			}

			file, err := os.OpenFile(output, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
			if errors.Is(err, fs.ErrExist) {
				return fmt.Errorf("%s already exists; refusing to overwrite an identity", output)
			}
			if err != nil {
				return err
			}
			if _, err := file.Write(identity); err != nil {
				file.Close()
				return fmt.Errorf("writing %s: %w", output, err)
			}
			if err := file.Close(); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			fmt.Fprintln(a.stdout, keypair.PublicKey)
			return nil
		},
	}
}
