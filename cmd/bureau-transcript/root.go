// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/transcript/lib/version"
)

func (a *app) root() *Command {
	return &Command{
		Name:    "bureau-transcript",
		Summary: "Store, summarize, and truncate conversation transcripts",
		Description: `Store, summarize, and truncate conversation transcripts.

Transcripts are imported from JSON, kept in a local SQLite database,
and truncated to a token budget on request. Truncation backs up the
stored transcript, discards the oldest messages, and replaces them with
an LLM-written summary. Every truncation is recorded in an audit log.

Configuration is read from --config or $BUREAU_TRANSCRIPT_CONFIG.`,
		Subcommands: []*Command{
			a.importCommand(),
			a.exportCommand(),
			a.showCommand(),
			a.truncateCommand(),
			a.backupsCommand(),
			a.auditCommand(),
			a.deleteCommand(),
			a.keygenCommand(),
			a.versionCommand(),
		},
		Output: a.stderr,
	}
}

func (a *app) versionCommand() *Command {
	return &Command{
		Name:    "version",
		Summary: "Print version information",
		Run: func(args []string) error {
			if len(args) > 0 {
				return usagef("version takes no arguments")
			}
			fmt.Fprintln(a.stdout, version.Info())
			return nil
		},
	}
}

// newFlagSet returns a flag set that reports errors instead of
// exiting, with --config already registered.
func (a *app) newFlagSet(name string) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	a.addConfigFlag(flagSet)
	return flagSet
}

// writeJSON writes value as indented JSON. Nil slices are written as
// [] rather than null.
func writeJSON(w io.Writer, value any) error {
	if v := reflect.ValueOf(value); v.Kind() == reflect.Slice && v.IsNil() {
		value = reflect.MakeSlice(v.Type(), 0, 0).Interface()
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
