// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// bureau-transcript stores conversation transcripts and truncates them
// to a token budget, replacing the discarded prefix with an
// LLM-written summary.
//
// Transcripts live in a single SQLite database along with the backups
// taken before each truncation and an audit log of every change. See
// "bureau-transcript --help" for the command list.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(newApp(ctx, os.Stdin, os.Stdout, os.Stderr), os.Args[1:])
	stop()
	if err != nil {
		os.Exit(exitCode(err, os.Stderr))
	}
}

func run(a *app, args []string) error {
	return a.root().Execute(args)
}

// exitCode maps a command error to the process exit code, printing it
// unless the command already reported the failure itself.
func exitCode(err error, stderr io.Writer) int {
	// Commands that print their own output return an ExitError with
	// the desired code. Don't print a redundant "error:" line.
	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	fmt.Fprintf(stderr, "error: %v\n", err)
	var usage *usageError
	if errors.As(err, &usage) {
		return exitUsage
	}
	return 1
}
