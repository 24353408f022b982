// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package truncate

import (
	"fmt"
	"strings"

	"github.com/bureau-foundation/transcript/lib/transcript"
)

// ParameterError reports an invalid request parameter. It is returned
// before the transcript is read.
type ParameterError struct {
	Field  string
	Value  any
	Reason string
}

func (err *ParameterError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", err.Field, err.Value, err.Reason)
}

// StructuralError reports that the stored transcript itself violates
// an invariant the engine relies on (broken alternation, or a pairing
// violation that no split index can avoid). It is a precondition
// failure, not something the engine caused.
type StructuralError struct {
	Op    string
	Cause error
}

func (err *StructuralError) Error() string {
	return fmt.Sprintf("malformed transcript (%s): %v", err.Op, err.Cause)
}

func (err *StructuralError) Unwrap() error { return err.Cause }

// GenerationError reports a failed summarizer call or a summary that
// is missing required sections. When Cause is nil, Missing lists the
// absent headers and Found lists the headings the summary did have.
type GenerationError struct {
	Cause   error
	Missing []string
	Found   []string
}

func (err *GenerationError) Error() string {
	if err.Cause != nil {
		return fmt.Sprintf("summary generation failed: %v", err.Cause)
	}
	message := "summary is missing required sections: " + strings.Join(err.Missing, ", ")
	if len(err.Found) > 0 {
		message += " (found: " + strings.Join(err.Found, ", ") + ")"
	}
	return message
}

func (err *GenerationError) Unwrap() error { return err.Cause }

// AssemblyError reports that the transcript produced by splicing in the
// summary does not alternate roles. Assemble inserts filler messages to
// prevent this at the splice point, so it indicates a kept slice with
// two adjacent same-role messages, typically left behind when an
// unanswered action request is dropped from the middle of the slice.
type AssemblyError struct {
	Cause *AlternationError
}

func (err *AssemblyError) Error() string {
	return fmt.Sprintf("assembled transcript is invalid: %v", err.Cause)
}

func (err *AssemblyError) Unwrap() error { return err.Cause }

// AlternationError identifies the first pair of adjacent messages that
// share a role.
type AlternationError struct {
	// Index is the position of the second message of the pair.
	Index int
	Roles []transcript.Role
}

func (err *AlternationError) Error() string {
	roles := make([]string, len(err.Roles))
	for i, role := range err.Roles {
		roles[i] = string(role)
	}
	return fmt.Sprintf("messages %d and %d are both %s (roles: %s)",
		err.Index-1, err.Index, err.Roles[err.Index], strings.Join(roles, ","))
}

// PairingError identifies where action request/result pairing broke.
type PairingError struct {
	Index    int
	Reason   string
	Expected string
	Found    string
}

func (err *PairingError) Error() string {
	switch {
	case err.Expected != "" && err.Found != "":
		return fmt.Sprintf("message %d: %s (expected result for %q, found %q)",
			err.Index, err.Reason, err.Expected, err.Found)
	case err.Expected != "":
		return fmt.Sprintf("message %d: %s (pending request %q)", err.Index, err.Reason, err.Expected)
	case err.Found != "":
		return fmt.Sprintf("message %d: %s (%q)", err.Index, err.Reason, err.Found)
	}
	return fmt.Sprintf("message %d: %s", err.Index, err.Reason)
}
