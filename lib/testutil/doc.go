// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for the transcript
// packages.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// pattern used when a test waits on another goroutine, so that a hung
// engine or summarizer fails the test instead of stalling the suite.
// These are the only place in the test suite where real wall-clock
// timeouts are used.
//
// [Sequence] returns deterministic id generators for code that accepts
// a NewID hook, so tests can assert on the ids of generated messages.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no dependencies inside the module.
package testutil
