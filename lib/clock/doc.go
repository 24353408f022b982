// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable source of the current time.
//
// Code that stamps records (synthetic transcript messages, backups,
// audit entries) takes a Clock instead of calling time.Now, so tests
// can assert exact timestamps:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	store := transcriptstore.Open(transcriptstore.Config{Clock: c, ...})
//	c.Advance(time.Minute)
//
// Production code passes Real().
package clock
