// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package truncate

import "github.com/bureau-foundation/transcript/lib/transcript"

// ValidateAlternation returns an *AlternationError naming the first
// pair of adjacent messages with the same role, or nil when roles
// alternate strictly.
func ValidateAlternation(messages []transcript.Message) error {
	for i := 1; i < len(messages); i++ {
		if messages[i].Role == messages[i-1].Role {
			return &AlternationError{Index: i, Roles: transcript.Roles(messages)}
		}
	}
	return nil
}
