// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package truncate

import "github.com/bureau-foundation/transcript/lib/transcript"

// Repair is the outcome of [RepairBoundary].
type Repair struct {
	// Split is the final split index: messages[Split:] is the
	// candidate slice that Kept was derived from.
	Split int

	// Kept is messages[Split:] after RemoveInterruptedPairs. It
	// passes ValidatePairing.
	Kept []transcript.Message

	// Steps is how many positions the split index moved backward
	// from the initial boundary.
	Steps int
}

// RepairBoundary moves split backward one message at a time until the
// slice messages[split:], after RemoveInterruptedPairs, passes
// ValidatePairing. The split index strictly decreases each iteration
// and stops at 0, so the loop terminates. If even the whole transcript
// fails validation the transcript is malformed and a *StructuralError
// is returned.
func RepairBoundary(messages []transcript.Message, split int) (Repair, error) {
	if split > len(messages) {
		split = len(messages)
	}
	if split < 0 {
		split = 0
	}

	initial := split
	for {
		kept := RemoveInterruptedPairs(messages[split:])
		err := ValidatePairing(kept)
		if err == nil {
			return Repair{Split: split, Kept: kept, Steps: initial - split}, nil
		}
		if split == 0 {
			return Repair{}, &StructuralError{Op: "pairing", Cause: err}
		}
		split--
	}
}
