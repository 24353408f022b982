// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package truncate

import "github.com/bureau-foundation/transcript/lib/transcript"

// FindBoundary returns the split index s such that messages[s:] is the
// candidate kept slice for the given assistant-token budget.
//
// The trailing atomic unit (see trailingPairStart) is always inside
// the kept slice and its cost seeds the running total, even when that
// cost alone exceeds the budget. Scanning backward from there, the
// first message whose cost would push the running total strictly over
// the budget becomes the boundary and s is its index plus one. A
// message that brings the total to exactly the budget is kept. If the
// budget is never exceeded, s is 0.
//
// User messages cost nothing, so they only become the boundary when
// the running total is already over budget.
func FindBoundary(messages []transcript.Message, budget int64) int {
	if len(messages) == 0 {
		return 0
	}

	tailStart := trailingPairStart(messages)
	running := transcript.TotalTokens(messages[tailStart:])

	for i := tailStart - 1; i >= 0; i-- {
		cost := transcript.MessageTokens(messages[i])
		if running+cost > budget {
			return i + 1
		}
		running += cost
	}
	return 0
}
