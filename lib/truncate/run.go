// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package truncate

import "github.com/bureau-foundation/transcript/lib/transcript"

// roleRun identifies a maximal contiguous slice of messages that share
// a role. In a well-formed transcript every run has length one; runs
// longer than one appear when an upstream writer appended two
// messages of the same role back to back.
type roleRun struct {
	role       transcript.Role
	startIndex int // inclusive
	endIndex   int // exclusive
}

// identifyRoleRuns partitions messages into role runs. Returns nil if
// messages is empty.
func identifyRoleRuns(messages []transcript.Message) []roleRun {
	var runs []roleRun
	for i, message := range messages {
		if len(runs) > 0 && runs[len(runs)-1].role == message.Role {
			runs[len(runs)-1].endIndex = i + 1
			continue
		}
		runs = append(runs, roleRun{
			role:       message.Role,
			startIndex: i,
			endIndex:   i + 1,
		})
	}
	return runs
}

// trailingPairStart returns the index where the trailing atomic unit
// begins: the final run plus the one message before it. This unit is
// always kept so at least one complete exchange survives truncation.
// Returns 0 for transcripts of one run or fewer.
func trailingPairStart(messages []transcript.Message) int {
	runs := identifyRoleRuns(messages)
	if len(runs) == 0 {
		return 0
	}
	start := runs[len(runs)-1].startIndex - 1
	if start < 0 {
		return 0
	}
	return start
}
