// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package truncate

import "github.com/bureau-foundation/transcript/lib/transcript"

type requestLocation struct {
	index int
}

type resultLocation struct {
	index   int
	isError bool
}

// RemoveInterruptedPairs returns the messages that survive removal of
// interrupted action pairs, in their original order.
//
// For each action request id: with no result, the request's message is
// kept only if it is the last message of the slice; with an error
// result, both the request and result messages are dropped; with a
// successful result, both are kept. Messages that hold neither a
// request nor a result are always kept, and so are results whose
// request is outside the slice (ValidatePairing rejects those, which
// sends the boundary repair loop further back).
func RemoveInterruptedPairs(messages []transcript.Message) []transcript.Message {
	requests := make(map[string]requestLocation)
	for i, message := range messages {
		if request := message.FirstRequest(); request != nil {
			requests[request.ID] = requestLocation{index: i}
		}
	}

	results := make(map[string]resultLocation)
	for i, message := range messages {
		if result := message.FirstResult(); result != nil {
			results[result.RequestID] = resultLocation{index: i, isError: result.IsError}
		}
	}

	drop := make(map[int]bool)
	lastIndex := len(messages) - 1
	for id, request := range requests {
		result, answered := results[id]
		switch {
		case !answered:
			if request.index != lastIndex {
				drop[request.index] = true
			}
		case result.isError:
			drop[request.index] = true
			drop[result.index] = true
		}
	}

	kept := make([]transcript.Message, 0, len(messages)-len(drop))
	for i, message := range messages {
		if !drop[i] {
			kept = append(kept, message)
		}
	}
	return kept
}
