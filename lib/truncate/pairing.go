// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package truncate

import "github.com/bureau-foundation/transcript/lib/transcript"

// pairingState is the state of the pairing state machine.
type pairingState int

const (
	// pairingIdle: no request is waiting for a result.
	pairingIdle pairingState = iota

	// pairingAwaitingResult: a request was issued and its result has
	// not been seen yet.
	pairingAwaitingResult
)

// ValidatePairing checks that action requests and results in messages
// pair up one to one, in order.
//
// Each message is inspected for its first action result and then its
// first action request. Starting idle, a request moves the machine to
// awaiting that request's id. A result while awaiting must carry the
// same id and must not be an error, and returns the machine to idle.
// A second request while awaiting, a result while idle, a mismatched
// id, or an error result all fail with a *PairingError. Ending while
// awaiting is accepted only when the request came from the final
// message (a call still in flight).
func ValidatePairing(messages []transcript.Message) error {
	state := pairingIdle
	pendingID := ""
	pendingIndex := -1

	for i, message := range messages {
		if result := message.FirstResult(); result != nil {
			switch state {
			case pairingIdle:
				return &PairingError{Index: i, Reason: "orphan result", Found: result.RequestID}
			case pairingAwaitingResult:
				if result.RequestID != pendingID {
					return &PairingError{
						Index:    i,
						Reason:   "mismatched result",
						Expected: pendingID,
						Found:    result.RequestID,
					}
				}
				if result.IsError {
					return &PairingError{Index: i, Reason: "error result", Expected: pendingID}
				}
				state = pairingIdle
				pendingID = ""
				pendingIndex = -1
			}
		}

		if request := message.FirstRequest(); request != nil {
			switch state {
			case pairingIdle:
				state = pairingAwaitingResult
				pendingID = request.ID
				pendingIndex = i
			case pairingAwaitingResult:
				return &PairingError{
					Index:    i,
					Reason:   "second request",
					Expected: pendingID,
					Found:    request.ID,
				}
			}
		}
	}

	if state == pairingAwaitingResult && pendingIndex != len(messages)-1 {
		return &PairingError{Index: pendingIndex, Reason: "unanswered request", Expected: pendingID}
	}
	return nil
}
