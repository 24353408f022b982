// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package transcript defines the data model for a stored conversation
// between a user and a generative assistant.
//
// A transcript is an ordered slice of [Message] values. Each message has
// a [Role] and an ordered list of [Part] values. A part is a closed
// tagged variant: plain text, an action request (a tool invocation
// issued by the assistant), or an action result (the response to a
// request, carried back in a user message). Code that inspects parts
// switches on [Part.Type] and handles every [PartType] explicitly.
//
// Well-formed transcripts satisfy three structural invariants:
//   - roles alternate strictly from one message to the next
//   - every action result answers exactly one earlier, unconsumed
//     action request with the same id
//   - only the final message may hold an unanswered request (a call
//     still in flight)
//
// This package only describes the shape. Validation and repair of the
// invariants live in lib/truncate.
//
// [TotalTokens] is the token accountant used for budget decisions:
// only assistant messages carry a meaningful token count, so user
// messages always contribute zero.
package transcript
