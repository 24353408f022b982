// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package truncate shortens a conversation transcript to fit a token
// budget and replaces the removed prefix with a generated summary.
//
// The central entry point is [Engine.Truncate]. One call runs a fixed
// pipeline over a transcript loaded from a [Store]:
//
//  1. Validate the [Request] parameters. Nothing is read before this
//     succeeds.
//  2. Count assistant tokens with [transcript.TotalTokens]. If the
//     transcript already fits, summarise it in place and return
//     without touching storage.
//  3. Take a backup through [Store.CreateBackup].
//  4. [FindBoundary] picks a split index by walking backward under the
//     budget. The trailing role pair is an atomic unit and is always
//     kept, even when it alone exceeds the budget.
//  5. [RemoveInterruptedPairs] drops request/result pairs whose result
//     is an error and requests that were never answered (unless the
//     request is the final message, a call still in flight).
//  6. [RepairBoundary] moves the split index backward one message at a
//     time until [ValidatePairing] accepts the kept slice.
//  7. [GenerateSummary] asks the [Summarizer] for a summary of the
//     discarded prefix and rejects responses that lack any section
//     required by the [SummaryLength].
//  8. [Assemble] prepends a synthetic user/assistant pair carrying the
//     summary and re-checks role alternation with [ValidateAlternation].
//  9. The assembled transcript is saved and an audit entry recorded.
//
// Every stage returns a new slice; inputs are never modified. Every
// failure is terminal for the call and nothing is saved unless all
// validation passed. Errors are typed ([ParameterError],
// [StructuralError], [GenerationError], [AssemblyError]) so callers can
// branch with errors.As. The summarizer call is never retried here.
package truncate
