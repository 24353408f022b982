// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package truncate

// Budget limits for Request.MaxTokensToKeep.
const (
	MinTokensToKeep     = 1000
	MaxTokensToKeep     = 128000
	DefaultTokensToKeep = 64000
)

// SummaryLength selects the verbosity tier of the generated summary.
// Longer tiers require strictly more sections (see [RequiredSections]).
type SummaryLength string

const (
	SummaryShort  SummaryLength = "short"
	SummaryMedium SummaryLength = "medium"
	SummaryLong   SummaryLength = "long"
)

// IsValid reports whether the length is a known tier.
func (length SummaryLength) IsValid() bool {
	switch length {
	case SummaryShort, SummaryMedium, SummaryLong:
		return true
	}
	return false
}

// RequestSource records who asked for the truncation. A user-initiated
// truncation annotates the last assistant message so the user can see
// that earlier context was summarised.
type RequestSource string

const (
	SourceUser RequestSource = "user"
	SourceTool RequestSource = "tool"
)

// IsValid reports whether the source is a known value.
func (source RequestSource) IsValid() bool {
	return source == SourceUser || source == SourceTool
}

// Request holds the caller-supplied parameters of one truncation.
// Zero values are replaced by defaults in [Request.Normalize].
type Request struct {
	// MaxTokensToKeep is the assistant-token budget for the kept
	// slice. Must lie in [MinTokensToKeep, MaxTokensToKeep].
	MaxTokensToKeep int `json:"max_tokens_to_keep"`

	// SummaryLength is the verbosity tier. Default: long.
	SummaryLength SummaryLength `json:"summary_length"`

	// RequestSource is who initiated the call. Default: tool.
	RequestSource RequestSource `json:"request_source"`
}

// Normalize returns a copy of the request with defaults applied to
// unset fields. Out-of-range values are left for Validate to reject.
func (request Request) Normalize() Request {
	if request.MaxTokensToKeep == 0 {
		request.MaxTokensToKeep = DefaultTokensToKeep
	}
	if request.SummaryLength == "" {
		request.SummaryLength = SummaryLong
	}
	if request.RequestSource == "" {
		request.RequestSource = SourceTool
	}
	return request
}

// Validate checks every parameter and returns a *ParameterError for
// the first invalid one.
func (request Request) Validate() error {
	if request.MaxTokensToKeep < MinTokensToKeep || request.MaxTokensToKeep > MaxTokensToKeep {
		return &ParameterError{
			Field:  "max_tokens_to_keep",
			Value:  request.MaxTokensToKeep,
			Reason: "must be between 1000 and 128000",
		}
	}
	if !request.SummaryLength.IsValid() {
		return &ParameterError{
			Field:  "summary_length",
			Value:  request.SummaryLength,
			Reason: "must be one of short, medium, long",
		}
	}
	if !request.RequestSource.IsValid() {
		return &ParameterError{
			Field:  "request_source",
			Value:  request.RequestSource,
			Reason: "must be one of user, tool",
		}
	}
	return nil
}
