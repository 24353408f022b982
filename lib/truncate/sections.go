// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package truncate

// SummaryHeader is the literal top-level header every generated
// summary must contain.
const SummaryHeader = "## Removed Conversation Context"

// Section headers, grouped by the tier that first requires them. Each
// tier requires its own sections plus those of every shorter tier.
var (
	shortSections = []string{
		"### Main Topics",
		"### Key Decisions",
		"### Current State",
	}
	mediumSections = []string{
		"### Files and Resources",
		"### Tools Used",
		"### Open Questions",
	}
	longSections = []string{
		"### Detailed Timeline",
	}
)

// RequiredSections returns the ordered section headers a summary of
// the given length must contain, not including SummaryHeader. The sets
// nest: short is a prefix of medium, medium is a prefix of long.
// Unknown lengths are treated as long.
func RequiredSections(length SummaryLength) []string {
	sections := make([]string, 0, len(shortSections)+len(mediumSections)+len(longSections))
	sections = append(sections, shortSections...)
	if length == SummaryShort {
		return sections
	}
	sections = append(sections, mediumSections...)
	if length == SummaryMedium {
		return sections
	}
	return append(sections, longSections...)
}

// summaryInstruction returns the verbosity guidance given to the
// summarizer for the tier.
func summaryInstruction(length SummaryLength) string {
	switch length {
	case SummaryShort:
		return "Write a brief summary of the removed conversation. Use a few bullet points per section " +
			"and keep only what is needed to continue the work."
	case SummaryMedium:
		return "Write a moderately detailed summary of the removed conversation. Cover each section " +
			"with enough detail that a reader can continue without re-reading the removed messages."
	default:
		return "Write a comprehensive summary of the removed conversation. Preserve decisions, file " +
			"paths, tool invocations and their outcomes, unresolved questions, and the order in which " +
			"things happened."
	}
}
