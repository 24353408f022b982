// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transcriptui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/transcript/lib/transcript"
)

// Theme defines the color palette used for transcript output. All
// colors are ANSI 256-color codes.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Role labels.
	UserRole      lipgloss.Color
	AssistantRole lipgloss.Color

	// Action markers: requests issued, results returned, and results
	// that report a failure or interruption.
	ActionRequest lipgloss.Color
	ActionResult  lipgloss.Color
	ActionError   lipgloss.Color

	// UI chrome.
	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	Accent           lipgloss.Color
}

// RoleColor returns the label color for a message role. Unknown roles
// return FaintText.
func (theme Theme) RoleColor(role transcript.Role) lipgloss.Color {
	switch role {
	case transcript.RoleUser:
		return theme.UserRole
	case transcript.RoleAssistant:
		return theme.AssistantRole
	default:
		return theme.FaintText
	}
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	UserRole:      lipgloss.Color("114"), // green
	AssistantRole: lipgloss.Color("75"),  // blue

	ActionRequest: lipgloss.Color("220"), // amber
	ActionResult:  lipgloss.Color("141"), // light purple
	ActionError:   lipgloss.Color("196"), // red

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	Accent:           lipgloss.Color("208"), // orange
}
