// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transcript

// MessageTokens returns the budgeted token cost of a single message:
// the reported total for assistant messages, zero for everything else
// and for messages with no usage.
func MessageTokens(message Message) int64 {
	if message.Role != RoleAssistant || message.TokenUsage == nil {
		return 0
	}
	return message.TokenUsage.TotalTokens
}

// TotalTokens sums [MessageTokens] over the slice.
func TotalTokens(messages []Message) int64 {
	var total int64
	for i := range messages {
		total += MessageTokens(messages[i])
	}
	return total
}
