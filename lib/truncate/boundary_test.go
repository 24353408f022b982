// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package truncate

import (
	"testing"

	"github.com/bureau-foundation/transcript/lib/transcript"
)

func TestFindBoundary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		messages []transcript.Message
		budget   int64
		want     int
	}{
		{
			name:   "empty transcript",
			budget: 1000,
			want:   0,
		},
		{
			name:     "single message",
			messages: []transcript.Message{userText("only")},
			budget:   1000,
			want:     0,
		},
		{
			name: "everything fits",
			messages: []transcript.Message{
				userText("one"), assistantText("one", 1000),
				userText("two"), assistantText("two", 1000),
			},
			budget: 5000,
			want:   0,
		},
		{
			name: "last pair kept when earlier assistant overflows",
			messages: []transcript.Message{
				userText("one"), assistantText("one", 1000),
				userText("two"), assistantText("two", 1000),
			},
			budget: 1500,
			want:   2,
		},
		{
			name: "exactly at budget is kept",
			messages: []transcript.Message{
				userText("one"), assistantText("one", 1000),
				userText("two"), assistantText("two", 1000),
			},
			budget: 2000,
			want:   0,
		},
		{
			name: "tail pair over budget is still kept",
			messages: []transcript.Message{
				userText("one"), assistantText("one", 100),
				userText("two"), assistantText("two", 5000),
			},
			budget: 1000,
			want:   2,
		},
		{
			name: "tail over budget excludes everything before it",
			messages: []transcript.Message{
				assistantText("zero", 10),
				userText("one"), assistantText("one", 100),
				userText("two"), assistantText("two", 5000),
			},
			budget: 1000,
			want:   3,
		},
		{
			name: "trailing same-role run is atomic with its predecessor",
			messages: []transcript.Message{
				userText("one"), assistantText("one", 900),
				userText("two"), assistantText("two", 300),
				userText("three"), userText("four"),
			},
			budget: 1000,
			want:   2,
		},
		{
			name: "several messages fit before the boundary",
			messages: []transcript.Message{
				userText("one"), assistantText("one", 600),
				userText("two"), assistantText("two", 300),
				userText("three"), assistantText("three", 300),
				userText("four"), assistantText("four", 300),
			},
			budget: 1000,
			want:   2,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			if got := FindBoundary(test.messages, test.budget); got != test.want {
				t.Errorf("FindBoundary() = %d, want %d", got, test.want)
			}
		})
	}
}

func TestFindBoundaryRespectsBudgetOutsideTail(t *testing.T) {
	t.Parallel()

	var messages []transcript.Message
	for i := 0; i < 40; i++ {
		messages = append(messages,
			userText(string(rune('a'+i%26))+string(rune('0'+i/26))),
			assistantText(string(rune('a'+i%26))+string(rune('0'+i/26)), int64(100+i*37%400)),
		)
	}

	for _, budget := range []int64{1000, 2500, 4000, 9000} {
		split := FindBoundary(messages, budget)
		kept := transcript.TotalTokens(messages[split:])
		tail := transcript.TotalTokens(messages[trailingPairStart(messages):])
		if kept > budget && kept != tail {
			t.Errorf("budget %d: kept %d tokens from split %d, tail alone is %d", budget, kept, split, tail)
		}
		if split > 0 {
			withOneMore := transcript.TotalTokens(messages[split-1:])
			if withOneMore <= budget {
				t.Errorf("budget %d: split %d is too aggressive, one more message still fits (%d)", budget, split, withOneMore)
			}
		}
	}
}

func TestTrailingPairStart(t *testing.T) {
	t.Parallel()

	messages := []transcript.Message{
		userText("one"), assistantText("one", 1),
		userText("two"), assistantText("two", 1), assistantText("three", 1),
	}
	if got := trailingPairStart(messages); got != 2 {
		t.Errorf("trailingPairStart() = %d, want 2", got)
	}

	runs := identifyRoleRuns(messages)
	if len(runs) != 4 {
		t.Fatalf("identifyRoleRuns() returned %d runs, want 4", len(runs))
	}
	last := runs[len(runs)-1]
	if last.startIndex != 3 || last.endIndex != 5 {
		t.Errorf("last run = [%d,%d), want [3,5)", last.startIndex, last.endIndex)
	}
}
