// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"strings"
	"testing"
)

func TestInfoContainsVersion(t *testing.T) {
	if got := Info(); !strings.HasPrefix(got, Version+" (") {
		t.Errorf("Info() = %q, want prefix %q", got, Version+" (")
	}
	if got := Full(); !strings.Contains(got, "Go: ") || !strings.Contains(got, "Platform: ") {
		t.Errorf("Full() = %q, want Go and Platform lines", got)
	}
}

func TestCommitPrefersLinkerValue(t *testing.T) {
	saved := GitCommit
	t.Cleanup(func() { GitCommit = saved })

	GitCommit = "abc1234"
	if got := Commit(); got != "abc1234" {
		t.Errorf("Commit() = %q, want abc1234", got)
	}
}

func TestUserAgent(t *testing.T) {
	if got := UserAgent(); got != "bureau-transcript/"+Short() {
		t.Errorf("UserAgent() = %q", got)
	}
}
