// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"sync/atomic"
)

// Sequence returns a generator of ids of the form "prefix-N", with N
// counting from 1. Each generator has its own counter and is safe for
// concurrent use.
//
//	newID := testutil.Sequence("msg") // "msg-1", "msg-2", ...
func Sequence(prefix string) func() string {
	var counter atomic.Uint64
	return func() string {
		return fmt.Sprintf("%s-%d", prefix, counter.Add(1))
	}
}
