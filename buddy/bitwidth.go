// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package buddy

import "math/bits"

// WidthOfSize returns the smallest w such that 2^w >= n. n must be
// nonzero; the width of a zero-byte request is undefined and callers
// (SecureHeap.Alloc) handle size 0 before ever reaching here.
func WidthOfSize(n uintptr) int {
	if n == 0 {
		panic("buddy: WidthOfSize(0) is undefined")
	}
	return bits.Len(uint(n - 1))
}
