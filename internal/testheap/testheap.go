// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testheap holds randomized-testing helpers for the hooks
// package's black-box stress test, which drives the heap through the
// hooks.Hooks trampolines. The buddy package's white-box property tests
// do not use it; they draw their sizes inline.
package testheap

import "math/rand/v2"

// Sizes returns n pseudo-random allocation sizes in [1, maxSize],
// derived from a fixed seed pair so a failing stress test reproduces
// deterministically.
func Sizes(seed1, seed2 uint64, n int, maxSize uintptr) []uintptr {
	random := rand.New(rand.NewPCG(seed1, seed2))
	sizes := make([]uintptr, n)
	for i := range sizes {
		sizes[i] = 1 + uintptr(random.IntN(int(maxSize)))
	}
	return sizes
}

// Coin reports true with probability 1/2, using the given source. It
// exists so call sites don't each reimplement "should I allocate or
// free next" with a slightly different bias.
func Coin(random *rand.Rand) bool {
	return random.IntN(2) == 0
}
