// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package buddy

import "fmt"

// debugAssertions gates invariant checks that are too expensive (or too
// paranoid) for production allocator hot paths but are worth running
// under the test suite. Flip to true locally when chasing a suspected
// coalescing bug; never enable in a committed build.
const debugAssertions = false

// FreeStack is an unordered multiset of free slices of one size class.
// Duplicate (block, addr) entries must never exist — callers guarantee
// this by never pushing an address that is already free. No ordering
// is promised; callers never depend on FIFO/LIFO behavior.
type FreeStack struct {
	slices []BlockAddress
}

// Push appends addr to the stack.
func (s *FreeStack) Push(addr BlockAddress) {
	s.slices = append(s.slices, addr)
}

// Pop removes and returns some element, or Empty if the stack has none.
func (s *FreeStack) Pop() BlockAddress {
	n := len(s.slices)
	if n == 0 {
		return Empty
	}
	n--
	addr := s.slices[n]
	s.slices[n] = Empty
	s.slices = s.slices[:n]
	return addr
}

// Remove removes one occurrence of addr if present and reports whether
// it found one. The scan is linear; the per-class working set is
// expected to be small enough that this never matters.
func (s *FreeStack) Remove(addr BlockAddress) bool {
	for i, existing := range s.slices {
		if existing != addr {
			continue
		}
		n := len(s.slices) - 1
		s.slices[i] = s.slices[n]
		s.slices[n] = Empty
		s.slices = s.slices[:n]
		if debugAssertions {
			assertNoDuplicate(s.slices, addr)
		}
		return true
	}
	return false
}

// Height returns the number of elements currently on the stack.
func (s *FreeStack) Height() int {
	return len(s.slices)
}

// assertNoDuplicate panics if removed still appears in remaining. This
// backs the invariant that a FreeStack never holds two entries for the
// same (block, addr) pair: Remove should take that pair out entirely on
// its first match, never leave a second copy behind.
func assertNoDuplicate(remaining []BlockAddress, removed BlockAddress) {
	for _, addr := range remaining {
		if addr == removed {
			panic(fmt.Sprintf("buddy: duplicate free-stack entry for block=%p addr=%#x survived Remove", removed.Block, removed.Addr))
		}
	}
}
