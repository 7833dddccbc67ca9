// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package buddy

import "fmt"

// Inspector is a read-only view of a SecureHeap's internal state,
// letting a test reason about block and free-slice structure without
// coupling to SecureHeap's implementation details directly.
type Inspector struct {
	heap *SecureHeap
}

// NewInspector returns an Inspector over heap.
func NewInspector(heap *SecureHeap) *Inspector {
	return &Inspector{heap: heap}
}

// Blocks returns the heap's current blocks, ordered by base address.
func (in *Inspector) Blocks() []*Block {
	blocks := make([]*Block, len(in.heap.blocks))
	copy(blocks, in.heap.blocks)
	return blocks
}

// FreeSlices returns the free slices currently held for the given size
// class. Panics if exponent is outside [MinExp, MaxExp].
func (in *Inspector) FreeSlices(exponent int) []BlockAddress {
	if exponent < MinExp || exponent > MaxExp {
		panic(fmt.Sprintf("buddy: exponent %d out of range [%d,%d]", exponent, MinExp, MaxExp))
	}
	stack := in.heap.freeStacks[classIndex(exponent)]
	slices := make([]BlockAddress, len(stack.slices))
	copy(slices, stack.slices)
	return slices
}
