// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package buddy

import (
	"fmt"
	"sort"

	"github.com/sealedmem/secureheap/pages"
)

// blockSizeMultiplier is how many pages, at minimum, a freshly created
// block should span, expressed as an exponent added to the page size
// exponent. Small pages (<=4KiB) get a larger multiplier so that the
// per-block overhead (the alloc_sizes side-table and the sorted-blocks
// entry) stays amortized across more bytes.
func blockSizeMultiplier(pageSizeExponent int) int {
	if pageSizeExponent <= 12 {
		return 4
	}
	return 3
}

// SecureHeap orchestrates a set of Blocks and one FreeStack per size
// class, serving Alloc/Free and pointer-to-block reverse lookup. It
// holds no other mutable state. A SecureHeap is not safe for
// concurrent use — see the package doc comment.
type SecureHeap struct {
	// blocks is kept sorted by Base() to support GetBlockAddress's
	// predecessor lookup via binary search: the block owning an
	// arbitrary pointer is found by locating the last block whose base
	// is <= that pointer, the same trick an ordered base-address-keyed
	// map would give for free.
	blocks     []*Block
	freeStacks [numClasses]FreeStack
}

// NewSecureHeap returns an empty heap with no blocks.
func NewSecureHeap() *SecureHeap {
	return &SecureHeap{}
}

// Alloc returns a pointer to size bytes of protected memory, or 0 if
// the request cannot be satisfied. A size of 0 always returns 0 — the
// returned pointer only needs to be valid for size bytes, which is
// zero, so there is nothing to allocate.
func (h *SecureHeap) Alloc(size uintptr) uintptr {
	if size == 0 {
		return 0
	}

	exponent := WidthOfSize(size)
	if exponent < MinExp {
		exponent = MinExp
	}
	if exponent > MaxExp {
		return 0
	}

	addr := h.allocExponent(exponent)
	if addr.IsEmpty() {
		if h.createBlock(exponent) == nil {
			return 0
		}
		// createBlock pushed a fresh free slice at its own exponent,
		// which is >= exponent, so this retry must succeed.
		addr = h.allocExponent(exponent)
		if addr.IsEmpty() {
			panic("buddy: block creation succeeded but the retry allocation still failed")
		}
	}

	addr.Block.setAllocationSize(addr.Addr, exponent)
	return addr.Addr
}

// allocExponent satisfies a request for exactly 2^exponent bytes from
// existing blocks, recursively splitting a larger free slice if no
// exact-size slice is free. It never creates a new block.
func (h *SecureHeap) allocExponent(exponent int) BlockAddress {
	if exponent > MaxExp {
		return Empty
	}

	addr := h.freeStacks[classIndex(exponent)].Pop()
	if addr.IsEmpty() {
		addr = h.allocExponent(exponent + 1)
		if !addr.IsEmpty() {
			// addr is the base of a 2^(exponent+1) slice, so bit
			// `exponent` of its offset is 0: the lower half keeps addr
			// and the upper half (the buddy) goes back on the stack.
			buddy := addr.Buddy(exponent)
			h.freeStacks[classIndex(exponent)].Push(buddy)
		}
	}
	return addr
}

// createBlock reserves a new block large enough to satisfy a request
// for minExponent bytes and registers it with the heap. Returns nil
// (a soft failure) if the underlying reservation fails.
func (h *SecureHeap) createBlock(minExponent int) *Block {
	pageSizeExponent := pages.PageSizeExponent()
	desiredExponent := pageSizeExponent + blockSizeMultiplier(pageSizeExponent)
	if desiredExponent > MaxExp {
		desiredExponent = MaxExp
	}

	blockExponent := minExponent
	if desiredExponent > blockExponent {
		blockExponent = desiredExponent
	}

	base, err := pages.Reserve(uintptr(1) << uint(blockExponent))
	if err != nil {
		return nil
	}

	block := newBlock(base, blockExponent)
	h.insertBlock(block)
	h.freeStacks[classIndex(blockExponent)].Push(BlockAddress{Block: block, Addr: base})
	return block
}

// Free releases the allocation at ptr, zeroing its contents and
// coalescing with any free buddy all the way up to a whole block if
// possible. ptr must be 0 (a no-op) or a pointer previously returned
// by Alloc and not already freed; violating that is a fatal programming
// error (double free, stray free, or an unaligned/foreign pointer).
func (h *SecureHeap) Free(ptr uintptr) {
	if ptr == 0 {
		return
	}

	addr := h.GetBlockAddress(ptr)
	if addr.IsEmpty() {
		panic(fmt.Sprintf("buddy: free of pointer %#x not owned by this heap", ptr))
	}

	block := addr.Block
	exponent := block.AllocationSize(ptr)
	if exponent == 0 {
		panic(fmt.Sprintf("buddy: double free or stray free of pointer %#x", ptr))
	}
	block.setAllocationSize(ptr, 0)

	// Zero before coalescing: a partial merge must never leave stale
	// plaintext in a slice that later gets handed back out.
	zero(addr.Addr, uintptr(1)<<uint(exponent))

	for exponent < block.ownExponent {
		buddy := addr.Buddy(exponent)
		if !h.freeStacks[classIndex(exponent)].Remove(buddy) {
			break
		}
		addr = addr.Parent(exponent)
		exponent++
	}

	if exponent == block.ownExponent {
		h.destroyBlock(block)
	} else {
		h.freeStacks[classIndex(exponent)].Push(addr)
	}
}

func zero(base uintptr, size uintptr) {
	span := pages.Bytes(base, size)
	for i := range span {
		span[i] = 0
	}
}

// GetBlockAddress locates the block that owns ptr, if any. It returns
// Empty if no block in the heap contains ptr, or if ptr is not aligned
// to the minimum allocation unit within the block that would otherwise
// contain it.
func (h *SecureHeap) GetBlockAddress(ptr uintptr) BlockAddress {
	if len(h.blocks) == 0 {
		return Empty
	}

	// Predecessor lookup: the last block whose base is <= ptr.
	i := sort.Search(len(h.blocks), func(i int) bool { return h.blocks[i].base > ptr })
	if i == 0 {
		return Empty
	}
	block := h.blocks[i-1]
	if !block.isValidPointer(ptr) {
		return Empty
	}
	return BlockAddress{Block: block, Addr: ptr}
}

// GetUsedMemory returns the total bytes currently handed out to live
// allocations: total block memory minus everything sitting free in a
// FreeStack.
func (h *SecureHeap) GetUsedMemory() uintptr {
	var total uintptr
	for _, block := range h.blocks {
		total += uintptr(1) << uint(block.ownExponent)
	}

	var unused uintptr
	for exponent := MinExp; exponent <= MaxExp; exponent++ {
		unused += uintptr(h.freeStacks[classIndex(exponent)].Height()) << uint(exponent)
	}

	if unused > total {
		panic("buddy: unused memory exceeds total memory — invariant violated")
	}
	return total - unused
}

// BlockCount returns the number of live blocks. Used by the hook
// adapter's Done hook: a heap with zero blocks has no outstanding
// allocations.
func (h *SecureHeap) BlockCount() int {
	return len(h.blocks)
}

func (h *SecureHeap) insertBlock(block *Block) {
	i := sort.Search(len(h.blocks), func(i int) bool { return h.blocks[i].base >= block.base })
	h.blocks = append(h.blocks, nil)
	copy(h.blocks[i+1:], h.blocks[i:])
	h.blocks[i] = block
}

func (h *SecureHeap) destroyBlock(block *Block) {
	i := sort.Search(len(h.blocks), func(i int) bool { return h.blocks[i].base >= block.base })
	if i >= len(h.blocks) || h.blocks[i] != block {
		panic("buddy: block not found during destruction — invariant violated")
	}
	h.blocks = append(h.blocks[:i], h.blocks[i+1:]...)
	pages.Release(block.base, uintptr(1)<<uint(block.ownExponent))
}
