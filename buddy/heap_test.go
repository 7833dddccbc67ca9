// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package buddy

import "testing"

// TestFreshBlockSplitChain checks that allocating 100 bytes from an
// empty heap rounds up to 256 bytes and leaves one free buddy at each
// exponent between MinExp and MaxExp-of-the-new-block.
func TestFreshBlockSplitChain(t *testing.T) {
	heap := NewSecureHeap()
	inspector := NewInspector(heap)

	p := heap.Alloc(100)
	if p == 0 {
		t.Fatal("Alloc(100) failed")
	}
	t.Cleanup(func() { heap.Free(p) })

	ba := heap.GetBlockAddress(p)
	if ba.IsEmpty() {
		t.Fatal("GetBlockAddress(p) returned Empty for a live allocation")
	}
	if got := ba.Block.AllocationSize(p); got != MinExp {
		t.Fatalf("expected allocation exponent %d, got %d", MinExp, got)
	}

	blocks := inspector.Blocks()
	if len(blocks) != 1 {
		t.Fatalf("expected exactly one block, got %d", len(blocks))
	}
	block := blocks[0]
	if block.OwnExponent() < 11 {
		t.Fatalf("expected a block spanning at least 2^11 bytes, got 2^%d", block.OwnExponent())
	}

	for exponent := 8; exponent <= 11; exponent++ {
		slices := inspector.FreeSlices(exponent)
		if len(slices) != 1 {
			t.Fatalf("exponent %d: expected exactly one free slice, got %d", exponent, len(slices))
		}
		want := p + (uintptr(1) << uint(exponent))
		if slices[0].Addr != want {
			t.Fatalf("exponent %d: expected free slice at %#x, got %#x", exponent, want, slices[0].Addr)
		}
	}
}

// TestSiblingReuse continues from the previous allocation: a
// 1024-byte request is satisfied by the free buddy left at exponent 10.
func TestSiblingReuse(t *testing.T) {
	heap := NewSecureHeap()
	inspector := NewInspector(heap)

	p := heap.Alloc(100)
	if p == 0 {
		t.Fatal("Alloc(100) failed")
	}
	t.Cleanup(func() { heap.Free(p) })

	p2 := heap.Alloc(1024)
	if p2 == 0 {
		t.Fatal("Alloc(1024) failed")
	}
	t.Cleanup(func() { heap.Free(p2) })

	if want := p + 1024; p2 != want {
		t.Fatalf("expected second allocation at %#x, got %#x", want, p2)
	}
	ba2 := heap.GetBlockAddress(p2)
	if got := ba2.Block.AllocationSize(p2); got != 10 {
		t.Fatalf("expected allocation exponent 10, got %d", got)
	}

	for exponent := 8; exponent <= 11; exponent++ {
		slices := inspector.FreeSlices(exponent)
		if exponent == 10 {
			if len(slices) != 0 {
				t.Fatalf("exponent 10: expected no free slices after reuse, got %d", len(slices))
			}
			continue
		}
		if len(slices) != 1 {
			t.Fatalf("exponent %d: expected exactly one free slice, got %d", exponent, len(slices))
		}
		want := p + (uintptr(1) << uint(exponent))
		if slices[0].Addr != want {
			t.Fatalf("exponent %d: expected free slice at %#x, got %#x", exponent, want, slices[0].Addr)
		}
	}
}

// TestCascadingCoalesce checks that freeing the smaller allocation
// merges exponents 8 and 9 back into one slice at exponent 10.
func TestCascadingCoalesce(t *testing.T) {
	heap := NewSecureHeap()
	inspector := NewInspector(heap)

	p := heap.Alloc(100)
	p2 := heap.Alloc(1024)
	if p == 0 || p2 == 0 {
		t.Fatal("setup allocations failed")
	}
	t.Cleanup(func() { heap.Free(p2) })

	heap.Free(p)

	for exponent := MinExp; exponent <= 11; exponent++ {
		slices := inspector.FreeSlices(exponent)
		switch {
		case exponent < 10:
			if len(slices) != 0 {
				t.Fatalf("exponent %d: expected no free slices after coalescing, got %d", exponent, len(slices))
			}
		case exponent == 10:
			if len(slices) != 1 || slices[0].Addr != p {
				t.Fatalf("exponent 10: expected exactly one free slice at %#x, got %+v", p, slices)
			}
		default:
			want := p + (uintptr(1) << uint(exponent))
			if len(slices) != 1 || slices[0].Addr != want {
				t.Fatalf("exponent %d: expected exactly one free slice at %#x, got %+v", exponent, want, slices)
			}
		}
	}
}

// TestBlockRelease checks that freeing the remaining allocation
// coalesces all the way up and releases the block.
func TestBlockRelease(t *testing.T) {
	heap := NewSecureHeap()
	inspector := NewInspector(heap)

	p := heap.Alloc(100)
	p2 := heap.Alloc(1024)
	if p == 0 || p2 == 0 {
		t.Fatal("setup allocations failed")
	}
	heap.Free(p)
	heap.Free(p2)

	if len(inspector.Blocks()) != 0 {
		t.Fatalf("expected zero blocks after freeing everything, got %d", len(inspector.Blocks()))
	}
	if got := heap.GetUsedMemory(); got != 0 {
		t.Fatalf("expected GetUsedMemory() == 0, got %d", got)
	}
}

func TestAlloc_ZeroSizeReturnsNil(t *testing.T) {
	heap := NewSecureHeap()
	if p := heap.Alloc(0); p != 0 {
		t.Fatalf("expected Alloc(0) == 0, got %#x", p)
	}
}

func TestAlloc_TooLargeFails(t *testing.T) {
	heap := NewSecureHeap()
	if p := heap.Alloc((uintptr(1) << (MaxExp + 1)) + 1); p != 0 {
		t.Fatalf("expected an over-MaxExp allocation to fail, got %#x", p)
	}
}

func TestFree_Nil(t *testing.T) {
	heap := NewSecureHeap()
	heap.Free(0) // must not panic
}

func TestFree_DoubleFreePanics(t *testing.T) {
	heap := NewSecureHeap()
	p := heap.Alloc(64)
	if p == 0 {
		t.Fatal("Alloc failed")
	}
	heap.Free(p)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on double free")
		}
	}()
	heap.Free(p)
}

func TestFree_ForeignPointerPanics(t *testing.T) {
	heap := NewSecureHeap()
	p := heap.Alloc(64)
	if p == 0 {
		t.Fatal("Alloc failed")
	}
	t.Cleanup(func() { heap.Free(p) })

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic freeing a pointer this heap never allocated")
		}
	}()
	heap.Free(p + 4096*1024) // far outside any block this heap owns
}

func TestGetBlockAddress_EmptyHeap(t *testing.T) {
	heap := NewSecureHeap()
	if !heap.GetBlockAddress(0x12345678).IsEmpty() {
		t.Fatal("expected Empty lookup on a heap with no blocks")
	}
}

func TestGetBlockAddress_UnalignedWithinBlockIsEmpty(t *testing.T) {
	heap := NewSecureHeap()
	p := heap.Alloc(64)
	if p == 0 {
		t.Fatal("Alloc failed")
	}
	t.Cleanup(func() { heap.Free(p) })

	if !heap.GetBlockAddress(p + 1).IsEmpty() {
		t.Fatal("expected an unaligned pointer within the block's span to report Empty")
	}
}

func TestActualSizeRoundTrip(t *testing.T) {
	heap := NewSecureHeap()

	sizes := []uintptr{1, 100, 256, 257, 1024, 1 << 20}
	var allocated []uintptr
	for _, size := range sizes {
		p := heap.Alloc(size)
		if p == 0 {
			t.Fatalf("Alloc(%d) failed", size)
		}
		allocated = append(allocated, p)

		wantExponent := WidthOfSize(size)
		if wantExponent < MinExp {
			wantExponent = MinExp
		}
		ba := heap.GetBlockAddress(p)
		if ba.IsEmpty() {
			t.Fatalf("GetBlockAddress failed to find allocation of size %d", size)
		}
		if got := ba.Block.AllocationSize(p); got != wantExponent {
			t.Fatalf("size %d: expected actual-size exponent %d, got %d", size, wantExponent, got)
		}
	}

	for _, p := range allocated {
		heap.Free(p)
	}
}
