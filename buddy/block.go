// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package buddy

// Block is one contiguous protected region of exactly 2^ownExponent
// bytes, reserved via package pages. Its base is page-aligned and its
// size is a multiple of the page size (pages.Reserve guarantees both).
//
// allocSizes is a dense side-table indexed by unit offset
// ((addr-base)>>MinExp), holding the exponent of the allocation that
// begins at that unit, or 0 if no live allocation begins there. An
// exponent fits in a byte (MaxExp is 20), so the table is at most
// 4096 bytes per block regardless of the block's own size.
type Block struct {
	base        uintptr
	ownExponent int
	allocSizes  []uint8
}

// newBlock constructs a Block over an already-reserved span. The
// caller is responsible for having reserved [base, base+2^ownExponent)
// via pages.Reserve.
func newBlock(base uintptr, ownExponent int) *Block {
	if ownExponent < MinExp || ownExponent > MaxExp {
		panic("buddy: block exponent out of range")
	}
	unitCount := uintptr(1) << uint(ownExponent-MinExp)
	return &Block{
		base:        base,
		ownExponent: ownExponent,
		allocSizes:  make([]uint8, unitCount),
	}
}

// Base returns the block's start address.
func (b *Block) Base() uintptr { return b.base }

// OwnExponent returns the block's size class: the block spans exactly
// 2^OwnExponent() bytes.
func (b *Block) OwnExponent() int { return b.ownExponent }

func (b *Block) unitOffset(addr uintptr) uintptr {
	return (addr - b.base) >> MinExp
}

// setAllocationSize records that a live allocation of the given
// exponent begins at addr, or clears the record when exponent is 0.
func (b *Block) setAllocationSize(addr uintptr, exponent int) {
	b.allocSizes[b.unitOffset(addr)] = uint8(exponent)
}

// AllocationSize returns the exponent of the live allocation beginning
// at addr, or 0 if no allocation begins there (including double-free
// detection: a freed allocation reads back as 0).
func (b *Block) AllocationSize(addr uintptr) int {
	return int(b.allocSizes[b.unitOffset(addr)])
}

// isValidPointer reports whether addr falls within this block and is
// aligned to the minimum allocation unit.
func (b *Block) isValidPointer(addr uintptr) bool {
	span := uintptr(1) << uint(b.ownExponent)
	if addr < b.base || addr >= b.base+span {
		return false
	}
	return (addr-b.base)&((uintptr(1)<<MinExp)-1) == 0
}
