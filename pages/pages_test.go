// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pages

import "testing"

func TestReserve_ZeroFilledAndAligned(t *testing.T) {
	pageSize := uintptr(1) << PageSizeExponent()

	base, err := Reserve(pageSize)
	if err != nil {
		t.Fatalf("Reserve(%d) failed: %v", pageSize, err)
	}
	defer Release(base, pageSize)

	if base%pageSize != 0 {
		t.Fatalf("base address %#x is not page-aligned to %d", base, pageSize)
	}

	data := Bytes(base, pageSize)
	if len(data) != int(pageSize) {
		t.Fatalf("expected %d bytes, got %d", pageSize, len(data))
	}
	for index, value := range data {
		if value != 0 {
			t.Fatalf("expected zero at index %d, got %d", index, value)
		}
	}

	// The span is writable.
	data[0] = 0xAB
	data[len(data)-1] = 0xCD
	if data[0] != 0xAB || data[len(data)-1] != 0xCD {
		t.Fatal("span is not writable")
	}
}

func TestReserve_MultiplePages(t *testing.T) {
	pageSize := uintptr(1) << PageSizeExponent()
	size := pageSize * 4

	base, err := Reserve(size)
	if err != nil {
		t.Fatalf("Reserve(%d) failed: %v", size, err)
	}
	defer Release(base, size)

	data := Bytes(base, size)
	if len(data) != int(size) {
		t.Fatalf("expected %d bytes, got %d", size, len(data))
	}
}

func TestReserve_RejectsNonPowerOfTwo(t *testing.T) {
	pageSize := uintptr(1) << PageSizeExponent()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for non-power-of-two size")
		}
	}()
	Reserve(pageSize + 1)
}

func TestReserve_RejectsSubPageSize(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for sub-page-size request")
		}
	}()
	Reserve(1)
}

func TestPageSizeExponent_PowerOfTwo(t *testing.T) {
	exponent := PageSizeExponent()
	if exponent <= 0 {
		t.Fatalf("expected positive page size exponent, got %d", exponent)
	}
	if got := PageSizeExponent(); got != exponent {
		t.Fatalf("expected cached exponent %d, got %d", exponent, got)
	}
}
