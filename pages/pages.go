// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pages

import (
	"errors"
	"fmt"
	"math/bits"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ErrOutOfMemory reports that a span could not be reserved: the kernel
// refused the mapping, page locking failed, or the no-dump advisory
// returned an error. This is always a soft failure — callers surface it
// as a nil pointer, never as a fatal condition.
var ErrOutOfMemory = errors.New("pages: out of memory")

// Reserve reserves a span of exactly size bytes: readable and writable,
// locked into physical RAM, excluded from core dumps where the kernel
// supports it, and private to the process. size must be a power of two
// and a multiple of the OS page size; violating that is a programming
// error in the caller (the buddy allocator only ever requests spans
// shaped that way) and panics rather than returning an error.
//
// On success, Reserve returns the base address of the span. On failure
// it returns ErrOutOfMemory wrapped with the underlying cause.
func Reserve(size uintptr) (uintptr, error) {
	if size == 0 || size&(size-1) != 0 {
		panic(fmt.Sprintf("pages: size must be a power of two, got %d", size))
	}
	pageSize := uintptr(1) << PageSizeExponent()
	if size%pageSize != 0 {
		panic(fmt.Sprintf("pages: size %d is not a multiple of the page size %d", size, pageSize))
	}

	region, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return 0, fmt.Errorf("%w: mmap: %v", ErrOutOfMemory, err)
	}

	if err := unix.Mlock(region); err != nil {
		unix.Munmap(region)
		return 0, fmt.Errorf("%w: mlock: %v", ErrOutOfMemory, err)
	}

	if err := unix.Madvise(region, unix.MADV_DONTDUMP); err != nil {
		unix.Munlock(region)
		unix.Munmap(region)
		return 0, fmt.Errorf("%w: madvise(MADV_DONTDUMP): %v", ErrOutOfMemory, err)
	}

	return uintptr(unsafe.Pointer(&region[0])), nil
}

// Release unlocks and unmaps a span previously returned by Reserve. It
// does not zero the span; the caller must have already overwritten any
// live contents before calling Release (the buddy heap always has, by
// the time a whole block is free).
//
// A failure here means the OS refused to release memory this process
// still believes it owns exclusively — that is an unrecoverable
// programming-visible condition, not a soft failure, so Release panics
// rather than returning an error.
func Release(base uintptr, size uintptr) {
	region := Bytes(base, size)

	if err := unix.Munlock(region); err != nil {
		panic(fmt.Sprintf("pages: munlock failed: %v", err))
	}
	if err := unix.Munmap(region); err != nil {
		panic(fmt.Sprintf("pages: munmap failed: %v", err))
	}
}

// Bytes returns a byte slice viewing the span [base, base+size). The
// span must currently be reserved (between a Reserve and its matching
// Release); the returned slice aliases the underlying protected memory
// directly and must not outlive the span.
func Bytes(base uintptr, size uintptr) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(base)), size)
}

var (
	pageSizeExponentOnce sync.Once
	pageSizeExponent     int
)

// PageSizeExponent returns log2 of the OS page size, computed once and
// cached for the life of the process. Panics if the OS-reported page
// size is not itself a power of two: the buddy allocator's block-size
// arithmetic assumes every block is a power-of-two multiple of the page
// size, and there is no sensible fallback on a platform that breaks
// that assumption.
func PageSizeExponent() int {
	pageSizeExponentOnce.Do(func() {
		pageSize := unix.Getpagesize()
		if pageSize <= 0 || bits.OnesCount(uint(pageSize)) != 1 {
			panic(fmt.Sprintf("pages: OS page size %d is not a power of two; platform unsupported", pageSize))
		}
		pageSizeExponent = bits.TrailingZeros(uint(pageSize))
	})
	return pageSizeExponent
}
