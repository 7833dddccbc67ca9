// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hooks

import (
	"sync"

	"github.com/sealedmem/secureheap/buddy"
	"github.com/sealedmem/secureheap/pages"
)

var (
	mu            sync.Mutex
	installedHeap *buddy.SecureHeap
)

// Hooks mirrors the nine function-shaped callbacks a cryptography
// library registers for a pluggable secure-memory allocator. Four
// (Malloc, Zalloc, Free, ClearFree) accept a trailing (file, line)
// debug pair, which the allocator ignores; ClearFree additionally
// accepts a length, also ignored — the
// allocator always zeroes the full live span regardless of what the
// caller claims its length is.
type Hooks struct {
	Done        func() bool
	Malloc      func(size uintptr, file string, line int) uintptr
	Zalloc      func(size uintptr, file string, line int) uintptr
	Free        func(ptr uintptr, file string, line int)
	ClearFree   func(ptr uintptr, length uintptr, file string, line int)
	Allocated   func(ptr uintptr) bool
	Initialized func() bool
	ActualSize  func(ptr uintptr) uintptr
	Used        func() uintptr
}

// Install registers heap as the process-wide secure heap and returns
// the Hooks value a cryptography library binding would register. It is
// a fatal programming error to install a second heap process-wide;
// Install panics rather than returning an error, since a double install
// means two independent callers each believe they alone own the
// process's secure-memory hooks — continuing would silently hand one of
// them a heap it never allocated from.
func Install(heap *buddy.SecureHeap) Hooks {
	if heap == nil {
		panic("hooks: Install requires a non-nil heap")
	}

	mu.Lock()
	defer mu.Unlock()
	if installedHeap != nil {
		panic("hooks: a secure heap is already installed process-wide")
	}
	installedHeap = heap

	return Hooks{
		Done:        hookDone,
		Malloc:      hookMalloc,
		Zalloc:      hookZalloc,
		Free:        hookFree,
		ClearFree:   hookClearFree,
		Allocated:   hookAllocated,
		Initialized: hookInitialized,
		ActualSize:  hookActualSize,
		Used:        hookUsed,
	}
}

// Uninstall clears the process-wide heap so a later Install call can
// succeed. This is test/teardown glue, not part of the nine-callback
// contract itself — a real host installs once for its process lifetime
// and never calls Uninstall.
func Uninstall() {
	mu.Lock()
	defer mu.Unlock()
	installedHeap = nil
}

func requireHeap() *buddy.SecureHeap {
	mu.Lock()
	defer mu.Unlock()
	if installedHeap == nil {
		panic("hooks: no secure heap installed")
	}
	return installedHeap
}

// hookDone reports success iff the heap has zero blocks. Failure here
// is non-fatal: the caller decides whether to leak the outstanding
// allocations or keep going.
func hookDone() bool {
	return requireHeap().BlockCount() == 0
}

func hookMalloc(size uintptr, _ string, _ int) uintptr {
	return requireHeap().Alloc(size)
}

// hookZalloc allocates then zeroes the first size bytes. The allocator
// already zeroes on Free and fresh mmap pages start zero, so this is
// usually a no-op write — but the hook contract requires it regardless
// of what the allocator can already guarantee.
func hookZalloc(size uintptr, file string, line int) uintptr {
	ptr := hookMalloc(size, file, line)
	if ptr != 0 && size != 0 {
		span := pages.Bytes(ptr, size)
		for i := range span {
			span[i] = 0
		}
	}
	return ptr
}

func hookFree(ptr uintptr, _ string, _ int) {
	requireHeap().Free(ptr)
}

// hookClearFree ignores length: Free always zeroes the full slice the
// allocator tracks for ptr, which may be larger than length but is
// never smaller.
func hookClearFree(ptr uintptr, _ uintptr, _ string, _ int) {
	requireHeap().Free(ptr)
}

func hookAllocated(ptr uintptr) bool {
	return !requireHeap().GetBlockAddress(ptr).IsEmpty()
}

func hookInitialized() bool {
	return true
}

func hookActualSize(ptr uintptr) uintptr {
	addr := requireHeap().GetBlockAddress(ptr)
	if addr.IsEmpty() {
		return 0
	}
	exponent := addr.Block.AllocationSize(ptr)
	if exponent == 0 {
		return 0
	}
	return uintptr(1) << uint(exponent)
}

func hookUsed() uintptr {
	return requireHeap().GetUsedMemory()
}
