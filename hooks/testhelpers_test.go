// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hooks

import "unsafe"

// unsafeSpan views size bytes starting at ptr for assertions in tests.
// ptr must come from a hook-backed allocation (mmap-backed, not a Go
// heap slice), matching how pages.Bytes is used in production code.
func unsafeSpan(ptr uintptr, size uintptr) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(ptr)), size)
}

// uintptrOf returns the address of a Go slice's backing array, used
// only to construct a pointer this package's heap definitely never
// produced (a "foreign pointer" test fixture).
func uintptrOf(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}
