// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package pages reserves and releases power-of-two, page-aligned spans
// of protected memory: locked into physical RAM (never swapped),
// excluded from core dumps where the kernel supports it, and private to
// the process.
//
// [Reserve] returns the base address of a span backed by an anonymous
// mmap region that has been through mlock and madvise(MADV_DONTDUMP).
// [Release] unlocks and unmaps a span previously returned by Reserve.
// Callers are responsible for zeroing a span's contents before Release;
// this package never reads or writes the memory it manages.
//
// [PageSizeExponent] returns log2 of the OS page size, computed once
// and cached for the life of the process.
//
// This is a Unix-only primitive built on golang.org/x/sys/unix. There is
// no Windows backend: golang.org/x/sys/unix has no Windows build, and a
// VirtualAlloc/VirtualLock-based variant under a windows build tag has
// not been written.
package pages
