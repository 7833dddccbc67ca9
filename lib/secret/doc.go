// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret provides a memory-safe buffer for sensitive data such
// as passwords, access tokens, and encryption keys.
//
// [Buffer] allocates memory outside the Go heap via mmap(MAP_ANONYMOUS),
// locks it into physical RAM via mlock (preventing swap), and marks it
// excluded from core dumps via madvise(MADV_DONTDUMP). On Close, the
// memory is zeroed, unlocked, and unmapped. Because the memory lives
// outside the Go heap, the garbage collector cannot copy or relocate
// it, guaranteeing secret material does not persist after release.
//
// Constructors:
//
//   - [New] -- allocates a zero-filled buffer of a given size
//   - [NewFromBytes] -- copies into protected memory, zeros the source
//   - [ReadFromPath] -- reads a secret from a file or stdin ("-")
//
// Access via [Buffer.Bytes] (slice into mmap region) or [Buffer.String]
// (heap copy for API boundaries). After Close, any access panics.
// Close is idempotent. [Zero] scrubs a plain byte slice that briefly
// held secret material before or instead of being copied in.
//
// Depends on golang.org/x/sys/unix. Imported by lib/sealed for age
// keypair material, and used as the pre-installation fallback
// alongside hooks-backed allocation (see cmd/secureheap-probe).
package secret
