// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secureheap implements a buddy allocator over OS pages that
// are locked into RAM, excluded from core dumps, and private to the
// process — a secure heap intended to back a pluggable secure-memory
// hook surface for a cryptography library, modeled on OpenSSL's
// CRYPTO_set_secure_mem_functions contract.
//
// [github.com/sealedmem/secureheap/pages] reserves and releases the
// protected spans. [github.com/sealedmem/secureheap/buddy] implements
// the allocator itself: size classes from 256 bytes to 1MiB, splitting
// and coalescing blocks as allocations come and go.
// [github.com/sealedmem/secureheap/hooks] adapts a buddy heap to the
// nine-callback shape a cryptography library registers for its
// pluggable allocator. cmd/secureheap-probe exercises the whole chain
// end to end against filippo.io/age.
package secureheap
