// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package hooks adapts a [buddy.SecureHeap] to the nine
// function-shaped callbacks a cryptography library expects for its
// pluggable secure-memory allocator, modeled on OpenSSL's
// CRYPTO_set_secure_mem_functions contract.
//
// [Install] registers one heap as the process-wide secure heap and
// returns a [Hooks] value whose nine fields trampoline to it. A host
// process registers these with its cryptography library's hook
// registration point before routing any allocation through that
// library's secure-memory interface; this package never imports a
// concrete crypto library itself, only the function shape one expects.
//
// Installation is one-shot: calling Install a second time process-wide
// is a fatal programming error and panics, never returns an error.
//
// This package performs no internal locking beyond protecting the
// process-wide heap pointer itself during Install/Uninstall. A host
// that calls the returned Hooks concurrently must serialize those calls
// itself, or wrap the installed heap in its own mutex.
package hooks
